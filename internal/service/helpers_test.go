package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/isolation"
	"github.com/alexanderramin/effort/internal/repository"
	"github.com/alexanderramin/effort/internal/testutil"
)

// steppingClock advances one second per call so merge artifacts get
// distinct names.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (r *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) find(name string) (UseCaseEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Name == name {
			return r.events[i], true
		}
	}
	return UseCaseEvent{}, false
}

// env is a dataset with the shared test world seeded into the canonical
// store and an isolator of the requested mode.
type env struct {
	ds    *db.Dataset
	iso   isolation.Isolator
	seed  *repository.Store
	world *testutil.World
	obs   *recordingObserver
}

func newEnv(t *testing.T, mode isolation.Mode) *env {
	t.Helper()
	ds := testutil.NewTestDataset(t)
	iso, err := isolation.New(mode, ds, isolation.WithClock(steppingClock()))
	require.NoError(t, err)
	t.Cleanup(func() { iso.Close() })
	seed := testutil.NewTestStore(ds.DB())
	return &env{ds: ds, iso: iso, seed: seed, world: testutil.NewWorld(t, seed), obs: &recordingObserver{}}
}

func (e *env) open(t *testing.T) {
	t.Helper()
	_, err := e.iso.Open(context.Background(), "")
	require.NoError(t, err)
}

// canonical reads the main store, bypassing any open session.
func (e *env) canonical() *repository.Store {
	return repository.NewStore(e.ds.DB(), nil)
}

func (e *env) effort(t *testing.T, st *repository.Store, lineID int64, y, m int) float64 {
	t.Helper()
	eff, err := st.Efforts.Get(context.Background(), lineID, domain.YearMonth{Year: y, Month: m})
	if err != nil {
		require.ErrorIs(t, err, domain.ErrNotFound)
		return 0
	}
	return eff.Percentage
}

func ptr[T any](v T) *T { return &v }
