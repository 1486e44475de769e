package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/effort/internal/archive"
	"github.com/alexanderramin/effort/internal/config"
	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/isolation"
	"github.com/alexanderramin/effort/internal/metrics"
	"github.com/alexanderramin/effort/internal/reconcile"
	"github.com/alexanderramin/effort/internal/service"
)

// App holds references to all service interfaces used by CLI commands.
// Commands wire it from the global flags on first use unless the caller
// already attached a dataset.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Dataset  *db.Dataset
	Isolator isolation.Isolator

	Sessions  service.SessionService
	Edits     service.EditService
	Reconcile service.ReconcileService
	History   service.HistoryService
	Backups   service.BackupService
	Query     service.QueryService
	Seed      service.SeedService

	// IsInteractive reports whether prompts may be shown.
	IsInteractive func() bool
	// Confirm asks a yes/no question. Nil uses a huh form.
	Confirm func(title string) (bool, error)
	// LogOutput receives structured logs. Nil means stderr.
	LogOutput io.Writer
	Now       func() time.Time

	ownsDataset bool
}

// Open loads the dataset named by cfg and wires every service over it.
func (a *App) Open(ctx context.Context, cfg config.Config) error {
	ds, err := db.OpenDataset(cfg.DB)
	if err != nil {
		return fmt.Errorf("opening dataset: %w", err)
	}
	if err := a.Attach(ctx, cfg, ds); err != nil {
		ds.Close()
		return err
	}
	a.ownsDataset = true
	return nil
}

// Attach wires the services over an already open dataset.
func (a *App) Attach(ctx context.Context, cfg config.Config, ds *db.Dataset) error {
	mode, err := isolation.ParseMode(cfg.Isolation.Mode)
	if err != nil {
		return err
	}
	tolerance, err := reconcile.ParseTolerance(cfg.Reconcile.Tolerance)
	if err != nil {
		return err
	}
	store, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		return err
	}
	iso, err := isolation.New(mode, ds)
	if err != nil {
		return err
	}

	out := a.LogOutput
	if out == nil {
		out = os.Stderr
	}
	a.Config = cfg
	a.Logger = service.NewLogger(out, cfg.Log.SlogLevel(), cfg.Log.Format)
	a.Metrics = metrics.New()
	a.Dataset = ds
	a.Isolator = iso

	obs := []service.UseCaseObserver{service.NewLogUseCaseObserver(a.Logger), a.Metrics}
	policy := reconcile.Policy{PreferredFundCode: cfg.Reconcile.PreferredFundCode, Tolerance: tolerance}

	a.Sessions = service.NewSessionService(ds, iso, store, obs...)
	a.Edits = service.NewEditService(iso, obs...)
	a.Reconcile = service.NewReconcileService(ds, iso, policy, obs...)
	a.History = service.NewHistoryService(ds)
	a.Backups = service.NewBackupService(ds, iso, cfg.Backup.Keep, obs...)
	a.Query = service.NewQueryService(iso)
	a.Seed = service.NewSeedService(ds, iso, obs...)
	return nil
}

// Close releases the isolator and, when Open created it, the dataset.
func (a *App) Close() error {
	var errs []error
	if a.Isolator != nil {
		errs = append(errs, a.Isolator.Close())
	}
	if a.ownsDataset && a.Dataset != nil {
		errs = append(errs, a.Dataset.Close())
	}
	return errors.Join(errs...)
}

func (a *App) wired() bool { return a.Sessions != nil }

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) interactive() bool {
	if a.IsInteractive != nil {
		return a.IsInteractive()
	}
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// NewRootCmd creates the top-level "effort" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var dbPath, configPath string

	root := &cobra.Command{
		Use:           "effort",
		Short:         "Edit effort allocations with reviewable sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.wired() {
				return nil
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.DB = dbPath
			}
			return app.Open(cmd.Context(), cfg)
		},
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "Dataset file (overrides config and EFFORT_DB)")
	root.PersistentFlags().StringVar(&configPath, "config", "effort.yaml", "Config file; skipped when absent")

	root.AddCommand(
		newSessionCmd(app),
		newEffortCmd(app),
		newLineCmd(app),
		newGroupCmd(app),
		newEmployeeCmd(app),
		newProjectCmd(app),
		newBudgetLineCmd(app),
		newFixTotalsCmd(app),
		newGridCmd(app),
		newHistoryCmd(app),
		newBackupCmd(app),
		newSeedCmd(app),
		newServeCmd(app),
	)

	return root
}
