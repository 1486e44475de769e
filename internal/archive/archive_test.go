package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/effort/internal/config"
)

func writeArtifact(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestNew_SelectsDriver(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, config.ArchiveConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Equal(t, DriverNone, s.Driver())

	s, err = New(ctx, config.ArchiveConfig{Driver: "fs", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DriverFS, s.Driver())

	_, err = New(ctx, config.ArchiveConfig{Driver: "tape"})
	assert.Error(t, err)

	_, err = New(ctx, config.ArchiveConfig{Driver: "s3"})
	assert.Error(t, err, "bucket is required")
}

func TestKey(t *testing.T) {
	assert.Equal(t, "effort/merge_edit_20240131_142501_123456.tsv",
		Key("effort", "/data/merge_edit_20240131_142501_123456.tsv"))
}

func TestFS_PutFileAndList(t *testing.T) {
	ctx := context.Background()
	store, err := NewFS(t.TempDir())
	require.NoError(t, err)

	src := writeArtifact(t, "merge_a.tsv", "type\temployee\n")
	info, err := PutFile(ctx, store, Key("effort", src), src)
	require.NoError(t, err)
	assert.Equal(t, "effort/merge_a.tsv", info.Key)
	assert.Equal(t, int64(len("type\temployee\n")), info.Size)

	other := writeArtifact(t, "effort_backup_1.db", "db")
	_, err = PutFile(ctx, store, Key("effort", other), other)
	require.NoError(t, err)

	got, err := store.List(ctx, "effort/merge")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "effort/merge_a.tsv", got[0].Key)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFS_RefusesOverwriteAndEscapes(t *testing.T) {
	ctx := context.Background()
	store, err := NewFS(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(ctx, "a/b.tsv", strings.NewReader("one"))
	require.NoError(t, err)
	_, err = store.Put(ctx, "a/b.tsv", strings.NewReader("two"))
	assert.ErrorIs(t, err, ErrExists)

	_, err = store.Put(ctx, "../outside.tsv", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestS3_PutAndList(t *testing.T) {
	ctx := context.Background()
	rt := newMockS3()
	store := newMockS3Store(t, rt, "archives")

	src := writeArtifact(t, "merge_a.tsv", "type\temployee\tcode\n")
	info, err := PutFile(ctx, store, Key("effort", src), src)
	require.NoError(t, err)
	assert.Equal(t, "effort/merge_a.tsv", info.Key)
	assert.Equal(t, int64(len("type\temployee\tcode\n")), info.Size)
	assert.Equal(t, []byte("type\temployee\tcode\n"), rt.object("archives/effort/merge_a.tsv"))

	_, err = store.Put(ctx, "effort/merge_a.tsv", strings.NewReader("again"))
	assert.ErrorIs(t, err, ErrExists)

	got, err := store.List(ctx, "effort/")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "effort/merge_a.tsv", got[0].Key, "prefix is stripped from listed keys")
}

func newMockS3Store(t *testing.T, rt http.RoundTripper, prefix string) *S3 {
	t.Helper()
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	require.NoError(t, err)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return newS3WithClient(client, "mock-bucket", prefix)
}

// mockS3 serves HEAD, PUT and ListObjectsV2 for a single path-style bucket.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMockS3() *mockS3 { return &mockS3{objects: map[string][]byte{}} }

func (m *mockS3) object(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[key]
}

func (m *mockS3) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	empty := func(status int, h http.Header) *http.Response {
		return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(nil)), Header: h}
	}

	switch {
	case req.Method == http.MethodGet && strings.Contains(req.URL.RawQuery, "list-type=2"):
		prefix := req.URL.Query().Get("prefix")
		var keys []string
		for k := range m.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(`<?xml version="1.0"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>", k, len(m.objects[k]))
		}
		b.WriteString("</ListBucketResult>")
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(b.String())), Header: http.Header{"Content-Type": {"application/xml"}}}, nil
	case req.Method == http.MethodHead:
		body, ok := m.objects[key]
		if !ok {
			return empty(http.StatusNotFound, http.Header{}), nil
		}
		return empty(http.StatusOK, http.Header{
			"Content-Length": {strconv.Itoa(len(body))},
			"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
		}), nil
	case req.Method == http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		m.objects[key] = body
		return empty(http.StatusOK, http.Header{"ETag": {`"etag"`}}), nil
	}
	return empty(http.StatusNotImplemented, http.Header{}), nil
}

// decodeChunked unwraps a single-chunk aws-chunked payload.
func decodeChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 || parts[2] != "0" {
		return nil, false
	}
	size, err := strconv.ParseInt(strings.SplitN(parts[0], ";", 2)[0], 16, 64)
	if err != nil || int64(len(parts[1])) != size {
		return nil, false
	}
	return []byte(parts[1]), true
}
