package importer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/timelines/internal/config"
	"github.com/pders01/timelines/internal/plugins"
	"github.com/pders01/timelines/internal/search"
	"github.com/pders01/timelines/internal/storage"
	"github.com/pders01/timelines/internal/validation"
)

type recordingSearcher struct {
	updated []string
}

func (r *recordingSearcher) Search(string, int) ([]*search.Result, error) { return nil, nil }

func (r *recordingSearcher) OnDataUpdated(worldID string) error {
	r.updated = append(r.updated, worldID)
	return nil
}

func setupManager(t *testing.T) (*Manager, *storage.Store, *storage.World) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.TestConfig(dir)
	store, err := storage.NewStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	world := &storage.World{Name: "Aldmere", Calendar: "earth"}
	require.NoError(t, store.SaveWorld(world))
	return NewManager(store, cfg), store, world
}

func feedServer(t *testing.T, body string, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestImportFeed(t *testing.T) {
	manager, store, world := setupManager(t)
	rec := &recordingSearcher{}
	manager.SetSearcher(rec)

	var hits int32
	server := feedServer(t, testAtom, &hits)

	res, err := manager.ImportFeed(context.Background(), world.ID, server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Annals", res.Title)
	assert.Equal(t, 2, res.Events)
	assert.Equal(t, 1, res.Actors)
	assert.False(t, res.NotModified)

	events, err := store.GetEvents(world.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Coronation", events[0].Name)

	actors, err := store.GetActors(world.ID)
	require.NoError(t, err)
	require.Len(t, actors, 1)

	meta, err := store.GetFetchMetadata(world.ID, res.URL)
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, meta.ETag)
	assert.False(t, meta.LastFetched.IsZero())

	assert.Equal(t, []string{world.ID}, rec.updated)
}

func TestImportFeed_NotModifiedIsNoop(t *testing.T) {
	manager, store, world := setupManager(t)
	rec := &recordingSearcher{}
	manager.SetSearcher(rec)

	var hits int32
	server := feedServer(t, testRSS, &hits)

	_, err := manager.ImportFeed(context.Background(), world.ID, server.URL)
	require.NoError(t, err)

	res, err := manager.ImportFeed(context.Background(), world.ID, server.URL)
	require.NoError(t, err)
	assert.True(t, res.NotModified)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Len(t, rec.updated, 1, "an unchanged feed does not touch the index")

	events, _ := store.GetEvents(world.ID)
	assert.Len(t, events, 2)

	manager.SetForceRefresh(true)
	res, err = manager.ImportFeed(context.Background(), world.ID, server.URL)
	require.NoError(t, err)
	assert.False(t, res.NotModified)
	events, _ = store.GetEvents(world.ID)
	assert.Len(t, events, 2, "re-importing updates events in place")
}

func TestImportFeed_Validation(t *testing.T) {
	manager, _, world := setupManager(t)
	manager.SetPermissiveValidation(false)

	_, err := manager.ImportFeed(context.Background(), world.ID, "http://127.0.0.1:9/feed")
	assert.True(t, errors.Is(err, validation.ErrBlockedHost))

	_, err = manager.ImportFeed(context.Background(), world.ID, "")
	assert.True(t, errors.Is(err, validation.ErrInvalidURL))
}

func TestImportFeed_UnknownWorld(t *testing.T) {
	manager, _, _ := setupManager(t)
	var hits int32
	server := feedServer(t, testRSS, &hits)

	_, err := manager.ImportFeed(context.Background(), "missing", server.URL)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	assert.Zero(t, atomic.LoadInt32(&hits))
}

// pagePlugin maps "<server>/page" to the feed served at the root.
type pagePlugin struct {
	title string
}

func (p pagePlugin) Name() string { return "page" }

func (p pagePlugin) CanHandle(url string) bool { return strings.HasSuffix(url, "/page") }

func (p pagePlugin) Priority() int { return 100 }

func (p pagePlugin) Resolve(_ context.Context, url string, _ *http.Client) (*plugins.SourceInfo, error) {
	return &plugins.SourceInfo{
		OriginalURL: url,
		FeedURL:     strings.TrimSuffix(url, "/page") + "/",
		Title:       p.title,
		Metadata:    map[string]string{"plugin": "page"},
	}, nil
}

func TestImportFeed_ResolvesThroughPlugin(t *testing.T) {
	manager, store, world := setupManager(t)
	manager.RegisterPlugin(pagePlugin{title: "From the page"})

	var hits int32
	server := feedServer(t, testRSS, &hits)

	res, err := manager.ImportFeed(context.Background(), world.ID, server.URL+"/page")
	require.NoError(t, err)
	assert.NotContains(t, res.URL, "/page", "metadata is keyed by the resolved feed")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	events, err := store.GetEvents(world.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, events)
}

func TestImportFeed_PluginTitleFallback(t *testing.T) {
	manager, _, world := setupManager(t)
	manager.RegisterPlugin(pagePlugin{title: "From the page"})

	var hits int32
	server := feedServer(t, `<?xml version="1.0"?>
<rss version="2.0"><channel>
<item><title>Only</title><guid>1</guid><pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate></item>
</channel></rss>`, &hits)

	res, err := manager.ImportFeed(context.Background(), world.ID, server.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "From the page", res.Title)
	assert.Equal(t, 1, res.Events)
}
