package endpoints

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/signance/internal/business"
	"github.com/Nixie-Tech-LLC/signance/internal/db"
	"github.com/Nixie-Tech-LLC/signance/internal/http/api"
	"github.com/Nixie-Tech-LLC/signance/internal/media"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
	"github.com/Nixie-Tech-LLC/signance/internal/notify"
	"github.com/Nixie-Tech-LLC/signance/internal/playlist"
	"github.com/Nixie-Tech-LLC/signance/internal/schedule"
	"github.com/Nixie-Tech-LLC/signance/internal/storage"
)

// memCache versions entries the way the redis cache does: a generation
// bumped by InvalidateAll and a counter per playlist bumped by Invalidate.
type memCache struct {
	mu         sync.Mutex
	sets       int
	generation int
	versions   map[int]int
	data       map[int][2]string

	// beforeSet runs once, ahead of the next Set, to interleave a mutation
	// between resolving and caching.
	beforeSet func()
}

func newMemCache() *memCache {
	return &memCache{versions: map[int]int{}, data: map[int][2]string{}}
}

func (c *memCache) token(id int) string {
	return strconv.Itoa(c.generation) + ":" + strconv.Itoa(c.versions[id])
}

func (c *memCache) Version(_ context.Context, id int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token(id), nil
}

func (c *memCache) Get(_ context.Context, id int) (string, []byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[id]
	return v[0], []byte(v[1]), ok, nil
}

func (c *memCache) Set(_ context.Context, id int, version, etag string, body []byte) (bool, error) {
	c.mu.Lock()
	hook := c.beforeSet
	c.beforeSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token(id) != version {
		return false, nil
	}
	c.sets++
	c.data[id] = [2]string{etag, string(body)}
	return true, nil
}

func (c *memCache) Invalidate(_ context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[id]++
	delete(c.data, id)
	return nil
}

func (c *memCache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.data = map[int][2]string{}
	return nil
}

type fixture struct {
	router   *gin.Engine
	catalog  *media.Catalog
	composer *playlist.Composer
	service  *schedule.Service
	business *business.Service
	cache    *memCache
	hub      *notify.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := db.NewTestStore(t)
	catalog := media.NewCatalog(store)
	composer := playlist.NewComposer(store, catalog)
	f := &fixture{
		catalog:  catalog,
		composer: composer,
		service:  schedule.NewService(store, zerolog.Nop()),
		business: business.NewService(store, storage.NewLocalStorage(t.TempDir())),
		cache:    newMemCache(),
		hub:      notify.NewHub(zerolog.Nop()),
	}
	resolver := schedule.NewResolver(store, catalog, composer, time.UTC, zerolog.Nop())

	f.router = gin.New()
	api.MountGroup(f.router, api.GroupConfig{Prefix: "/api/player"},
		PlayerModule(Deps{
			Resolver: resolver,
			Composer: composer,
			Catalog:  catalog,
			Business: f.business,
			Cache:    f.cache,
			Hub:      f.hub,
		}))
	t.Cleanup(f.hub.Close)
	return f
}

func (f *fixture) get(path, etag string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/player"+path, nil)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) newMedia(t *testing.T, name string, d int) model.MediaAsset {
	t.Helper()
	m, err := f.catalog.Create(context.Background(), media.NewAsset{Filename: name, MediaType: model.MediaImage, Duration: d})
	require.NoError(t, err)
	return m
}

func (f *fixture) rule(t *testing.T, r model.ScheduleRule) model.ScheduleRule {
	t.Helper()
	r.IsActive = true
	if r.Type == "" {
		r.Type = model.ScheduleSimple
	}
	out, err := f.service.Create(context.Background(), r)
	require.NoError(t, err)
	return out
}

type plan struct {
	Date  string `json:"date"`
	Items []struct {
		MediaID          int `json:"media_id"`
		SourceScheduleID int `json:"source_schedule_id"`
		SourcePriority   int `json:"source_priority"`
		Duration         int `json:"effective_duration_seconds"`
	} `json:"items"`
	TotalDuration int `json:"total_duration"`
}

func decodePlan(t *testing.T, w *httptest.ResponseRecorder) plan {
	t.Helper()
	var p plan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p), w.Body.String())
	return p
}

func TestNowResolvesByPriorityWithETag(t *testing.T) {
	f := newFixture(t)
	low := f.newMedia(t, "low.png", 10)
	high := f.newMedia(t, "high.png", 20)
	start, end := "09:00", "17:00"

	f.rule(t, model.ScheduleRule{Target: model.MediaTarget{MediaID: low.ID}, IsAllDay: true})
	hr := f.rule(t, model.ScheduleRule{
		Target:     model.MediaTarget{MediaID: high.ID},
		Priority:   5,
		DailyStart: &start,
		DailyEnd:   &end,
		Weekdays:   []int{0}, // Monday
	})

	// 2025-01-06 is a Monday.
	w := f.get("/now?at=2025-01-06T10:00:00Z", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decodePlan(t, w)
	require.Len(t, p.Items, 2)
	assert.Equal(t, high.ID, p.Items[0].MediaID)
	assert.Equal(t, hr.ID, p.Items[0].SourceScheduleID)
	assert.Equal(t, 5, p.Items[0].SourcePriority)
	assert.Equal(t, low.ID, p.Items[1].MediaID)
	assert.Equal(t, 30, p.TotalDuration)

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, http.StatusNotModified, f.get("/now?at=2025-01-06T11:00:00Z", etag).Code)

	w = f.get("/now?at=2025-01-07T10:00:00Z", etag)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodePlan(t, w).Items, 1)
	assert.NotEqual(t, etag, w.Header().Get("ETag"))

	assert.Equal(t, http.StatusBadRequest, f.get("/now?at=yesterday", "").Code)
}

func TestNowWithNothingScheduled(t *testing.T) {
	f := newFixture(t)
	w := f.get("/now", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"items":[]`), w.Body.String())
}

func TestDatePlan(t *testing.T) {
	f := newFixture(t)
	m := f.newMedia(t, "sale.png", 15)
	from, to := "2025-03-01", "2025-03-31"
	f.rule(t, model.ScheduleRule{
		Target:    model.MediaTarget{MediaID: m.ID},
		Type:      model.ScheduleAdvanced,
		StartDate: &from,
		EndDate:   &to,
	})

	w := f.get("/date/2025-03-31", "")
	require.Equal(t, http.StatusOK, w.Code)
	p := decodePlan(t, w)
	assert.Equal(t, "2025-03-31", p.Date)
	require.Len(t, p.Items, 1)
	assert.Equal(t, m.ID, p.Items[0].MediaID)

	assert.Empty(t, decodePlan(t, f.get("/date/2025-04-01", "")).Items)
	assert.Equal(t, http.StatusBadRequest, f.get("/date/04-01-2025", "").Code)
}

func TestPlaylistServedFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.newMedia(t, "a.png", 12)
	pl, err := f.composer.Create(ctx, "Lobby", nil)
	require.NoError(t, err)
	_, err = f.composer.AddMedia(ctx, pl.ID, m.ID, nil)
	require.NoError(t, err)
	path := "/playlists/" + strconv.Itoa(pl.ID)

	w := f.get(path, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	etag := w.Header().Get("ETag")
	assert.Equal(t, 1, f.cache.sets)
	assert.Contains(t, w.Body.String(), `"total_duration":12`)

	// the cached body wins until something invalidates it
	_, err = f.composer.Update(ctx, pl.ID, strPtr("Renamed"), nil)
	require.NoError(t, err)
	w = f.get(path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Lobby"`)
	assert.Equal(t, 1, f.cache.sets)

	assert.Equal(t, http.StatusNotModified, f.get(path, etag).Code)
	assert.Equal(t, http.StatusNotFound, f.get("/playlists/999", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.get("/playlists/x", "").Code)
}

func strPtr(s string) *string { return &s }

type expansion struct {
	Items []struct {
		Media struct {
			ID int `json:"id"`
		} `json:"media"`
	} `json:"items"`
}

func TestPlaylistRenderedDuringMutationIsNotCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.newMedia(t, "a.png", 10)
	b := f.newMedia(t, "b.png", 5)
	pl, err := f.composer.Create(ctx, "Lobby", nil)
	require.NoError(t, err)
	_, err = f.composer.AddMedia(ctx, pl.ID, a.ID, nil)
	require.NoError(t, err)
	path := "/playlists/" + strconv.Itoa(pl.ID)

	// the admin adds b after the player resolved but before it caches
	sink := notify.NewCacheSink(f.cache, zerolog.Nop())
	f.cache.beforeSet = func() {
		_, err := f.composer.AddMedia(ctx, pl.ID, b.ID, nil)
		require.NoError(t, err)
		sink.Notify(notify.PlaylistMediaAdded, map[string]any{"playlist_id": pl.ID, "media_id": b.ID})
	}

	w := f.get(path, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var first expansion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Len(t, first.Items, 1)
	assert.Equal(t, 0, f.cache.sets, "stale rendering must not be cached")

	for i := 0; i < 2; i++ {
		w = f.get(path, "")
		require.Equal(t, http.StatusOK, w.Code)
		var next expansion
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &next))
		require.Len(t, next.Items, 2)
		assert.Equal(t, b.ID, next.Items[1].Media.ID)
	}
	assert.Equal(t, 1, f.cache.sets)
}

func TestMediaChangeInvalidatesEveryPlaylist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.newMedia(t, "a.png", 10)
	pl, err := f.composer.Create(ctx, "Lobby", nil)
	require.NoError(t, err)
	_, err = f.composer.AddMedia(ctx, pl.ID, m.ID, nil)
	require.NoError(t, err)
	path := "/playlists/" + strconv.Itoa(pl.ID)

	sink := notify.NewCacheSink(f.cache, zerolog.Nop())
	f.cache.beforeSet = func() {
		_, err := f.catalog.Update(ctx, m.ID, nil, intPtr(40))
		require.NoError(t, err)
		sink.Notify(notify.MediaUpdated, map[string]any{"id": m.ID})
	}
	require.Equal(t, http.StatusOK, f.get(path, "").Code)
	assert.Equal(t, 0, f.cache.sets)

	w := f.get(path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_duration":40`)
	assert.Equal(t, 1, f.cache.sets)
}

func intPtr(n int) *int { return &n }

func TestPlayerListsPlaylistsAndMedia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.newMedia(t, "a.png", 10)
	f.newMedia(t, "b.png", 20)
	pl, err := f.composer.Create(ctx, "Lobby", nil)
	require.NoError(t, err)
	_, err = f.composer.AddMedia(ctx, pl.ID, a.ID, intPtr(7))
	require.NoError(t, err)

	w := f.get("/playlists", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var playlists []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &playlists))
	require.Len(t, playlists, 1)
	assert.Equal(t, "Lobby", playlists[0]["name"])

	w = f.get("/playlists/"+strconv.Itoa(pl.ID)+"/items", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var items []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.EqualValues(t, 7, items[0]["effective_duration"])
	assert.Equal(t, http.StatusNotFound, f.get("/playlists/999/items", "").Code)

	w = f.get("/media?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var assets []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &assets))
	assert.Len(t, assets, 1)
	assert.Len(t, decodeList(t, f.get("/media", "")), 2)
	assert.Equal(t, http.StatusBadRequest, f.get("/media?limit=-1", "").Code)

	w = f.get("/media/"+strconv.Itoa(a.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"filename":"a.png"`)
	assert.Equal(t, http.StatusNotFound, f.get("/media/999", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.get("/media/abc", "").Code)
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestPlayerBusiness(t *testing.T) {
	f := newFixture(t)

	w := f.get("/business", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"`+model.DefaultBusinessName+`","logo":null}`, w.Body.String())

	_, err := f.business.Update(context.Background(), strPtr("Corner Cafe"), nil)
	require.NoError(t, err)
	w = f.get("/business", "")
	assert.JSONEq(t, `{"name":"Corner Cafe","logo":null}`, w.Body.String())
}

func TestWebsocketReceivesEvents(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/player/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return f.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	f.hub.Notify(notify.ScheduleToggled, map[string]any{"id": 3, "is_active": false})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev notify.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, notify.ScheduleToggled, ev.Type)
	assert.Equal(t, false, ev.Data["is_active"])
}
