package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chimekit/chime/internal/adapters/backend/memory"
	"github.com/chimekit/chime/internal/adapters/http/dto"
	"github.com/chimekit/chime/internal/app"
	"github.com/chimekit/chime/internal/domain"
)

func newSoundRouter(t *testing.T, opts memory.HandleOptions) (*gin.Engine, *memory.Backend) {
	t.Helper()

	backend := memory.New(opts)
	sounds := app.NewSoundContext(app.SoundContextConfig{Backend: backend})

	t.Cleanup(func() {
		_ = sounds.Close()
	})

	service := app.NewSoundService(app.SoundServiceConfig{Sounds: sounds})
	handler := NewSoundHandler(service)

	router := gin.New()
	handler.RegisterSoundRoutes(router.Group("/api/v1"))

	return router, backend
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestSoundHandlerPlay(t *testing.T) {
	t.Run("fire and forget", func(t *testing.T) {
		router, backend := newSoundRouter(t, memory.HandleOptions{})

		w := postJSON(router, "/api/v1/sounds/play", `{"attrs":{"event.id":"bell"}}`)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.JSONEq(t, `{"status":"submitted"}`, w.Body.String())

		handles := backend.Handles()
		require.Len(t, handles, 1)

		plays := handles[0].Plays()
		require.Len(t, plays, 1)
		assert.False(t, plays[0].HasCallback)
	})

	t.Run("waited play reports played", func(t *testing.T) {
		router, backend := newSoundRouter(t, memory.HandleOptions{AutoComplete: true})

		w := postJSON(router, "/api/v1/sounds/play", `{"attrs":{"event.id":"bell"},"wait":true}`)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.JSONEq(t, `{"status":"played"}`, w.Body.String())

		plays := backend.Handles()[0].Plays()
		require.Len(t, plays, 1)
		assert.True(t, plays[0].HasCallback)
	})

	t.Run("missing attrs is a validation error", func(t *testing.T) {
		router, backend := newSoundRouter(t, memory.HandleOptions{})

		w := postJSON(router, "/api/v1/sounds/play", `{"wait":true}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.ErrorResponse

		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrorCodeValidation, resp.Error.Code)
		assert.Contains(t, resp.Error.Details, "attrs")
		assert.Empty(t, backend.Handles())
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		router, _ := newSoundRouter(t, memory.HandleOptions{})

		w := postJSON(router, "/api/v1/sounds/play", `{"attrs":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.ErrorResponse

		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrorCodeBadRequest, resp.Error.Code)
	})

	t.Run("invalid attribute name is a validation error", func(t *testing.T) {
		router, _ := newSoundRouter(t, memory.HandleOptions{})

		w := postJSON(router, "/api/v1/sounds/play", `{"attrs":{".bad":"x"}}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.ErrorResponse

		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrorCodeValidation, resp.Error.Code)
	})

	t.Run("missing sound file maps to 404", func(t *testing.T) {
		router, _ := newSoundRouter(t, memory.HandleOptions{PlayCode: domain.CodeNotFound})

		w := postJSON(router, "/api/v1/sounds/play", `{"attrs":{"event.id":"no-such-event"}}`)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp dto.ErrorResponse

		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrorCodeNotFound, resp.Error.Code)
	})

	t.Run("unavailable backend maps to 503", func(t *testing.T) {
		router, _ := newSoundRouter(t, memory.HandleOptions{CreateCode: domain.CodeNotAvailable})

		w := postJSON(router, "/api/v1/sounds/play", `{"attrs":{"event.id":"bell"}}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestSoundHandlerCache(t *testing.T) {
	t.Run("creates a cache entry", func(t *testing.T) {
		router, backend := newSoundRouter(t, memory.HandleOptions{})

		w := postJSON(router, "/api/v1/sounds/cache", `{"attrs":{"event.id":"bell"}}`)

		assert.Equal(t, http.StatusCreated, w.Code)

		var entry app.CachedSound

		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, "bell", entry.EventID)

		handle := backend.Handles()[0]
		assert.Len(t, handle.Caches(), 1)
		assert.Empty(t, handle.Plays())
	})

	t.Run("backend rejection is mapped", func(t *testing.T) {
		router, _ := newSoundRouter(t, memory.HandleOptions{CacheCode: domain.CodeNotSupported})

		w := postJSON(router, "/api/v1/sounds/cache", `{"attrs":{"event.id":"bell"}}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSoundHandlerList(t *testing.T) {
	seed := func(t *testing.T, router *gin.Engine, events ...string) {
		t.Helper()

		for _, event := range events {
			w := postJSON(router, "/api/v1/sounds/cache", `{"attrs":{"event.id":"`+event+`"}}`)
			require.Equal(t, http.StatusCreated, w.Code)
		}
	}

	t.Run("pages through entries", func(t *testing.T) {
		router, _ := newSoundRouter(t, memory.HandleOptions{})
		seed(t, router, "a", "b", "c")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sounds?limit=2", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var page dto.PaginatedResponse[app.CachedSound]

		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		require.Len(t, page.Items, 2)
		assert.Equal(t, "a", page.Items[0].EventID)
		assert.Equal(t, "b", page.Items[1].EventID)
		assert.True(t, page.HasMore)
		require.NotEmpty(t, page.NextCursor)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/api/v1/sounds?limit=2&cursor="+page.NextCursor, nil))

		require.Equal(t, http.StatusOK, w.Code)

		var next dto.PaginatedResponse[app.CachedSound]

		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &next))
		require.Len(t, next.Items, 1)
		assert.Equal(t, "c", next.Items[0].EventID)
		assert.False(t, next.HasMore)
		assert.Empty(t, next.NextCursor)
	})

	t.Run("empty listing", func(t *testing.T) {
		router, _ := newSoundRouter(t, memory.HandleOptions{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sounds", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var page dto.PaginatedResponse[app.CachedSound]

		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Empty(t, page.Items)
		assert.False(t, page.HasMore)
	})

	t.Run("garbage cursor is rejected", func(t *testing.T) {
		router, _ := newSoundRouter(t, memory.HandleOptions{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sounds?cursor=%21%21", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSoundHandlerUpdateAttrs(t *testing.T) {
	t.Run("merges into context defaults", func(t *testing.T) {
		router, backend := newSoundRouter(t, memory.HandleOptions{})

		req := httptest.NewRequest(http.MethodPatch, "/api/v1/context/attrs",
			strings.NewReader(`{"attrs":{"canberra.volume":"-6"}}`))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)

		props := backend.Handles()[0].Props()
		assert.Equal(t, []domain.Attr{
			{Name: domain.AttrVolume, Value: "-6"},
		}, props)
	})

	t.Run("empty attrs is a validation error", func(t *testing.T) {
		router, _ := newSoundRouter(t, memory.HandleOptions{})

		req := httptest.NewRequest(http.MethodPatch, "/api/v1/context/attrs",
			strings.NewReader(`{"attrs":{}}`))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
