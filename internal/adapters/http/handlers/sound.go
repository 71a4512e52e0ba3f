package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chimekit/chime/internal/adapters/http/dto"
	"github.com/chimekit/chime/internal/app"
	"github.com/chimekit/chime/internal/platform/logging"
)

var (
	playsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chime",
		Subsystem: "http",
		Name:      "plays_total",
		Help:      "Play requests by mode and outcome.",
	}, []string{"mode", "outcome"})

	playDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chime",
		Subsystem: "http",
		Name:      "play_duration_seconds",
		Help:      "Time from request to submission or playback completion.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"mode"})

	cachesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chime",
		Subsystem: "http",
		Name:      "caches_total",
		Help:      "Cache requests by outcome.",
	}, []string{"outcome"})
)

// SoundHandler serves the sound API: triggering playback, priming the
// backend cache, listing cached sounds and updating context attributes.
type SoundHandler struct {
	service *app.SoundService
}

// NewSoundHandler creates a sound handler.
func NewSoundHandler(service *app.SoundService) *SoundHandler {
	if service == nil {
		panic("handlers: SoundHandler requires a SoundService")
	}

	return &SoundHandler{service: service}
}

// PlayRequest asks the daemon to play a sound described by attributes.
type PlayRequest struct {
	// Attrs describes the sound, e.g. {"event.id": "bell"} or
	// {"media.filename": "/usr/share/sounds/bell.oga"}.
	Attrs map[string]string `json:"attrs" validate:"required,min=1"`

	// Wait blocks the request until playback finishes instead of
	// returning as soon as the backend accepts it.
	Wait bool `json:"wait"`
}

// PlayResponse reports how far the play request got.
type PlayResponse struct {
	// Status is "submitted" for fire-and-forget requests and "played"
	// when the request waited for completion.
	Status string `json:"status"`
}

// Play handles POST /api/v1/sounds/play.
func (h *SoundHandler) Play(c *gin.Context) {
	var req PlayRequest

	if err := dto.BindAndValidate(c, &req); err != nil {
		if fieldErrors := dto.ValidationErrors(err); len(fieldErrors) > 0 {
			dto.RespondWithValidationErrors(c, fieldErrors)

			return
		}

		dto.AbortWithErrorCode(c, dto.ErrorCodeBadRequest, err.Error())

		return
	}

	mode := "submit"
	if req.Wait {
		mode = "wait"
	}

	start := time.Now()
	err := h.service.Trigger(c.Request.Context(), req.Attrs, req.Wait)
	playDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if err != nil {
		playsTotal.WithLabelValues(mode, "error").Inc()
		dto.HandleError(c, err)

		return
	}

	playsTotal.WithLabelValues(mode, "ok").Inc()

	status := "submitted"
	if req.Wait {
		status = "played"
	}

	c.JSON(http.StatusAccepted, PlayResponse{Status: status})
}

// CacheRequest asks the daemon to prime the backend cache with a sound.
type CacheRequest struct {
	Attrs map[string]string `json:"attrs" validate:"required,min=1"`
}

// Cache handles POST /api/v1/sounds/cache.
func (h *SoundHandler) Cache(c *gin.Context) {
	var req CacheRequest

	if err := dto.BindAndValidate(c, &req); err != nil {
		if fieldErrors := dto.ValidationErrors(err); len(fieldErrors) > 0 {
			dto.RespondWithValidationErrors(c, fieldErrors)

			return
		}

		dto.AbortWithErrorCode(c, dto.ErrorCodeBadRequest, err.Error())

		return
	}

	entry, err := h.service.CacheSound(c.Request.Context(), req.Attrs)
	if err != nil {
		cachesTotal.WithLabelValues("error").Inc()
		dto.HandleError(c, err)

		return
	}

	cachesTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusCreated, entry)
}

// List handles GET /api/v1/sounds, returning cached sounds as a cursor
// paginated listing in caching order.
func (h *SoundHandler) List(c *gin.Context) {
	var req dto.PaginationRequest

	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		if fieldErrors := dto.ValidationErrors(err); len(fieldErrors) > 0 {
			dto.RespondWithValidationErrors(c, fieldErrors)

			return
		}

		dto.AbortWithErrorCode(c, dto.ErrorCodeBadRequest, err.Error())

		return
	}

	afterID := ""

	cursor, err := req.DecodeCursor()

	switch {
	case err == nil:
		afterID = cursor.ID
	case errors.Is(err, dto.ErrNoCursor):
	default:
		dto.AbortWithErrorCode(c, dto.ErrorCodeBadRequest, "invalid cursor")

		return
	}

	limit := req.GetLimit()

	// Fetch one past the page to detect whether more entries follow.
	items := h.service.ListCached(c.Request.Context(), afterID, limit+1)

	resp := dto.NewPaginatedResponse(items, limit, func(s app.CachedSound) *dto.CursorData {
		return dto.NewCursor("cached_at", s.CachedAt.Format(time.RFC3339Nano), s.ID)
	})

	c.JSON(http.StatusOK, resp)
}

// AttrsRequest replaces or extends the context-level attribute defaults.
type AttrsRequest struct {
	Attrs map[string]string `json:"attrs" validate:"required,min=1"`
}

// UpdateAttrs handles PATCH /api/v1/context/attrs, merging the given
// attributes into the defaults applied to every subsequent sound.
func (h *SoundHandler) UpdateAttrs(c *gin.Context) {
	var req AttrsRequest

	if err := dto.BindAndValidate(c, &req); err != nil {
		if fieldErrors := dto.ValidationErrors(err); len(fieldErrors) > 0 {
			dto.RespondWithValidationErrors(c, fieldErrors)

			return
		}

		dto.AbortWithErrorCode(c, dto.ErrorCodeBadRequest, err.Error())

		return
	}

	if err := h.service.UpdateAttrs(c.Request.Context(), req.Attrs); err != nil {
		dto.HandleError(c, err)

		return
	}

	logging.FromContext(c.Request.Context()).Info("context attributes updated",
		slog.Int("count", len(req.Attrs)),
	)

	c.Status(http.StatusNoContent)
}

// RegisterSoundRoutes registers the sound API routes on the given group.
func (h *SoundHandler) RegisterSoundRoutes(rg *gin.RouterGroup) {
	sounds := rg.Group("/sounds")
	sounds.POST("/play", h.Play)
	sounds.POST("/cache", h.Cache)
	sounds.GET("", h.List)

	rg.PATCH("/context/attrs", h.UpdateAttrs)
}
