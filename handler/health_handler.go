package handler

import (
	"context"
	"net/http"
	"notecheck/model"
	"notecheck/utils"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// NoteStore is what the health check asks about the backing store.
type NoteStore interface {
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (*model.NoteStats, error)
}

type HealthHandler struct {
	store     NoteStore
	storeName string
	startedAt time.Time
}

type HealthResponse struct {
	Status        string            `json:"status"`
	Store         string            `json:"store"`
	StoreError    string            `json:"store_error,omitempty"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Notes         *model.NoteStats  `json:"notes,omitempty"`
	System        utils.SystemStats `json:"system"`
}

func NewHealthHandler(store NoteStore, storeName string) *HealthHandler {
	return &HealthHandler{
		store:     store,
		storeName: storeName,
		startedAt: time.Now(),
	}
}

// GetHealth reports store reachability and process figures; 503 when the store is down.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:        "ok",
		Store:         h.storeName,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		System:        utils.GetSystemStats(0),
	}

	if err := h.store.Ping(ctx); err != nil {
		log.Ctx(c.Request.Context()).Warn().Err(err).Str("store", h.storeName).Msg("store ping failed")
		resp.Status = "unavailable"
		resp.StoreError = err.Error()
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	stats, err := h.store.Stats(ctx)
	if err != nil {
		log.Ctx(c.Request.Context()).Warn().Err(err).Msg("note stats failed")
	} else {
		resp.Notes = stats
	}

	c.JSON(http.StatusOK, resp)
}
