package repository

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"minoj/internal/common/cache"
	"minoj/internal/judge/model"
	"minoj/pkg/utils/logger"
)

const (
	statusKeyPrefix = "judge:status:"
	statusTTL       = time.Hour
)

// StatusMirror keeps a redis copy of the live judging state so pollers can
// watch progress without hammering MySQL. The mirror is advisory: every write
// failure is logged and swallowed, because losing a progress update must
// never fail a judge job.
type StatusMirror struct {
	cache cache.Cache
}

// NewStatusMirror creates a status mirror over the given cache.
func NewStatusMirror(c cache.Cache) *StatusMirror {
	return &StatusMirror{cache: c}
}

// Publish writes the current live status for id.
func (m *StatusMirror) Publish(ctx context.Context, status *model.LiveStatus) {
	if m == nil || m.cache == nil {
		return
	}
	status.UpdatedAt = time.Now().Unix()
	payload, err := json.Marshal(status)
	if err != nil {
		logger.Warn(ctx, "marshal live status failed", zap.Error(err))
		return
	}
	if err := m.cache.Set(ctx, statusKeyPrefix+status.ID, payload, cache.JitterTTL(statusTTL)); err != nil {
		logger.Warn(ctx, "publish live status failed",
			zap.String("id", status.ID), zap.Error(err))
	}
}

// Get returns the live status for id, or nil when none is mirrored.
func (m *StatusMirror) Get(ctx context.Context, id string) (*model.LiveStatus, error) {
	if m == nil || m.cache == nil {
		return nil, nil
	}
	raw, err := m.cache.Get(ctx, statusKeyPrefix+id)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	status := &model.LiveStatus{}
	if err := json.Unmarshal([]byte(raw), status); err != nil {
		return nil, err
	}
	return status, nil
}

// Clear drops the mirrored status for id.
func (m *StatusMirror) Clear(ctx context.Context, id string) {
	if m == nil || m.cache == nil {
		return
	}
	if err := m.cache.Del(ctx, statusKeyPrefix+id); err != nil {
		logger.Warn(ctx, "clear live status failed", zap.String("id", id), zap.Error(err))
	}
}
