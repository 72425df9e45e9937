// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// ReactionToggles counts reaction toggles by target (post, comment) and action (added, updated, removed).
	ReactionToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialapp_reaction_toggles_total",
		Help: "Total number of reaction toggles by target and action",
	}, []string{"target", "action"})

	// OrderUpdates counts admin order mutations by field and result.
	OrderUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialapp_order_updates_total",
		Help: "Total number of admin order updates by field and result",
	}, []string{"field", "result"})

	// NotificationsSent counts notifications by type and delivery outcome.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialapp_notifications_total",
		Help: "Total number of notifications by type and outcome",
	}, []string{"type", "outcome"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialapp_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialapp_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ActiveWebSockets is the gauge of open notification sockets.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "socialapp_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialapp_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

const queryStartKey = "observability:query_start"

// RegisterQueryMetrics hooks GORM callbacks so every statement is observed
// in DatabaseQueryLatency.
func RegisterQueryMetrics(db *gorm.DB) error {
	start := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	observe := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			began, ok := v.(time.Time)
			if !ok {
				return
			}
			DatabaseQueryLatency.WithLabelValues(operation, tx.Statement.Table).Observe(time.Since(began).Seconds())
		}
	}

	cb := db.Callback()
	hooks := []struct {
		op     string
		before func(name string, fn func(*gorm.DB)) error
		after  func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("metrics:before_"+h.op, start); err != nil {
			return err
		}
		if err := h.after("metrics:after_"+h.op, observe(h.op)); err != nil {
			return err
		}
	}
	return nil
}
