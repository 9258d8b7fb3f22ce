// Package middleware contains shared Gin middleware used by the webhook
// transport layer.
//
// This file implements delivery deduplication. Webhook senders retry
// deliveries that were not acknowledged in time, so the same update can
// arrive more than once. The dedup layer answers retransmissions with a
// cheap 200 before any state-changing work runs, which keeps every
// conversational operation effectively once-per-update.
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ctxKeyRateBypass marks a request as a replay so the rate limiter lets it
// through without consuming tokens.
const ctxKeyRateBypass = "rateBypass"

// maxDedupPeekBytes caps how much of the body the dedup layer will read
// while extracting the delivery identity.
const maxDedupPeekBytes = 1 << 20

// SeenFunc reports whether the (group, update) pair was already delivered.
type SeenFunc func(ctx context.Context, groupID, updateID int64) (bool, error)

// RecordFunc remembers a processed (group, update) pair.
type RecordFunc func(ctx context.Context, groupID, updateID int64) error

// deliveryProbe is the minimal envelope needed to identify a delivery.
type deliveryProbe struct {
	UpdateID int64 `json:"update_id"`
	GroupID  int64 `json:"group_id"`
}

// DeliveryDedup returns a Gin middleware that drops retransmitted webhook
// deliveries.
//
// Behavior:
//   - Requests without a parsable delivery identity pass through untouched.
//   - Known (group, update) pairs are answered immediately with
//     {"status": "duplicate"} and HTTP 200, so the sender stops retrying.
//   - New pairs proceed; the pair is recorded after the handler finishes
//     with a non-5xx status, so failed deliveries stay retryable.
//   - Lookup errors fail open: a processed duplicate is preferable to a
//     dropped first delivery.
//
// The middleware re-buffers the request body so downstream binding sees the
// full payload.
func DeliveryDedup(seen SeenFunc, record RecordFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || c.Request.Body == nil {
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDedupPeekBytes))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "bad_request",
				"message":    "unreadable request body",
			})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var probe deliveryProbe
		if err := json.Unmarshal(body, &probe); err != nil || probe.UpdateID == 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		dup, err := seen(ctx, probe.GroupID, probe.UpdateID)
		if err != nil {
			log.Error().Err(err).Int64("update_id", probe.UpdateID).Msg("delivery dedup lookup failed")
		}
		if dup {
			ObserveDuplicateDelivery()
			c.Set(ctxKeyRateBypass, true)
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"status": "duplicate"})
			return
		}

		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError {
			if err := record(ctx, probe.GroupID, probe.UpdateID); err != nil {
				log.Error().Err(err).Int64("update_id", probe.UpdateID).Msg("delivery dedup record failed")
			}
		}
	}
}
