package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-irnby/internal/common"
	"github.com/noah-isme/backend-irnby/internal/obs"
	"github.com/noah-isme/backend-irnby/internal/order"
)

// maxWebhookBody caps how much of a webhook payload is read.
const maxWebhookBody = 1 << 20

// Recorder is the slice of the order service the webhook needs.
type Recorder interface {
	Record(ctx context.Context, p order.Purchase) (bool, error)
}

// WebhookHandler verifies and dispatches payment provider notifications.
type WebhookHandler struct {
	Provider Provider
	Orders   Recorder
	Logger   zerolog.Logger
}

// Handle processes POST /webhooks/stripe. Unverifiable payloads are rejected
// with 400 before any state changes; everything that verifies is acknowledged
// with 200 so the provider stops retrying, even for event types we ignore.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_PAYLOAD", "unable to read request body", nil)
		return
	}

	ev, err := h.Provider.VerifyWebhook(r.Header, body)
	if err != nil {
		h.Logger.Warn().
			Err(err).
			Str("body_sha256", bodyDigest(body)).
			Msg("webhook signature verification failed")
		countWebhook("unknown", "rejected")
		common.JSONError(w, http.StatusBadRequest, "INVALID_SIGNATURE", "webhook signature verification failed", nil)
		return
	}

	switch ev.Type {
	case "checkout.session.completed":
		h.handleCompleted(r.Context(), ev)
	case "payment_intent.succeeded":
		h.Logger.Info().Str("event_id", ev.ID).Msg("payment intent succeeded")
		countWebhook(ev.Type, "ok")
	case "payment_intent.payment_failed":
		h.Logger.Warn().Str("event_id", ev.ID).Msg("payment intent failed")
		countWebhook(ev.Type, "ok")
	default:
		h.Logger.Debug().Str("event_id", ev.ID).Str("type", ev.Type).Msg("unhandled webhook event type")
		countWebhook(ev.Type, "ignored")
	}

	common.JSON(w, http.StatusOK, map[string]any{"received": true})
}

func (h *WebhookHandler) handleCompleted(ctx context.Context, ev Event) {
	sess := ev.Data.Object
	p := order.Purchase{
		OrderID:       sess.ID,
		UserID:        sess.ClientReferenceID,
		CustomerEmail: sess.CustomerDetails.Email,
		CustomerName:  sess.CustomerDetails.Name,
		CourseIDs:     splitCourseIDs(sess.Metadata["courseId"]),
		Description:   sess.Metadata["courseBundle"],
		Amount:        sess.AmountTotal,
		Currency:      sess.Currency,
	}

	created, err := h.Orders.Record(ctx, p)
	if err != nil {
		// The order is already stored when only notification failed, so
		// we still acknowledge the event rather than trigger a retry
		// storm from the provider.
		h.Logger.Error().
			Err(err).
			Str("order_id", sess.ID).
			Msg("order confirmation side effects failed")
		countWebhook(ev.Type, "error")
		return
	}
	if !created {
		h.Logger.Info().Str("order_id", sess.ID).Msg("duplicate webhook delivery ignored")
		countWebhook(ev.Type, "duplicate")
		return
	}

	h.Logger.Info().
		Str("order_id", sess.ID).
		Str("user_id", p.UserID).
		Int64("amount", sess.AmountTotal).
		Str("currency", sess.Currency).
		Msg("order recorded")
	if obs.OrdersRecordedTotal != nil {
		obs.OrdersRecordedTotal.Inc()
	}
	countWebhook(ev.Type, "ok")
}

// bodyDigest fingerprints a rejected payload for log correlation without
// logging the payload itself.
func bodyDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func countWebhook(eventType, result string) {
	if obs.PaymentWebhookTotal != nil {
		obs.PaymentWebhookTotal.WithLabelValues(eventType, result).Inc()
	}
}

func splitCourseIDs(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var _ Recorder = (*order.Service)(nil)
