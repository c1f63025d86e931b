package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-irnby/internal/order"
)

func newWebhookHandler(t *testing.T) (*WebhookHandler, *StripeProvider, *order.Service) {
	t.Helper()
	p := NewStripeProvider("sk_test", "whsec_test", "", nil)
	orders := order.NewService()
	h := &WebhookHandler{Provider: p, Orders: orders, Logger: zerolog.Nop()}
	return h, p, orders
}

func postWebhook(h *WebhookHandler, body string, sign bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(body))
	if sign {
		req.Header.Set("Stripe-Signature", signBody("whsec_test", time.Now().Unix(), []byte(body)))
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestWebhookRejectsUnsignedPayload(t *testing.T) {
	h, _, orders := newWebhookHandler(t)
	body := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`

	rec := postWebhook(h, body, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if _, found := orders.Get("cs_1"); found {
		t.Fatalf("order recorded despite failed verification")
	}
}

func TestWebhookCompletedSessionRecordsOrder(t *testing.T) {
	h, _, orders := newWebhookHandler(t)
	body := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{
		"id":"cs_1","amount_total":812500,"currency":"rub","client_reference_id":"user-1",
		"metadata":{"courseId":"zhiroszhiganie1,dlya-zala1,rastyazhka","courseBundle":"Пакет из 3 курсов","discount":"10%"},
		"customer_details":{"email":"buyer@example.com","name":"Анна"}}}}`

	rec := postWebhook(h, body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["received"] != true {
		t.Fatalf("response = %v, want received:true", resp)
	}

	p, found := orders.Get("cs_1")
	if !found {
		t.Fatalf("order not recorded")
	}
	if p.UserID != "user-1" || p.CustomerEmail != "buyer@example.com" {
		t.Fatalf("purchase = %+v", p)
	}
	if len(p.CourseIDs) != 3 || p.CourseIDs[2] != "rastyazhka" {
		t.Fatalf("CourseIDs = %v", p.CourseIDs)
	}
	if p.Amount != 812500 {
		t.Fatalf("Amount = %d", p.Amount)
	}
}

func TestWebhookDuplicateDeliveryAcknowledged(t *testing.T) {
	h, _, _ := newWebhookHandler(t)
	body := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_dup","amount_total":100}}}`

	if rec := postWebhook(h, body, true); rec.Code != http.StatusOK {
		t.Fatalf("first delivery status = %d", rec.Code)
	}
	rec := postWebhook(h, body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("replay status = %d, want 200", rec.Code)
	}
}

func TestWebhookUnknownEventTypeAcknowledged(t *testing.T) {
	h, _, _ := newWebhookHandler(t)
	body := `{"id":"evt_9","type":"customer.created","data":{"object":{}}}`

	rec := postWebhook(h, body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestWebhookPaymentIntentEventsAcknowledged(t *testing.T) {
	h, _, orders := newWebhookHandler(t)
	for _, typ := range []string{"payment_intent.succeeded", "payment_intent.payment_failed"} {
		body := `{"id":"evt_pi","type":"` + typ + `","data":{"object":{"id":"pi_1"}}}`
		rec := postWebhook(h, body, true)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", typ, rec.Code)
		}
	}
	// payment intent events never create ledger entries
	if _, found := orders.Get("pi_1"); found {
		t.Fatalf("payment intent event created an order")
	}
}

type failingNotifier struct{}

func (failingNotifier) OrderConfirmed(context.Context, order.Purchase) error {
	return context.DeadlineExceeded
}

func TestWebhookAcknowledgesWhenNotificationFails(t *testing.T) {
	p := NewStripeProvider("sk_test", "whsec_test", "", nil)
	orders := order.NewService(failingNotifier{})
	h := &WebhookHandler{Provider: p, Orders: orders, Logger: zerolog.Nop()}

	body := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_notify"}}}`
	rec := postWebhook(h, body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite notifier failure", rec.Code)
	}
	if _, found := orders.Get("cs_notify"); !found {
		t.Fatalf("order missing from ledger")
	}
}
