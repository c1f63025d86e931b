package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/noah-isme/backend-irnby/internal/common"
	"github.com/noah-isme/backend-irnby/internal/order"
)

func TestOrderConfirmedSendsRussianCopy(t *testing.T) {
	mail := &common.InMemoryEmail{}
	n := &EmailNotifier{Mail: mail, Enabled: true}

	err := n.OrderConfirmed(context.Background(), order.Purchase{
		OrderID:       "cs_test_1",
		CustomerEmail: "buyer@example.com",
		CustomerName:  "Анна",
		Description:   "Пакет из 3 курсов",
		Amount:        812500,
		Currency:      "rub",
	})
	if err != nil {
		t.Fatalf("OrderConfirmed: %v", err)
	}
	if len(mail.Outbox) != 1 {
		t.Fatalf("outbox = %d, want 1", len(mail.Outbox))
	}
	msg := mail.Outbox[0]
	if msg.To != "buyer@example.com" {
		t.Fatalf("To = %q", msg.To)
	}
	if msg.Subject != "Подтверждение заказа #cs_test_1" {
		t.Fatalf("Subject = %q", msg.Subject)
	}
	for _, want := range []string{"Анна", "Пакет из 3 курсов", "8125.00 RUB", "cs_test_1"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestOrderConfirmedDisabledIsNoop(t *testing.T) {
	mail := &common.InMemoryEmail{}
	n := &EmailNotifier{Mail: mail, Enabled: false}
	if err := n.OrderConfirmed(context.Background(), order.Purchase{OrderID: "x", CustomerEmail: "a@b.c"}); err != nil {
		t.Fatalf("OrderConfirmed: %v", err)
	}
	if len(mail.Outbox) != 0 {
		t.Fatalf("outbox = %d, want 0", len(mail.Outbox))
	}
}

func TestOrderConfirmedSkipsMissingEmail(t *testing.T) {
	mail := &common.InMemoryEmail{}
	n := &EmailNotifier{Mail: mail, Enabled: true}
	if err := n.OrderConfirmed(context.Background(), order.Purchase{OrderID: "x"}); err != nil {
		t.Fatalf("OrderConfirmed: %v", err)
	}
	if len(mail.Outbox) != 0 {
		t.Fatalf("outbox = %d, want 0", len(mail.Outbox))
	}
}
