package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-irnby/internal/common"
	"github.com/noah-isme/backend-irnby/internal/order"
)

// EmailNotifier sends order confirmation emails to buyers. When disabled it
// is a no-op, which lets checkout run in environments without a mail sender.
type EmailNotifier struct {
	Mail    common.EmailSender
	Enabled bool
	From    string
}

// OrderConfirmed implements order.Notifier.
func (n *EmailNotifier) OrderConfirmed(_ context.Context, p order.Purchase) error {
	if !n.Enabled || n.Mail == nil {
		return nil
	}
	if p.CustomerEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("Подтверждение заказа #%s", p.OrderID)
	body := confirmationBody(p)
	if err := n.Mail.Send(p.CustomerEmail, subject, body); err != nil {
		return fmt.Errorf("notify: send confirmation for order %s: %w", p.OrderID, err)
	}
	return nil
}

func confirmationBody(p order.Purchase) string {
	var b strings.Builder
	name := p.CustomerName
	if name == "" {
		name = "покупатель"
	}
	fmt.Fprintf(&b, "Здравствуйте, %s!\n\n", name)
	b.WriteString("Спасибо за покупку! Ваш заказ успешно оплачен.\n\n")
	fmt.Fprintf(&b, "Номер заказа: %s\n", p.OrderID)
	if p.Description != "" {
		fmt.Fprintf(&b, "Состав заказа: %s\n", p.Description)
	} else if len(p.CourseIDs) == 1 {
		fmt.Fprintf(&b, "Курс: %s\n", p.CourseIDs[0])
	}
	fmt.Fprintf(&b, "Сумма: %s %s\n\n", formatAmount(p.Amount), strings.ToUpper(p.Currency))
	b.WriteString("Доступ к курсам уже открыт в вашем личном кабинете.\n\n")
	b.WriteString("С уважением,\nкоманда IRNBY TRAINING CLUB")
	return b.String()
}

// formatAmount renders a minor-unit amount as whole units with two decimals.
func formatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// LogEmailSender writes outgoing mail to the log instead of delivering it.
// Useful for local development and staging.
type LogEmailSender struct {
	Logger zerolog.Logger
}

func (l *LogEmailSender) Send(to, subject, body string) error {
	l.Logger.Info().
		Str("to", to).
		Str("subject", subject).
		Int("body_bytes", len(body)).
		Msg("email suppressed (log sender)")
	return nil
}
