package payment

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrNotConfigured is returned when the payment provider credentials are
	// missing and an operation that needs them is attempted.
	ErrNotConfigured = errors.New("payment: provider not configured")
	// ErrInvalidSignature is returned when a webhook payload fails
	// signature verification.
	ErrInvalidSignature = errors.New("payment: invalid webhook signature")
)

// LineItem is one purchasable row in a hosted checkout session. UnitAmount is
// in minor currency units (kopecks for RUB).
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int
}

// SessionRequest carries everything needed to open a hosted checkout session.
type SessionRequest struct {
	Currency          string
	SuccessURL        string
	CancelURL         string
	CustomerEmail     string
	ClientReferenceID string
	Metadata          map[string]string
	LineItems         []LineItem
}

// Session is the provider's handle for a created checkout session. URL is
// where the buyer must be redirected to complete payment.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CustomerDetails mirrors the customer block the provider attaches to a
// completed session.
type CustomerDetails struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CheckoutSession is the session object embedded in webhook events.
type CheckoutSession struct {
	ID                string            `json:"id"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
	CustomerDetails   CustomerDetails   `json:"customer_details"`
}

// Event is a verified webhook notification.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}

// Provider abstracts the hosted payment gateway.
type Provider interface {
	// CreateSession opens a hosted checkout session and returns its id and
	// redirect URL.
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
	// VerifyWebhook authenticates the raw webhook body against the request
	// headers and decodes the event. It returns ErrInvalidSignature when
	// the payload cannot be trusted.
	VerifyWebhook(header http.Header, body []byte) (Event, error)
}
