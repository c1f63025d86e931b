package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/backend-irnby/internal/resilience"
)

const defaultStripeBaseURL = "https://api.stripe.com"

// signatureTolerance bounds how old a webhook timestamp may be before the
// payload is rejected as a potential replay.
const signatureTolerance = 5 * time.Minute

// StripeProvider creates hosted checkout sessions via the Stripe REST API and
// verifies webhook signatures in Stripe's t/v1 scheme.
type StripeProvider struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	client        *resilience.HTTPClient
	now           func() time.Time
}

// NewStripeProvider builds a provider. client may be nil, in which case a
// default resilient client is used.
func NewStripeProvider(secretKey, webhookSecret, baseURL string, client *resilience.HTTPClient) *StripeProvider {
	if baseURL == "" {
		baseURL = defaultStripeBaseURL
	}
	if client == nil {
		client = resilience.NewHTTPClient(nil, nil, 3, 200*time.Millisecond, 0.2)
	}
	return &StripeProvider{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       strings.TrimRight(baseURL, "/"),
		client:        client,
		now:           time.Now,
	}
}

// CreateSession posts a form-encoded checkout session request.
func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	if p.secretKey == "" {
		return Session{}, ErrNotConfigured
	}
	if len(req.LineItems) == 0 {
		return Session{}, fmt.Errorf("payment: session requires at least one line item")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	if req.CustomerEmail != "" {
		form.Set("customer_email", req.CustomerEmail)
	}
	if req.ClientReferenceID != "" {
		form.Set("client_reference_id", req.ClientReferenceID)
	}
	for i, li := range req.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", strings.ToLower(req.Currency))
		form.Set(prefix+"[price_data][product_data][name]", li.Name)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(li.UnitAmount, 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(li.Quantity))
	}
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return Session{}, fmt.Errorf("payment: build session request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Session{}, fmt.Errorf("payment: create session: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Session{}, fmt.Errorf("payment: read session response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Session{}, fmt.Errorf("payment: create session: provider returned %d: %s",
			resp.StatusCode, truncate(raw, 256))
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("payment: decode session response: %w", err)
	}
	if s.ID == "" || s.URL == "" {
		return Session{}, fmt.Errorf("payment: provider response missing session id or url")
	}
	return s, nil
}

// VerifyWebhook checks the Stripe-Signature header (t=<ts>,v1=<hmac>) against
// an HMAC-SHA256 of "<ts>.<body>" keyed with the webhook secret.
func (p *StripeProvider) VerifyWebhook(header http.Header, body []byte) (Event, error) {
	if p.webhookSecret == "" {
		return Event{}, ErrNotConfigured
	}
	ts, sigs, err := parseSignatureHeader(header.Get("Stripe-Signature"))
	if err != nil {
		return Event{}, err
	}

	at := time.Unix(ts, 0)
	if d := p.now().Sub(at); d > signatureTolerance || d < -signatureTolerance {
		return Event{}, fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(p.webhookSecret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := mac.Sum(nil)

	ok := false
	for _, sig := range sigs {
		got, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, got) {
			ok = true
			break
		}
	}
	if !ok {
		return Event{}, ErrInvalidSignature
	}

	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("payment: decode webhook event: %w", err)
	}
	return ev, nil
}

func parseSignatureHeader(raw string) (ts int64, v1 []string, err error) {
	if raw == "" {
		return 0, nil, fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}
	for _, part := range strings.Split(raw, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
		case "v1":
			v1 = append(v1, v)
		}
	}
	if ts == 0 || len(v1) == 0 {
		return 0, nil, fmt.Errorf("%w: malformed signature header", ErrInvalidSignature)
	}
	return ts, v1, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
