package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/caja-service/pkg/circuitbreaker"
)

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

type Paths struct {
	Recognition string
	Clients     string
	Ticket      string
	Invoice     string
	BlankClient string
}

func DefaultPaths() Paths {
	return Paths{
		Recognition: "/api/last_recognized",
		Clients:     "/api/clients",
		Ticket:      "/api/factura",
		Invoice:     "/api/invoices",
		BlankClient: "/api/clients/blank",
	}
}

type Client struct {
	baseURL string
	paths   Paths
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *zap.Logger
}

type Option func(*Client)

func WithPaths(p Paths) Option {
	return func(c *Client) { c.paths = p }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithBreaker(cfg circuitbreaker.Config) Option {
	return func(c *Client) {
		c.breaker = circuitbreaker.New[*http.Response]("backend", cfg, c.logger)
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a backend client. timeout bounds every outbound call.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		paths:   DefaultPaths(),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = circuitbreaker.New[*http.Response]("backend", circuitbreaker.DefaultConfig(), c.logger)
	}
	return c
}

// LastRecognized asks the recognition endpoint for the latest match.
func (c *Client) LastRecognized(ctx context.Context) (*RecognitionResponse, error) {
	var out RecognitionResponse
	if err := c.call(ctx, http.MethodGet, c.paths.Recognition, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetClient looks a customer up by document number. A 404 yields ErrCustomerNotFound.
func (c *Client) GetClient(ctx context.Context, documentNumber string) (*ClientRecord, error) {
	path := c.paths.Clients + "/" + url.PathEscape(documentNumber)

	var out ClientRecord
	err := c.call(ctx, http.MethodGet, path, nil, &out)
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitTicket(ctx context.Context, req *TicketRequest) (*TicketResponse, error) {
	var out TicketResponse
	if err := c.call(ctx, http.MethodPost, c.paths.Ticket, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitInvoice(ctx context.Context, req *InvoiceRequest) (*InvoiceResponse, error) {
	var out InvoiceResponse
	if err := c.call(ctx, http.MethodPost, c.paths.Invoice, req, &out); err != nil {
		return nil, err
	}
	if out.InvoiceID == "" || out.CUFE == "" {
		return nil, fmt.Errorf("invoice response without identifiers: invoiceId=%q cufe=%q", out.InvoiceID, out.CUFE)
	}
	return &out, nil
}

// CreateBlankClient registers an empty client record for a walk-in customer.
func (c *Client) CreateBlankClient(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, c.paths.BlankClient, struct{}{}, nil)
}

// Ready fails while the breaker is open.
func (c *Client) Ready(context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return ErrBackendUnavailable
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request failed: %w", err)
		}
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.send(ctx, method, path, payload)
	})
	if circuitbreaker.IsOpen(err) {
		return fmt.Errorf("%w: %s %s: %w", ErrBackendUnavailable, method, path, err)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response failed: %w", method, path, err)
	}
	return nil
}

// send performs one round trip. Transport errors and 5xx count against the breaker, 4xx does not.
func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 500 {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var body errorBody
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}
