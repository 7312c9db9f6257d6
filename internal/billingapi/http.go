package billingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmynk/billpay/internal/models"
)

// DefaultTimeout bounds a single billing API call when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 512

// Config holds the billing API connection settings.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)

// HTTPClient is the REST implementation of Client. It does not retry.
type HTTPClient struct {
	baseURL    *url.URL
	username   string
	password   string
	httpClient *http.Client
}

// NewHTTPClient validates cfg and creates a client.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("billing api base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid billing api base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid billing api base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &HTTPClient{
		baseURL:  base,
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SubmitPayment posts a payment request to /billPayment.
func (c *HTTPClient) SubmitPayment(ctx context.Context, submission Submission) (models.PaymentReceipt, error) {
	const op = "submit payment"

	var receipt wireReceipt
	if err := c.do(ctx, op, http.MethodPost, "billPayment", nil, toWirePayment(submission), &receipt); err != nil {
		return models.PaymentReceipt{}, err
	}

	result, err := receipt.toModel()
	if err != nil {
		return models.PaymentReceipt{}, &Error{Kind: KindDecode, Op: op, Err: err}
	}

	slog.Debug("Billing API accepted payment",
		"consommation_id", submission.Request.ConsommationID,
		"bill_payment_id", result.BillPaymentID,
		"amount", submission.Request.Amount.String(),
	)
	return result, nil
}

// FetchItemsForConsommation lists /patientServiceBill?consommationId=.
func (c *HTTPClient) FetchItemsForConsommation(ctx context.Context, consommationID string) ([]models.BillItem, error) {
	const op = "fetch bill items"

	var res wireResults[wireBillItem]
	query := url.Values{"consommationId": {consommationID}}
	if err := c.do(ctx, op, http.MethodGet, "patientServiceBill", query, nil, &res); err != nil {
		return nil, err
	}

	items := make([]models.BillItem, 0, len(res.Results))
	for _, w := range res.Results {
		item, err := w.toModel(consommationID)
		if err != nil {
			return nil, &Error{Kind: KindDecode, Op: op, Err: err}
		}
		items = append(items, item)
	}
	return items, nil
}

// FetchConsommation gets /consommation/{id}.
func (c *HTTPClient) FetchConsommation(ctx context.Context, consommationID string) (models.Consommation, error) {
	const op = "fetch consommation"

	var w wireConsommation
	if err := c.do(ctx, op, http.MethodGet, "consommation/"+consommationID, nil, nil, &w); err != nil {
		return models.Consommation{}, err
	}

	cons, err := w.toModel()
	if err != nil {
		return models.Consommation{}, &Error{Kind: KindDecode, Op: op, Err: err}
	}
	return cons, nil
}

// FetchConsommationsByGlobalBill lists /consommation?globalBillId=.
func (c *HTTPClient) FetchConsommationsByGlobalBill(ctx context.Context, globalBillID string) ([]models.Consommation, error) {
	const op = "fetch global bill consommations"

	var res wireResults[wireConsommation]
	query := url.Values{"globalBillId": {globalBillID}}
	if err := c.do(ctx, op, http.MethodGet, "consommation", query, nil, &res); err != nil {
		return nil, err
	}

	out := make([]models.Consommation, 0, len(res.Results))
	for _, w := range res.Results {
		cons, err := w.toModel()
		if err != nil {
			return nil, &Error{Kind: KindDecode, Op: op, Err: err}
		}
		if cons.GlobalBillID == "" {
			cons.GlobalBillID = globalBillID
		}
		out = append(out, cons)
	}
	return out, nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindDecode, Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			Kind:       KindHTTPStatus,
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindDecode, Op: op, Err: err}
	}
	return nil
}
