// Package ml provides HTTP clients for the external machine-learning services:
// transaction categorization, anomaly detection, and expense forecasting.
package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrDisabled is returned when a service has no URL configured.
var ErrDisabled = errors.New("ml service not configured")

// dateLayout is the date format the ML services expect.
const dateLayout = "2006-01-02"

// endpoint is a single JSON-over-HTTP service.
type endpoint struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func newEndpoint(url, apiKey string, httpClient *http.Client) endpoint {
	return endpoint{
		url:        strings.TrimRight(url, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// post sends body as JSON and decodes a 2xx JSON response into out.
func (e endpoint) post(ctx context.Context, op string, body, out any) error {
	if e.url == "" {
		return ErrDisabled
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("X-API-Key", e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", op, err)
	}
	return nil
}

// Prediction is a category suggested by the categorization service.
type Prediction struct {
	Category   string  `json:"predicted_category"`
	Confidence float64 `json:"confidence"`
}

// CategorizerClient talks to the categorization service.
type CategorizerClient struct {
	endpoint
}

// NewCategorizerClient creates a categorization client. An empty url disables it.
func NewCategorizerClient(url string, httpClient *http.Client) *CategorizerClient {
	return &CategorizerClient{endpoint: newEndpoint(url, "", httpClient)}
}

// Categorize predicts a category for a transaction description and amount.
func (c *CategorizerClient) Categorize(ctx context.Context, description string, amount decimal.Decimal) (*Prediction, error) {
	body := struct {
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	}{Description: description, Amount: amount.InexactFloat64()}

	var result Prediction
	if err := c.post(ctx, "categorizing transaction", body, &result); err != nil {
		return nil, err
	}
	if result.Category == "" {
		return nil, fmt.Errorf("categorizing transaction: empty predicted_category")
	}
	return &result, nil
}

// AnomalyInput describes one transaction sent for anomaly detection.
type AnomalyInput struct {
	ID          uint
	Date        time.Time
	Description string
	Amount      decimal.Decimal
}

// AnomalyClient talks to the anomaly-detection service.
type AnomalyClient struct {
	endpoint
}

// NewAnomalyClient creates an anomaly-detection client. An empty url disables it.
func NewAnomalyClient(url, apiKey string, httpClient *http.Client) *AnomalyClient {
	return &AnomalyClient{endpoint: newEndpoint(url, apiKey, httpClient)}
}

// Detect labels each transaction and returns the labels keyed by transaction ID.
func (c *AnomalyClient) Detect(ctx context.Context, items []AnomalyInput) (map[uint]string, error) {
	type wireItem struct {
		ID          uint    `json:"id"`
		Date        string  `json:"date"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	}
	body := struct {
		Transactions []wireItem `json:"transactions"`
	}{Transactions: make([]wireItem, len(items))}
	for i, it := range items {
		body.Transactions[i] = wireItem{
			ID:          it.ID,
			Date:        it.Date.Format(dateLayout),
			Description: it.Description,
			Amount:      it.Amount.InexactFloat64(),
		}
	}

	var result struct {
		Results []struct {
			ID    uint   `json:"id"`
			Label string `json:"label"`
		} `json:"results"`
	}
	if err := c.post(ctx, "detecting anomalies", body, &result); err != nil {
		return nil, err
	}

	labels := make(map[uint]string, len(result.Results))
	for _, r := range result.Results {
		labels[r.ID] = r.Label
	}
	return labels, nil
}

// ForecastClient talks to the expense-forecasting service.
type ForecastClient struct {
	endpoint
}

// NewForecastClient creates a forecasting client. An empty url disables it.
func NewForecastClient(url, apiKey string, httpClient *http.Client) *ForecastClient {
	return &ForecastClient{endpoint: newEndpoint(url, apiKey, httpClient)}
}

// ForecastNextExpense predicts the next expense from previous amounts in
// chronological order.
func (c *ForecastClient) ForecastNextExpense(ctx context.Context, previous []decimal.Decimal) (decimal.Decimal, error) {
	amounts := make([]float64, len(previous))
	for i, p := range previous {
		amounts[i] = p.InexactFloat64()
	}
	body := struct {
		PreviousExpenses []float64 `json:"previous_expenses"`
	}{PreviousExpenses: amounts}

	var result struct {
		PredictedExpense *decimal.Decimal `json:"predicted_expense"`
	}
	if err := c.post(ctx, "forecasting expense", body, &result); err != nil {
		return decimal.Zero, err
	}
	if result.PredictedExpense == nil {
		return decimal.Zero, fmt.Errorf("forecasting expense: missing predicted_expense")
	}
	return *result.PredictedExpense, nil
}
