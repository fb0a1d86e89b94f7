package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/config"
)

type HTTPClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(cfg config.ProviderConfig) *HTTPClient {
	return &HTTPClient{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

// Confirm uses the payment key as the idempotency key, so a repeated
// confirmation of the same payment is answered from the provider's record.
func (c *HTTPClient) Confirm(ctx context.Context, req application.ProviderConfirmRequest) (*application.ProviderConfirmResponse, error) {
	endpoint := fmt.Sprintf("%s/v1/payments/confirm", c.baseURL)
	return sendRequest[application.ProviderConfirmRequest, application.ProviderConfirmResponse](c, ctx, http.MethodPost, endpoint, &req, req.PaymentKey)
}

func (c *HTTPClient) Cancel(ctx context.Context, req application.ProviderCancelRequest) (*application.ProviderCancelResponse, error) {
	endpoint := fmt.Sprintf("%s/v1/payments/%s/cancel", c.baseURL, url.PathEscape(req.PaymentKey))
	return sendRequest[application.ProviderCancelRequest, application.ProviderCancelResponse](c, ctx, http.MethodPost, endpoint, &req, req.IdempotencyKey)
}

func sendRequest[Req any, Resp any](c *HTTPClient, ctx context.Context, method, endpoint string, reqBody *Req, idempotencyKey string) (*Resp, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	httpReq.SetBasicAuth(c.secretKey, "")
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &application.ProviderNetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Code == "" {
			return nil, &application.ProviderAPIError{
				StatusCode: resp.StatusCode,
				Code:       http.StatusText(resp.StatusCode),
				Message:    string(body),
			}
		}
		return nil, &application.ProviderAPIError{
			StatusCode: resp.StatusCode,
			Code:       errResp.Code,
			Message:    errResp.Message,
		}
	}

	var providerResp Resp
	if err := json.NewDecoder(resp.Body).Decode(&providerResp); err != nil {
		return nil, &application.ProviderNetworkError{Err: fmt.Errorf("error decoding json response: %w", err)}
	}

	return &providerResp, nil
}

var _ application.PaymentProvider = (*HTTPClient)(nil)
