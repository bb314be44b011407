package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"harvest-settlement/internal/core/domain"
	"harvest-settlement/pkg/apperror"
	"harvest-settlement/pkg/logger"

	"github.com/rs/zerolog"
)

const maxProviderResponseBytes = 1 << 20

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// PayMongoClient implements ports.PaymentProvider against the PayMongo REST API.
type PayMongoClient struct {
	baseURL    string
	secretKey  string
	timeout    time.Duration
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewPayMongoClient creates a provider client. A nil httpClient gets an http.Client bounded by timeout.
func NewPayMongoClient(baseURL, secretKey string, timeout time.Duration, httpClient HTTPClient, log zerolog.Logger) *PayMongoClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &PayMongoClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		timeout:    timeout,
		httpClient: httpClient,
		log:        log,
	}
}

type createPaymentRequest struct {
	Data struct {
		Attributes createPaymentAttributes `json:"attributes"`
	} `json:"data"`
}

type createPaymentAttributes struct {
	Amount      int64                `json:"amount"`
	Currency    string               `json:"currency"`
	Description string               `json:"description,omitempty"`
	Source      paymentSource        `json:"source"`
	Metadata    domain.EventMetadata `json:"metadata,omitempty"`
}

type paymentSource struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type paymentResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Status string `json:"status"`
		} `json:"attributes"`
	} `json:"data"`
}

type providerErrorResponse struct {
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// CreatePayment turns a chargeable source into a payment.
func (c *PayMongoClient) CreatePayment(ctx context.Context, req domain.ChargeRequest) (*domain.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body createPaymentRequest
	body.Data.Attributes = createPaymentAttributes{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		Source:      paymentSource{ID: req.SourceID, Type: "source"},
		Metadata:    req.Metadata,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperror.ErrProviderRequest(fmt.Errorf("marshal payment: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, apperror.ErrProviderRequest(fmt.Errorf("build request: %w", err))
	}
	httpReq.SetBasicAuth(c.secretKey, "")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, apperror.ErrProviderTimeout(err)
		}
		return nil, apperror.ErrProviderRequest(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, apperror.ErrProviderTimeout(err)
		}
		return nil, apperror.ErrProviderRequest(fmt.Errorf("read response: %w", err))
	}

	log := logger.FromContext(ctx, c.log)
	log.Debug().
		Str("source_id", req.SourceID).
		Int("http_status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("provider create payment")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperror.ErrProviderRequest(fmt.Errorf("status %d: %s", resp.StatusCode, providerErrorDetail(raw)))
	}

	var parsed paymentResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, apperror.ErrProviderRequest(fmt.Errorf("decode response: %w", err))
	}

	return &domain.Payment{
		ID:     parsed.Data.ID,
		Status: parsed.Data.Attributes.Status,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func providerErrorDetail(raw []byte) string {
	var perr providerErrorResponse
	if err := json.Unmarshal(raw, &perr); err == nil && len(perr.Errors) > 0 {
		return perr.Errors[0].Code + ": " + perr.Errors[0].Detail
	}
	if len(raw) > 200 {
		raw = raw[:200]
	}
	return string(raw)
}
