package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"solana-payment-gateway/internal/core/domain"
	"solana-payment-gateway/internal/core/ports"
	"solana-payment-gateway/internal/metrics"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const confirmPath = "/solana-payment/confirm"

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NotifierConfig configures delivery to the credits backend.
type NotifierConfig struct {
	BaseURL       string
	Timeout       time.Duration // per attempt
	RetryAttempts uint
	RetryDelay    time.Duration
	Signer        *RequestSigner // nil sends unsigned requests
}

// RejectedError is returned when the backend answers but refuses the
// confirmation. It is not retried.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("backend rejected confirmation (status %d): %s", e.Status, e.Message)
}

// confirmResponse is the backend's envelope.
type confirmResponse struct {
	Success bool                        `json:"success"`
	Message string                      `json:"message"`
	Data    *domain.ConfirmationReceipt `json:"data"`
}

// BackendNotifier implements ports.Notifier.
type BackendNotifier struct {
	cfg        NotifierConfig
	tokens     ports.TokenService
	httpClient HTTPClient
	metrics    *metrics.PaymentMetrics
	log        zerolog.Logger
}

// NewBackendNotifier creates a new BackendNotifier.
func NewBackendNotifier(cfg NotifierConfig, tokens ports.TokenService, httpClient HTTPClient, m *metrics.PaymentMetrics, log zerolog.Logger) *BackendNotifier {
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 1
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &BackendNotifier{
		cfg:        cfg,
		tokens:     tokens,
		httpClient: httpClient,
		metrics:    m,
		log:        log,
	}
}

// NotifyConfirmation posts {reference, signature} on behalf of userID.
// Transport errors and 5xx answers are retried; a refusal is returned as *RejectedError.
func (n *BackendNotifier) NotifyConfirmation(ctx context.Context, userID uuid.UUID, c domain.Confirmation) (*domain.ConfirmationReceipt, error) {
	token, _, err := n.tokens.Generate(userID, "")
	if err != nil {
		return nil, fmt.Errorf("minting backend token: %w", err)
	}
	body, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal confirmation: %w", err)
	}

	var receipt *domain.ConfirmationReceipt
	attempt := 0
	err = retry.Do(func() error {
		attempt++
		r, err := n.post(ctx, token, body)
		if err != nil {
			n.log.Warn().Err(err).Str("reference", c.Reference).Int("attempt", attempt).Msg("notifier: delivery failed")
			return err
		}
		receipt = r
		return nil
	},
		retry.Attempts(n.cfg.RetryAttempts),
		retry.Delay(n.cfg.RetryDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var rejected *RejectedError
			return !errors.As(err, &rejected)
		}),
	)

	var rejected *RejectedError
	switch {
	case err == nil:
		n.metrics.Notification("ok")
		n.log.Info().Str("reference", c.Reference).Str("signature", c.Signature).Int("attempt", attempt).Msg("notifier: confirmation delivered")
		return receipt, nil
	case errors.As(err, &rejected):
		n.metrics.Notification("rejected")
		return nil, err
	default:
		n.metrics.Notification("error")
		return nil, fmt.Errorf("notify backend after %d attempts: %w", attempt, err)
	}
}

func (n *BackendNotifier) post(ctx context.Context, token string, body []byte) (*domain.ConfirmationReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.BaseURL+confirmPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if n.cfg.Signer != nil {
		n.cfg.Signer.SignRequest(req, body)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("backend status %d", resp.StatusCode)
	}

	var env confirmResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &RejectedError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &RejectedError{Status: resp.StatusCode, Message: msg}
	}
	return env.Data, nil
}
