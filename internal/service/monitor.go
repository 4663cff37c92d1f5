package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"solana-payment-gateway/internal/core/domain"
	"solana-payment-gateway/internal/core/ports"
	"solana-payment-gateway/internal/metrics"
	"solana-payment-gateway/pkg/apperror"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// MonitorConfig bounds one watch: MaxAttempts polls, Interval apart.
type MonitorConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// ChainMonitor implements ports.ReferenceWatcher by polling the ledger.
type ChainMonitor struct {
	ledger  ports.Ledger
	clock   clockwork.Clock
	cfg     MonitorConfig
	metrics *metrics.PaymentMetrics
	log     zerolog.Logger
}

// NewChainMonitor creates a new ChainMonitor.
func NewChainMonitor(ledger ports.Ledger, clock clockwork.Clock, cfg MonitorConfig, m *metrics.PaymentMetrics, log zerolog.Logger) *ChainMonitor {
	return &ChainMonitor{
		ledger:  ledger,
		clock:   clock,
		cfg:     cfg,
		metrics: m,
		log:     log,
	}
}

// Watch polls until the reference resolves, the budget runs out, or ctx is
// cancelled. The ticker is stopped before the single callback fires.
func (m *ChainMonitor) Watch(ctx context.Context, want domain.TransferExpectation, cb ports.MonitorCallbacks) domain.MonitorState {
	log := m.log.With().Str("reference", want.Reference.String()).Logger()

	m.metrics.WatchStarted()
	defer m.metrics.WatchStopped()

	ticker := m.clock.NewTicker(m.cfg.Interval)
	state := domain.MonitorPolling
	var once sync.Once

	finish := func(event domain.MonitorEvent, signature, message string) domain.MonitorState {
		ticker.Stop()
		next, err := domain.NextMonitorState(state, event)
		if err != nil {
			log.Error().Err(err).Msg("monitor: illegal transition")
			return state
		}
		state = next
		once.Do(func() {
			if state == domain.MonitorConfirmed {
				cb.OnConfirmed(signature)
				return
			}
			cb.OnFailed(state, message)
		})
		return state
	}

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			log.Info().Int("attempt", attempt).Msg("monitor: aborted")
			return finish(domain.EventAborted, "", apperror.ErrPaymentCancelled().Message)
		case <-ticker.Chan():
		}

		event, signature, err := m.poll(ctx, want)
		// A validated transfer is on chain; cancellation cannot undo it.
		if ctx.Err() != nil && event != domain.EventMatched {
			log.Info().Int("attempt", attempt).Msg("monitor: aborted during poll")
			return finish(domain.EventAborted, "", apperror.ErrPaymentCancelled().Message)
		}
		m.metrics.Poll(pollResult(event))

		switch event {
		case domain.EventNotFound:
			if attempt >= m.cfg.MaxAttempts {
				log.Warn().Int("attempts", attempt).Msg("monitor: budget exhausted")
				return finish(domain.EventBudgetExhausted, "", apperror.ErrPaymentTimeout().Message)
			}
			log.Debug().Int("attempt", attempt).Msg("monitor: reference not found yet")
		case domain.EventMatched:
			log.Info().Int("attempt", attempt).Str("signature", signature).Msg("monitor: payment confirmed")
			return finish(domain.EventMatched, signature, "")
		default:
			log.Warn().Err(err).Int("attempt", attempt).Str("signature", signature).Msg("monitor: validation failed")
			return finish(event, "", apperror.ErrValidationFailed(err).Message)
		}
	}
}

// poll runs one lookup. Both not-found conditions keep the monitor polling.
func (m *ChainMonitor) poll(ctx context.Context, want domain.TransferExpectation) (domain.MonitorEvent, string, error) {
	signature, err := m.ledger.FindReference(ctx, want.Reference)
	if errors.Is(err, domain.ErrReferenceNotFound) {
		return domain.EventNotFound, "", nil
	}
	if err != nil {
		return domain.EventLookupFailed, "", err
	}

	err = m.ledger.ValidateTransfer(ctx, signature, want)
	switch {
	case err == nil:
		return domain.EventMatched, signature, nil
	case errors.Is(err, domain.ErrTransactionNotFound):
		return domain.EventNotFound, signature, nil
	case errors.Is(err, domain.ErrTransferMismatch):
		return domain.EventRejected, signature, err
	default:
		return domain.EventLookupFailed, signature, err
	}
}

func pollResult(e domain.MonitorEvent) string {
	switch e {
	case domain.EventNotFound:
		return "not_found"
	case domain.EventMatched:
		return "matched"
	case domain.EventRejected:
		return "rejected"
	default:
		return "error"
	}
}
