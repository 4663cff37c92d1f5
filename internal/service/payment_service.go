package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"solana-payment-gateway/internal/core/domain"
	"solana-payment-gateway/internal/core/ports"
	"solana-payment-gateway/internal/metrics"
	"solana-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

const (
	noWalletMessage    = "No wallet connected"
	directErrorMessage = "Error processing payment"
	persistTimeout     = 10 * time.Second
)

// PaymentConfig is the merchant side of every payment plus flow timeouts.
type PaymentConfig struct {
	Recipient      string
	Currency       domain.Currency
	Label          string
	ConfirmTimeout time.Duration // sign, send and confirm on the direct path
	NotifyTimeout  time.Duration // whole backend notification, retries included
	ReferenceTTL   time.Duration
	StateTTL       time.Duration
}

// PaymentDeps are the collaborators of PaymentServiceImpl.
type PaymentDeps struct {
	Builder    ports.TransactionBuilder
	Encoder    ports.PaymentRequestEncoder
	QR         ports.QRRenderer
	Signer     ports.WalletSigner
	Ledger     ports.Ledger
	Watcher    ports.ReferenceWatcher
	Notifier   ports.Notifier
	Attempts   ports.AttemptRepository
	Registry   ports.ReferenceRegistry
	Cache      ports.StateCache
	Transactor ports.DBTransactor
	Metrics    *metrics.PaymentMetrics
	Clock      clockwork.Clock
}

// flow is one in-flight attempt. state is only touched under mu.
type flow struct {
	mu        sync.Mutex
	reference string
	method    domain.PaymentMethod
	startedAt time.Time
	state     domain.PaymentState
	sent      bool // the wallet has broadcast the transfer
	cancel    context.CancelFunc
	done      chan struct{}
}

func (f *flow) markSent() {
	f.mu.Lock()
	f.sent = true
	f.mu.Unlock()
}

func (f *flow) broadcast() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

func (f *flow) snapshot() domain.PaymentState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *flow) update(fn func(s *domain.PaymentState)) domain.PaymentState {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.state)
	return f.state
}

// PaymentServiceImpl implements ports.PaymentService.
type PaymentServiceImpl struct {
	cfg  PaymentConfig
	deps PaymentDeps
	log  zerolog.Logger

	mu    sync.Mutex
	flows map[string]*flow

	baseCtx context.Context
	stop    context.CancelFunc
	wg      conc.WaitGroup
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(cfg PaymentConfig, deps PaymentDeps, log zerolog.Logger) *PaymentServiceImpl {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &PaymentServiceImpl{
		cfg:     cfg,
		deps:    deps,
		log:     log,
		flows:   make(map[string]*flow),
		baseCtx: ctx,
		stop:    stop,
	}
}

// CreatePaymentRequest starts the QR path: it encodes a transfer request for
// a fresh reference, persists the attempt and monitors the chain in the
// background. The returned state carries the payment URL and, for desktop
// clients, the QR image.
func (s *PaymentServiceImpl) CreatePaymentRequest(ctx context.Context, req domain.PaymentRequest, opts ports.RequestOptions) (*domain.PaymentState, error) {
	if _, err := s.payerWallet(ctx, req); err != nil {
		msg := noWalletMessage
		return &domain.PaymentState{Error: &msg}, err
	}

	fail := func(err error) (*domain.PaymentState, error) {
		msg := "Error creating payment request: " + apperror.UserMessage(err)
		s.log.Error().Err(err).Str("order_id", req.OrderID).Msg("payment: create request failed")
		return &domain.PaymentState{Error: &msg}, err
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		return fail(apperror.ErrInvalidAmount(err))
	}
	ref, err := domain.NewReference()
	if err != nil {
		return fail(apperror.InternalError(err))
	}

	url, err := s.deps.Encoder.Encode(domain.TransferRequest{
		Recipient: s.cfg.Recipient,
		Amount:    amount,
		Currency:  s.cfg.Currency,
		Reference: ref,
		Label:     s.cfg.Label,
		Message:   "Payment for " + req.Description,
		Memo:      orderMemo(req.OrderID),
	})
	if err != nil {
		return fail(apperror.InternalError(fmt.Errorf("encode payment url: %w", err)))
	}

	var qr *string
	if opts.Client != ports.ClientMobile {
		img, err := s.deps.QR.Render(url)
		if err != nil {
			s.log.Warn().Err(err).Str("reference", ref.String()).Msg("payment: QR generation failed")
		} else {
			qr = &img
		}
	}

	if err := s.open(ctx, ref, req, domain.PaymentMethodQR); err != nil {
		return fail(err)
	}

	refStr := ref.String()
	watchCtx, cancel := context.WithCancel(s.baseCtx)
	f := s.track(refStr, domain.PaymentMethodQR, cancel, domain.PaymentState{
		PaymentURL: &url,
		Reference:  &refStr,
		QRCode:     qr,
	})
	state := f.snapshot()
	s.cacheState(refStr, state)

	want := domain.TransferExpectation{
		Recipient: s.cfg.Recipient,
		Amount:    amount,
		Reference: ref,
		Currency:  s.cfg.Currency,
	}
	s.wg.Go(func() {
		defer s.finish(f, cancel)
		s.deps.Watcher.Watch(watchCtx, want, ports.MonitorCallbacks{
			OnConfirmed: func(signature string) {
				s.confirmed(f, req, signature)
				s.notify(f, req.UserID, domain.Confirmation{Reference: refStr, Signature: signature})
			},
			OnFailed: func(st domain.MonitorState, message string) {
				s.failed(f, req, st, message, message)
			},
		})
	})

	s.log.Info().
		Str("reference", refStr).
		Str("order_id", req.OrderID).
		Str("amount", amount.String()).
		Str("currency", s.cfg.Currency.Code()).
		Msg("payment: request created, monitoring")

	return &state, nil
}

// DirectPayment builds the transfer, has the payer wallet sign and send it,
// and waits for confirmation at the ledger's commitment.
func (s *PaymentServiceImpl) DirectPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentState, error) {
	wallet, err := s.payerWallet(ctx, req)
	if err != nil {
		msg := noWalletMessage
		return &domain.PaymentState{Error: &msg}, err
	}

	failEarly := func(err error) (*domain.PaymentState, error) {
		msg := "Error processing direct payment: " + apperror.UserMessage(err)
		s.log.Error().Err(err).Str("order_id", req.OrderID).Msg("payment: direct payment failed")
		safeCall(s.log, "OnError", func() {
			if req.OnError != nil {
				req.OnError(directErrorMessage)
			}
		})
		return &domain.PaymentState{Error: &msg}, err
	}

	if _, err := domain.ParseAmount(req.Amount); err != nil {
		return failEarly(apperror.ErrInvalidAmount(err))
	}
	ref, err := domain.NewReference()
	if err != nil {
		return failEarly(apperror.InternalError(err))
	}
	if err := s.open(ctx, ref, req, domain.PaymentMethodDirect); err != nil {
		return failEarly(err)
	}

	refStr := ref.String()
	flowCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f := s.track(refStr, domain.PaymentMethodDirect, cancel, domain.PaymentState{IsLoading: true, Reference: &refStr})

	signature, err := s.signAndConfirm(flowCtx, f, wallet, domain.TransferIntent{
		Payer:     wallet.Address,
		Recipient: s.cfg.Recipient,
		Currency:  s.cfg.Currency,
		Amount:    req.Amount,
		Reference: ref,
		Memo:      orderMemo(req.OrderID),
	})
	if err != nil {
		st := domain.MonitorFailed
		if errors.Is(err, context.Canceled) {
			st = domain.MonitorAborted
			err = apperror.ErrPaymentCancelled()
		}
		s.log.Error().Err(err).Str("reference", refStr).Str("order_id", req.OrderID).Msg("payment: direct payment failed")
		s.failed(f, req, st, "Error processing direct payment: "+apperror.UserMessage(err), directErrorMessage)
		state := f.snapshot()
		s.finish(f, cancel)
		return &state, err
	}

	s.confirmed(f, req, signature)
	state := f.snapshot()
	s.finish(f, cancel)

	// The caller gets the confirmed transfer without waiting on the backend.
	s.wg.Go(func() {
		s.notify(f, req.UserID, domain.Confirmation{Reference: refStr, Signature: signature})
	})
	return &state, nil
}

// CreateMobilePayment is the direct path; mobile wallets sign in place.
func (s *PaymentServiceImpl) CreateMobilePayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentState, error) {
	return s.DirectPayment(ctx, req)
}

// State returns the live state of an attempt, falling back to the shared
// cache and then to the persisted attempt for attempts run elsewhere.
func (s *PaymentServiceImpl) State(ctx context.Context, reference string) (*ports.PaymentStatus, error) {
	attempt, err := s.deps.Attempts.GetByReference(ctx, reference)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	if f := s.lookup(reference); f != nil {
		return &ports.PaymentStatus{State: f.snapshot(), Attempt: attempt}, nil
	}

	cached, err := s.deps.Cache.Get(ctx, reference)
	if err != nil {
		s.log.Warn().Err(err).Str("reference", reference).Msg("payment: state cache read failed")
	}
	if cached != nil {
		return &ports.PaymentStatus{State: *cached, Attempt: attempt}, nil
	}

	if attempt == nil {
		return nil, apperror.ErrNotFound("Payment attempt")
	}
	ref := attempt.Reference
	return &ports.PaymentStatus{
		State: domain.PaymentState{
			IsLoading: !attempt.Status.IsTerminal(),
			Error:     attempt.Error,
			Reference: &ref,
		},
		Attempt: attempt,
	}, nil
}

// Abort cancels a running attempt and waits for it to settle. A direct
// payment whose transfer is already broadcast can no longer be aborted.
// Attempts left pending by another process are marked aborted directly.
func (s *PaymentServiceImpl) Abort(ctx context.Context, reference string) error {
	if f := s.lookup(reference); f != nil {
		if f.broadcast() {
			return apperror.ErrAttemptResolved()
		}
		f.cancel()
		select {
		case <-f.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	msg := apperror.ErrPaymentCancelled().Message
	err := s.resolve(ctx, reference, domain.AttemptResolution{
		Status:     domain.AttemptStatusAborted,
		Error:      &msg,
		ResolvedAt: s.deps.Clock.Now().UTC(),
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("reference", reference).Msg("payment: orphaned attempt aborted")
	return nil
}

// ExpireStale times out attempts still pending after the reference TTL.
func (s *PaymentServiceImpl) ExpireStale(ctx context.Context) (int64, error) {
	cutoff := s.deps.Clock.Now().UTC().Add(-s.cfg.ReferenceTTL)
	n, err := s.deps.Attempts.ExpirePending(ctx, cutoff)
	if err != nil {
		return 0, apperror.ErrDatabaseError(err)
	}
	if n > 0 {
		s.log.Info().Int64("expired", n).Time("cutoff", cutoff).Msg("payment: stale attempts expired")
	}
	return n, nil
}

// RunJanitor calls ExpireStale every interval until ctx is done.
func (s *PaymentServiceImpl) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := s.deps.Clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if _, err := s.ExpireStale(ctx); err != nil {
				s.log.Error().Err(err).Msg("payment: expiring stale attempts failed")
			}
		}
	}
}

// Shutdown aborts every running monitor and waits for them to settle.
func (s *PaymentServiceImpl) Shutdown(ctx context.Context) error {
	s.stop()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for payment monitors: %w", ctx.Err())
	}
}

// signAndConfirm builds, signs and confirms within ConfirmTimeout. Once the
// transfer is broadcast, cancelling ctx no longer stops the confirmation.
func (s *PaymentServiceImpl) signAndConfirm(ctx context.Context, f *flow, wallet domain.Wallet, intent domain.TransferIntent) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ConfirmTimeout)
	defer cancel()

	tx, err := s.deps.Builder.Build(ctx, intent)
	if err != nil {
		return "", apperror.ErrBuildFailed(err)
	}
	raw, err := s.deps.Signer.SignAndSend(ctx, wallet, tx)
	if err != nil {
		return "", apperror.ErrSigningFailed(err)
	}
	f.markSent()
	signature := domain.EncodeSignature(raw)
	s.log.Info().Str("reference", intent.Reference.String()).Str("signature", signature).Msg("payment: transaction sent, confirming")

	deadline, _ := ctx.Deadline()
	confirmCtx, cancelConfirm := context.WithDeadline(context.WithoutCancel(ctx), deadline)
	defer cancelConfirm()
	if err := s.deps.Ledger.ConfirmTransaction(confirmCtx, signature); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", apperror.ErrPaymentTimeout()
		}
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", apperror.ErrValidationFailed(err)
	}
	return signature, nil
}

// payerWallet returns the caller's own wallet if the signer has it connected.
// Naming any other wallet counts as having none.
func (s *PaymentServiceImpl) payerWallet(ctx context.Context, req domain.PaymentRequest) (domain.Wallet, error) {
	if req.Owner == "" || (req.Wallet != "" && req.Wallet != req.Owner) {
		return domain.Wallet{}, apperror.ErrNoWalletConnected()
	}
	wallets, err := s.deps.Signer.Wallets(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("payment: listing wallets failed")
		return domain.Wallet{}, apperror.ErrNoWalletConnected()
	}
	for _, w := range wallets {
		if w.Address == req.Owner {
			return w, nil
		}
	}
	return domain.Wallet{}, apperror.ErrNoWalletConnected()
}

// open reserves the reference and persists a pending attempt.
func (s *PaymentServiceImpl) open(ctx context.Context, ref domain.Reference, req domain.PaymentRequest, method domain.PaymentMethod) error {
	refStr := ref.String()
	ok, err := s.deps.Registry.Register(ctx, refStr, s.cfg.ReferenceTTL)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Str("reference", refStr).Msg("payment: reference registry unavailable")
	case !ok:
		return apperror.ErrReferenceCollision()
	}

	attempt := &domain.PaymentAttempt{
		ID:        uuid.New(),
		Reference: refStr,
		OrderID:   req.OrderID,
		UserID:    req.UserID,
		Amount:    req.Amount,
		Currency:  s.cfg.Currency.Code(),
		Recipient: s.cfg.Recipient,
		Method:    method,
		Status:    domain.AttemptStatusPending,
		CreatedAt: s.deps.Clock.Now().UTC(),
	}
	if err := s.deps.Attempts.Create(ctx, attempt); err != nil {
		if rerr := s.deps.Registry.Release(ctx, refStr); rerr != nil {
			s.log.Warn().Err(rerr).Str("reference", refStr).Msg("payment: releasing reference failed")
		}
		return apperror.ErrDatabaseError(fmt.Errorf("create attempt: %w", err))
	}
	s.deps.Metrics.AttemptStarted(string(method))
	return nil
}

func (s *PaymentServiceImpl) track(reference string, method domain.PaymentMethod, cancel context.CancelFunc, initial domain.PaymentState) *flow {
	f := &flow{
		reference: reference,
		method:    method,
		startedAt: s.deps.Clock.Now(),
		state:     initial,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	s.mu.Lock()
	s.flows[reference] = f
	s.mu.Unlock()
	return f
}

func (s *PaymentServiceImpl) lookup(reference string) *flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flows[reference]
}

// finish publishes the final state, frees the reference and forgets the flow.
func (s *PaymentServiceImpl) finish(f *flow, cancel context.CancelFunc) {
	cancel()
	s.cacheState(f.reference, f.snapshot())

	ctx, cancelRelease := context.WithTimeout(context.Background(), persistTimeout)
	defer cancelRelease()
	if err := s.deps.Registry.Release(ctx, f.reference); err != nil {
		s.log.Warn().Err(err).Str("reference", f.reference).Msg("payment: releasing reference failed")
	}

	s.mu.Lock()
	delete(s.flows, f.reference)
	s.mu.Unlock()
	close(f.done)
}

// confirmed records the on-chain outcome and fires OnSuccess. The backend is
// notified afterwards; a failed notification never undoes the confirmation.
func (s *PaymentServiceImpl) confirmed(f *flow, req domain.PaymentRequest, signature string) {
	log := s.log.With().Str("reference", f.reference).Str("signature", signature).Logger()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.resolve(ctx, f.reference, domain.AttemptResolution{
		Status:     domain.AttemptStatusConfirmed,
		Signature:  &signature,
		ResolvedAt: s.deps.Clock.Now().UTC(),
	}); err != nil {
		log.Error().Err(err).Msg("payment: recording confirmation failed")
	}
	s.deps.Metrics.AttemptResolved(string(f.method), string(domain.AttemptStatusConfirmed))
	s.deps.Metrics.Confirmed(string(f.method), s.deps.Clock.Since(f.startedAt))

	s.publish(f, func(st *domain.PaymentState) {
		st.IsLoading = true // backend notification in progress
		st.Error = nil
	})
	safeCall(s.log, "OnSuccess", func() {
		if req.OnSuccess != nil {
			req.OnSuccess(signature)
		}
	})
}

func (s *PaymentServiceImpl) notify(f *flow, userID uuid.UUID, c domain.Confirmation) {
	log := s.log.With().Str("reference", c.Reference).Str("signature", c.Signature).Logger()
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.NotifyTimeout)
	defer cancel()

	receipt, err := s.deps.Notifier.NotifyConfirmation(ctx, userID, c)
	var rejected *RejectedError
	switch {
	case errors.As(err, &rejected):
		log.Warn().Err(err).Msg("payment: backend rejected confirmation")
		msg := rejected.Message
		s.publish(f, func(st *domain.PaymentState) {
			st.IsLoading = false
			st.Error = &msg
		})
		return
	case err != nil:
		log.Error().Err(err).Msg("payment: backend notification failed")
	case receipt != nil:
		if err := s.deps.Attempts.SaveReceipt(ctx, c.Reference, receipt); err != nil {
			log.Warn().Err(err).Msg("payment: saving receipt failed")
		}
	}
	s.publish(f, func(st *domain.PaymentState) { st.IsLoading = false })
}

// failed records a terminal failure. stateMsg goes into PaymentState.Error,
// callbackMsg to OnError.
func (s *PaymentServiceImpl) failed(f *flow, req domain.PaymentRequest, st domain.MonitorState, stateMsg, callbackMsg string) {
	status := st.AttemptStatus()
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.resolve(ctx, f.reference, domain.AttemptResolution{
		Status:     status,
		Error:      &stateMsg,
		ResolvedAt: s.deps.Clock.Now().UTC(),
	}); err != nil {
		s.log.Error().Err(err).Str("reference", f.reference).Msg("payment: recording failure failed")
	}
	s.deps.Metrics.AttemptResolved(string(f.method), string(status))

	s.publish(f, func(ps *domain.PaymentState) {
		ps.IsLoading = false
		ps.Error = &stateMsg
	})
	safeCall(s.log, "OnError", func() {
		if req.OnError != nil {
			req.OnError(callbackMsg)
		}
	})
}

// resolve moves a pending attempt to its terminal status under a row lock.
func (s *PaymentServiceImpl) resolve(ctx context.Context, reference string, res domain.AttemptResolution) error {
	tx, err := s.deps.Transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	attempt, err := s.deps.Attempts.GetByReferenceForUpdate(ctx, tx, reference)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("lock attempt: %w", err))
	}
	if attempt == nil {
		return apperror.ErrNotFound("Payment attempt")
	}
	if attempt.Status.IsTerminal() {
		return apperror.ErrAttemptResolved()
	}
	if err := s.deps.Attempts.Resolve(ctx, tx, reference, res); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("resolve attempt: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

func (s *PaymentServiceImpl) publish(f *flow, fn func(st *domain.PaymentState)) {
	s.cacheState(f.reference, f.update(fn))
}

func (s *PaymentServiceImpl) cacheState(reference string, st domain.PaymentState) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.deps.Cache.Set(ctx, reference, &st, s.cfg.StateTTL); err != nil {
		s.log.Warn().Err(err).Str("reference", reference).Msg("payment: state cache write failed")
	}
}

func orderMemo(orderID string) string {
	if orderID == "" {
		return ""
	}
	return "Order: " + orderID
}

// safeCall runs a caller-supplied callback; a panic in it is logged, not propagated.
func safeCall(log zerolog.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("callback", name).Msg("payment: callback panicked")
		}
	}()
	fn()
}
