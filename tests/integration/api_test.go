package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"solana-payment-gateway/internal/adapter/chain"
	httpHandler "solana-payment-gateway/internal/adapter/http/handler"
	"solana-payment-gateway/internal/adapter/qr"
	redisStorage "solana-payment-gateway/internal/adapter/storage/redis"
	"solana-payment-gateway/internal/core/domain"
	"solana-payment-gateway/internal/core/ports"
	"solana-payment-gateway/internal/service"
	"solana-payment-gateway/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack: real HTTP layer, middleware,
// payment service, chain monitor, notifier and Redis stores (miniredis).
// Only the ledger/wallet and the attempt table are in-memory fakes, and the
// credits backend is an httptest server.

type testApp struct {
	server   *httptest.Server
	redis    *miniredis.Miniredis
	chain    *fakeChain
	attempts *inMemoryAttemptRepo
	backend  *fakeBackend
	tokens   ports.TokenService
	merchant string
}

type appOptions struct {
	maxPolls  int
	rateLimit bool
}

func newTestApp(t *testing.T, opts ...func(*appOptions)) *testApp {
	t.Helper()

	o := appOptions{maxPolls: 200}
	for _, fn := range opts {
		fn(&o)
	}

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	log := logger.NewWithWriter("error", io.Discard)
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", time.Hour, "test-issuer")
	fc := newFakeChain()
	attempts := newInMemoryAttemptRepo()
	backend := newFakeBackend(t, tokenSvc)
	merchant := solana.NewWallet().PublicKey().String()

	monitor := service.NewChainMonitor(fc, clockwork.NewRealClock(), service.MonitorConfig{
		Interval:    10 * time.Millisecond,
		MaxAttempts: o.maxPolls,
	}, nil, log)
	notifier := service.NewBackendNotifier(service.NotifierConfig{
		BaseURL:       backend.server.URL + "/api",
		Timeout:       2 * time.Second,
		RetryAttempts: 2,
		RetryDelay:    10 * time.Millisecond,
	}, tokenSvc, backend.server.Client(), nil, log)

	paymentSvc := service.NewPaymentService(service.PaymentConfig{
		Recipient:      merchant,
		Currency:       domain.CurrencyFromMint("native"),
		Label:          "Integration credits",
		ConfirmTimeout: 5 * time.Second,
		NotifyTimeout:  5 * time.Second,
		ReferenceTTL:   10 * time.Minute,
		StateTTL:       time.Hour,
	}, service.PaymentDeps{
		Builder:    chain.NewTransactionBuilder(fc, log),
		Encoder:    chain.NewPayURLEncoder(),
		QR:         qr.NewRenderer(128),
		Signer:     fc,
		Ledger:     fc,
		Watcher:    monitor,
		Notifier:   notifier,
		Attempts:   attempts,
		Registry:   redisStorage.NewReferenceRegistry(rdb),
		Cache:      redisStorage.NewStateCache(rdb),
		Transactor: newInMemoryTransactor(),
	}, log)

	// The fake clock pins every request to one window, so polling tests run unlimited.
	var limiter *redisStorage.RateLimitStore
	if o.rateLimit {
		limiter = redisStorage.NewRateLimitStore(rdb, clockwork.NewFakeClock())
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		PaymentSvc:     paymentSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: limiter,
		HealthCheckers: []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
		Logger:         log,
	})
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = paymentSvc.Shutdown(ctx)
		_ = rdb.Close()
	})

	return &testApp{
		server:   server,
		redis:    mr,
		chain:    fc,
		attempts: attempts,
		backend:  backend,
		tokens:   tokenSvc,
		merchant: merchant,
	}
}

// --- fake credits backend ---

type fakeBackend struct {
	server *httptest.Server

	mu       sync.Mutex
	received []domain.Confirmation
	reject   string
}

func newFakeBackend(t *testing.T, tokens ports.TokenService) *fakeBackend {
	b := &fakeBackend{}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/solana-payment/confirm" {
			http.NotFound(w, r)
			return
		}
		claims, err := tokens.Validate(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var c domain.Confirmation
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		b.mu.Lock()
		b.received = append(b.received, c)
		reject := b.reject
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if reject != "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": reject})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": domain.ConfirmationReceipt{
				PaymentID:        "pay_" + c.Reference[:8],
				CreditsGranted:   50,
				AmountPaid:       0.5,
				Currency:         "SOL",
				NewCreditBalance: 150,
				SenderWallet:     claims.UserID.String(),
			},
		})
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) rejectWith(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reject = msg
}

func (b *fakeBackend) confirmations() []domain.Confirmation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Confirmation(nil), b.received...)
}

// --- HTTP helpers ---

type stateBody struct {
	IsLoading  bool    `json:"is_loading"`
	Error      *string `json:"error"`
	PaymentURL *string `json:"payment_url"`
	Reference  *string `json:"reference"`
	QRCode     *string `json:"qr_code"`
}

type statusBody struct {
	State   stateBody `json:"state"`
	Attempt *struct {
		Reference string  `json:"reference"`
		OrderID   string  `json:"order_id"`
		Amount    string  `json:"amount"`
		Method    string  `json:"method"`
		Status    string  `json:"status"`
		Signature *string `json:"signature"`
		Error     *string `json:"error"`
	} `json:"attempt"`
}

func (a *testApp) tokenFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, _, err := a.tokens.Generate(userID, a.chain.payerAddress())
	require.NoError(t, err)
	return token
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, a.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		env := struct {
			Data json.RawMessage `json:"data"`
		}{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode
}

func (a *testApp) createRequest(t *testing.T, token, orderID string) stateBody {
	t.Helper()
	var st stateBody
	code := a.do(t, http.MethodPost, "/api/v1/payments/requests", token, map[string]string{
		"amount": "0.5", "description": "50 credits", "order_id": orderID, "client": "desktop",
	}, &st)
	require.Equal(t, http.StatusCreated, code)
	require.NotNil(t, st.Reference)
	return st
}

func (a *testApp) status(t *testing.T, token, reference string) statusBody {
	t.Helper()
	var st statusBody
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/payments/"+reference, token, nil, &st))
	return st
}

// peek fetches an attempt without failing the test; safe inside Eventually.
func (a *testApp) peek(token, reference string) (statusBody, bool) {
	var st statusBody
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, a.server.URL+"/api/v1/payments/"+reference, nil)
	if err != nil {
		return st, false
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return st, false
	}
	env := struct {
		Data statusBody `json:"data"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return st, false
	}
	return env.Data, true
}

func (a *testApp) waitForStatus(t *testing.T, token, reference, want string) statusBody {
	t.Helper()
	var last statusBody
	require.Eventually(t, func() bool {
		st, ok := a.peek(token, reference)
		if !ok || st.Attempt == nil {
			return false
		}
		last = st
		return st.Attempt.Status == want
	}, 5*time.Second, 10*time.Millisecond, "attempt %s never reached %s", reference, want)
	return last
}

func mustReference(t *testing.T, s string) domain.Reference {
	t.Helper()
	ref, err := domain.ParseReference(s)
	require.NoError(t, err)
	return ref
}

// --- Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_Unauthorized(t *testing.T) {
	app := newTestApp(t)

	code := app.do(t, http.MethodPost, "/api/v1/payments/requests", "", map[string]string{
		"amount": "0.5", "description": "x", "order_id": "o-1",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code = app.do(t, http.MethodPost, "/api/v1/payments/requests", "not-a-jwt", map[string]string{
		"amount": "0.5", "description": "x", "order_id": "o-1",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestIntegration_QRPaymentConfirmed(t *testing.T) {
	app := newTestApp(t)
	userID := uuid.New()
	token := app.tokenFor(t, userID)

	st := app.createRequest(t, token, "order-100")
	ref := *st.Reference

	require.NotNil(t, st.PaymentURL)
	assert.True(t, strings.HasPrefix(*st.PaymentURL, "solana:"+app.merchant+"?amount=0.5&reference="+ref))
	assert.Contains(t, *st.PaymentURL, "memo=Order%3A+order-100")
	require.NotNil(t, st.QRCode)
	assert.True(t, strings.HasPrefix(*st.QRCode, "data:image/png;base64,"))
	assert.Nil(t, st.Error)

	pending := app.status(t, token, ref)
	require.NotNil(t, pending.Attempt)
	assert.Equal(t, "QR", pending.Attempt.Method)
	assert.Equal(t, "order-100", pending.Attempt.OrderID)

	sig := app.chain.pay(mustReference(t, ref))

	done := app.waitForStatus(t, token, ref, "CONFIRMED")
	require.NotNil(t, done.Attempt.Signature)
	assert.Equal(t, sig, *done.Attempt.Signature)

	require.Eventually(t, func() bool {
		_, ok := app.attempts.receipt(ref)
		return ok
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []domain.Confirmation{{Reference: ref, Signature: sig}}, app.backend.confirmations())

	rc, _ := app.attempts.receipt(ref)
	assert.Equal(t, userID.String(), rc.SenderWallet)

	require.Eventually(t, func() bool {
		st, ok := app.peek(token, ref)
		return ok && !st.State.IsLoading
	}, 5*time.Second, 10*time.Millisecond)
	assert.Nil(t, app.status(t, token, ref).State.Error)
}

func TestIntegration_QRPaymentMismatch(t *testing.T) {
	app := newTestApp(t)
	token := app.tokenFor(t, uuid.New())

	ref := *app.createRequest(t, token, "order-101").Reference
	app.chain.payWrong(mustReference(t, ref))

	done := app.waitForStatus(t, token, ref, "FAILED")
	require.NotNil(t, done.State.Error)
	assert.Equal(t, "Payment validation failed - please try again", *done.State.Error)
	assert.Empty(t, app.backend.confirmations())
}

func TestIntegration_QRPaymentTimesOut(t *testing.T) {
	app := newTestApp(t, func(o *appOptions) { o.maxPolls = 3 })
	token := app.tokenFor(t, uuid.New())

	ref := *app.createRequest(t, token, "order-102").Reference

	done := app.waitForStatus(t, token, ref, "TIMED_OUT")
	require.NotNil(t, done.State.Error)
	assert.Equal(t, "Payment timeout - please try again", *done.State.Error)
	assert.Empty(t, app.backend.confirmations())
}

func TestIntegration_BackendRejectionSurfaces(t *testing.T) {
	app := newTestApp(t)
	token := app.tokenFor(t, uuid.New())
	app.backend.rejectWith("Payment already processed")

	ref := *app.createRequest(t, token, "order-103").Reference
	app.chain.pay(mustReference(t, ref))

	app.waitForStatus(t, token, ref, "CONFIRMED")
	require.Eventually(t, func() bool {
		st, ok := app.peek(token, ref)
		return ok && st.State.Error != nil && *st.State.Error == "Payment already processed"
	}, 5*time.Second, 10*time.Millisecond)
	assert.Len(t, app.backend.confirmations(), 1, "a rejection is not retried")
}

func TestIntegration_DirectPayment(t *testing.T) {
	app := newTestApp(t)
	token := app.tokenFor(t, uuid.New())

	var st stateBody
	code := app.do(t, http.MethodPost, "/api/v1/payments/direct", token, map[string]string{
		"amount": "0.25", "description": "25 credits", "order_id": "order-200", "wallet": app.chain.payerAddress(),
	}, &st)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, st.Reference)
	assert.Nil(t, st.Error)
	assert.Equal(t, 1, app.chain.sentCount())

	done := app.status(t, token, *st.Reference)
	require.NotNil(t, done.Attempt)
	assert.Equal(t, "DIRECT", done.Attempt.Method)
	assert.Equal(t, "CONFIRMED", done.Attempt.Status)

	require.Eventually(t, func() bool {
		return len(app.backend.confirmations()) == 1
	}, 5*time.Second, 10*time.Millisecond)
	confirmations := app.backend.confirmations()
	assert.Equal(t, *st.Reference, confirmations[0].Reference)
	assert.Equal(t, *done.Attempt.Signature, confirmations[0].Signature)
}

func TestIntegration_DirectPaymentFromAnotherUsersWallet(t *testing.T) {
	app := newTestApp(t)
	token, _, err := app.tokens.Generate(uuid.New(), solana.NewWallet().PublicKey().String())
	require.NoError(t, err)

	for _, body := range []map[string]string{
		{"amount": "0.25", "description": "25 credits", "order_id": "order-202"},
		{"amount": "0.25", "description": "25 credits", "order_id": "order-203", "wallet": app.chain.payerAddress()},
	} {
		code := app.do(t, http.MethodPost, "/api/v1/payments/direct", token, body, nil)
		assert.Equal(t, http.StatusPreconditionFailed, code)
	}
	assert.Equal(t, 0, app.chain.sentCount())
}

func TestIntegration_DirectPaymentUnknownWallet(t *testing.T) {
	app := newTestApp(t)
	token := app.tokenFor(t, uuid.New())

	code := app.do(t, http.MethodPost, "/api/v1/payments/direct", token, map[string]string{
		"amount": "0.25", "description": "25 credits", "order_id": "order-201",
		"wallet": solana.NewWallet().PublicKey().String(),
	}, nil)

	assert.Equal(t, http.StatusPreconditionFailed, code)
	assert.Equal(t, 0, app.chain.sentCount())
}

func TestIntegration_AbortPayment(t *testing.T) {
	app := newTestApp(t)
	token := app.tokenFor(t, uuid.New())

	ref := *app.createRequest(t, token, "order-300").Reference

	var st statusBody
	require.Equal(t, http.StatusOK, app.do(t, http.MethodDelete, "/api/v1/payments/"+ref, token, nil, &st))
	require.NotNil(t, st.Attempt)
	assert.Equal(t, "ABORTED", st.Attempt.Status)

	// A late transfer no longer counts.
	app.chain.pay(mustReference(t, ref))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "ABORTED", app.status(t, token, ref).Attempt.Status)
	assert.Empty(t, app.backend.confirmations())

	assert.Equal(t, http.StatusConflict, app.do(t, http.MethodDelete, "/api/v1/payments/"+ref, token, nil, nil))
}

func TestIntegration_AttemptsArePrivate(t *testing.T) {
	app := newTestApp(t)
	owner := app.tokenFor(t, uuid.New())
	other := app.tokenFor(t, uuid.New())

	ref := *app.createRequest(t, owner, "order-400").Reference

	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, "/api/v1/payments/"+ref, other, nil, nil))
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodDelete, "/api/v1/payments/"+ref, other, nil, nil))
	assert.Equal(t, "PENDING", app.status(t, owner, ref).Attempt.Status)
}

func TestIntegration_CreateRateLimited(t *testing.T) {
	app := newTestApp(t, func(o *appOptions) { o.rateLimit = true })
	token := app.tokenFor(t, uuid.New())

	for i := 0; i < 10; i++ {
		app.createRequest(t, token, fmt.Sprintf("order-rl-%d", i))
	}

	code := app.do(t, http.MethodPost, "/api/v1/payments/requests", token, map[string]string{
		"amount": "0.5", "description": "x", "order_id": "order-rl-10",
	}, nil)
	assert.Equal(t, http.StatusTooManyRequests, code)

	// Another payer has an independent budget.
	app.createRequest(t, app.tokenFor(t, uuid.New()), "order-rl-other")
}

// post and delete are goroutine-safe request helpers; they report errors
// instead of failing the test.
func (a *testApp) post(token, path string, body interface{}, out interface{}) (int, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, a.server.URL+path, bytes.NewReader(raw))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		env := struct {
			Data json.RawMessage `json:"data"`
		}{}
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return resp.StatusCode, err
		}
		return resp.StatusCode, json.Unmarshal(env.Data, out)
	}
	return resp.StatusCode, nil
}

func (a *testApp) delete(token, path string) (int, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, a.server.URL+path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
