package service

import (
	"bytes"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSigner_SignAndVerify(t *testing.T) {
	s := NewRequestSigner("my-secret-key", nil)
	payload := `POST|/api/solana-payment/confirm|1708092000|abc123nonce|{"reference":"r"}`

	signature := s.Sign(payload)

	assert.Regexp(t, `^[0-9a-f]{64}$`, signature)
	assert.True(t, s.Verify(payload, signature))
	assert.Equal(t, signature, s.Sign(payload))
}

func TestRequestSigner_VerifyFails(t *testing.T) {
	s := NewRequestSigner("correct-key", nil)
	signature := s.Sign("original payload")

	assert.False(t, NewRequestSigner("wrong-key", nil).Verify("original payload", signature))
	assert.False(t, s.Verify("tampered payload", signature))
	assert.False(t, s.Verify("original payload", "invalidsignature"))
}

func TestCanonicalString(t *testing.T) {
	assert.Equal(t,
		`POST|/api/solana-payment/confirm|1708092000|abc123|{"signature":"5x"}`,
		CanonicalString("POST", "/api/solana-payment/confirm", 1708092000, "abc123", []byte(`{"signature":"5x"}`)),
	)
	assert.Equal(t, "GET|/health|1708092000|nonce1|", CanonicalString("GET", "/health", 1708092000, "nonce1", nil))
}

func TestRequestSigner_SignRequest(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1708092000, 0))
	s := NewRequestSigner("backend-secret", clock)
	body := []byte(`{"reference":"ref","signature":"sig"}`)

	req, err := http.NewRequest(http.MethodPost, "http://backend/api/solana-payment/confirm", bytes.NewReader(body))
	require.NoError(t, err)
	s.SignRequest(req, body)

	assert.Equal(t, "1708092000", req.Header.Get(HeaderTimestamp))
	nonce := req.Header.Get(HeaderNonce)
	require.NotEmpty(t, nonce)

	ts, err := strconv.ParseInt(req.Header.Get(HeaderTimestamp), 10, 64)
	require.NoError(t, err)
	canonical := CanonicalString(http.MethodPost, "/api/solana-payment/confirm", ts, nonce, body)
	assert.True(t, s.Verify(canonical, req.Header.Get(HeaderSignature)))

	// Each request gets its own nonce.
	req2, _ := http.NewRequest(http.MethodPost, "http://backend/api/solana-payment/confirm", bytes.NewReader(body))
	s.SignRequest(req2, body)
	assert.NotEqual(t, nonce, req2.Header.Get(HeaderNonce))
}
