package handler

import (
	"context"
	"strings"

	"solana-payment-gateway/internal/adapter/http/dto"
	"solana-payment-gateway/internal/adapter/http/middleware"
	"solana-payment-gateway/internal/core/domain"
	"solana-payment-gateway/internal/core/ports"
	"solana-payment-gateway/pkg/apperror"
	"solana-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PaymentHandler handles payment-related endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
	log        zerolog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService, log zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc, log: log.With().Str("component", "payment_handler").Logger()}
}

// CreateRequest handles POST /api/v1/payments/requests.
func (h *PaymentHandler) CreateRequest(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	owner := c.GetString(middleware.CtxWallet)

	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	client := ports.ClientKind(req.Client)
	if client == "" {
		client = clientFromUserAgent(c.Request.UserAgent())
	}

	state, err := h.paymentSvc.CreatePaymentRequest(c.Request.Context(),
		h.paymentRequest(userID, owner, req.Amount, req.Description, req.OrderID, ""),
		ports.RequestOptions{Client: client},
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromState(state))
}

// DirectPayment handles POST /api/v1/payments/direct. It blocks until the
// transfer is confirmed on chain or fails.
func (h *PaymentHandler) DirectPayment(c *gin.Context) {
	h.direct(c, h.paymentSvc.DirectPayment)
}

// MobilePayment handles POST /api/v1/payments/mobile.
func (h *PaymentHandler) MobilePayment(c *gin.Context) {
	h.direct(c, h.paymentSvc.CreateMobilePayment)
}

// GetPayment handles GET /api/v1/payments/:reference.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	status, ok := h.ownedStatus(c)
	if !ok {
		return
	}
	response.OK(c, dto.FromStatus(status))
}

// AbortPayment handles DELETE /api/v1/payments/:reference.
func (h *PaymentHandler) AbortPayment(c *gin.Context) {
	if _, ok := h.ownedStatus(c); !ok {
		return
	}

	reference := c.Param("reference")
	if err := h.paymentSvc.Abort(c.Request.Context(), reference); err != nil {
		response.Error(c, err)
		return
	}

	status, err := h.paymentSvc.State(c.Request.Context(), reference)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FromStatus(status))
}

type directFunc func(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentState, error)

func (h *PaymentHandler) direct(c *gin.Context, pay directFunc) {
	userID, ok := currentUser(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	owner := c.GetString(middleware.CtxWallet)

	var req dto.DirectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	// Callers may only pay from the wallet their token was issued for.
	if req.Wallet != "" && req.Wallet != owner {
		h.log.Warn().Str("user_id", userID.String()).Str("wallet", req.Wallet).Msg("payment from a wallet not bound to the caller")
		response.Error(c, apperror.ErrNoWalletConnected())
		return
	}

	state, err := pay(c.Request.Context(), h.paymentRequest(userID, owner, req.Amount, req.Description, req.OrderID, req.Wallet))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromState(state))
}

// ownedStatus loads the attempt named in the path and hides it from anyone but its payer.
func (h *PaymentHandler) ownedStatus(c *gin.Context) (*ports.PaymentStatus, bool) {
	userID, ok := currentUser(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return nil, false
	}

	reference := c.Param("reference")
	if _, err := domain.ParseReference(reference); err != nil {
		response.Error(c, apperror.Validation("invalid payment reference"))
		return nil, false
	}

	status, err := h.paymentSvc.State(c.Request.Context(), reference)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if status.Attempt == nil || status.Attempt.UserID != userID {
		response.Error(c, apperror.ErrNotFound("Payment attempt"))
		return nil, false
	}
	return status, true
}

func (h *PaymentHandler) paymentRequest(userID uuid.UUID, owner, amount, description, orderID, wallet string) domain.PaymentRequest {
	log := h.log.With().Str("user_id", userID.String()).Str("order_id", orderID).Logger()
	return domain.PaymentRequest{
		Amount:      amount,
		Description: description,
		OrderID:     orderID,
		UserID:      userID,
		Owner:       owner,
		Wallet:      wallet,
		OnSuccess: func(signature string) {
			log.Info().Str("signature", signature).Msg("payment confirmed")
		},
		OnError: func(message string) {
			log.Warn().Str("reason", message).Msg("payment failed")
		},
	}
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.CtxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// clientFromUserAgent picks mobile for phone browsers, which cannot scan their own screen.
func clientFromUserAgent(ua string) ports.ClientKind {
	if strings.Contains(ua, "Mobi") || strings.Contains(ua, "Android") {
		return ports.ClientMobile
	}
	return ports.ClientDesktop
}
