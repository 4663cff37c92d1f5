package dto

import (
	"solana-payment-gateway/internal/core/domain"
	"solana-payment-gateway/internal/core/ports"
)

// CreatePaymentRequest is the request body for a QR (payer-initiated) payment.
type CreatePaymentRequest struct {
	Amount      string `json:"amount" binding:"required,decimal_amount"`
	Description string `json:"description" binding:"required,min=1,max=200" sanitize:"trim"` // percent-encoded into the payment URI
	OrderID     string `json:"order_id" binding:"required,max=100,safe_id"`
	Client      string `json:"client,omitempty" binding:"omitempty,oneof=desktop mobile"`
}

// DirectPaymentRequest is the request body for a wallet-signed payment.
type DirectPaymentRequest struct {
	Amount      string `json:"amount" binding:"required,decimal_amount"`
	Description string `json:"description" binding:"required,min=1,max=200" sanitize:"trim"` // percent-encoded into the payment URI
	OrderID     string `json:"order_id" binding:"required,max=100,safe_id"`
	Wallet      string `json:"wallet,omitempty" binding:"omitempty,base58_address"`
}

// PaymentStateResponse is the caller-visible progress of one attempt.
type PaymentStateResponse struct {
	IsLoading  bool    `json:"is_loading"`
	Error      *string `json:"error"`
	PaymentURL *string `json:"payment_url"`
	Reference  *string `json:"reference"`
	QRCode     *string `json:"qr_code"`
}

// AttemptResponse is the persisted view of an attempt.
type AttemptResponse struct {
	Reference  string  `json:"reference"`
	OrderID    string  `json:"order_id"`
	Amount     string  `json:"amount"`
	Currency   string  `json:"currency"`
	Method     string  `json:"method"`
	Status     string  `json:"status"`
	Signature  *string `json:"signature,omitempty"`
	Error      *string `json:"error,omitempty"`
	CreatedAt  string  `json:"created_at"`
	ResolvedAt *string `json:"resolved_at,omitempty"`
}

// PaymentStatusResponse pairs the live state with the persisted attempt.
type PaymentStatusResponse struct {
	State   PaymentStateResponse `json:"state"`
	Attempt *AttemptResponse     `json:"attempt,omitempty"`
}

// FromState converts domain.PaymentState to DTO.
func FromState(s *domain.PaymentState) PaymentStateResponse {
	return PaymentStateResponse{
		IsLoading:  s.IsLoading,
		Error:      s.Error,
		PaymentURL: s.PaymentURL,
		Reference:  s.Reference,
		QRCode:     s.QRCode,
	}
}

// FromStatus converts ports.PaymentStatus to DTO.
func FromStatus(s *ports.PaymentStatus) PaymentStatusResponse {
	resp := PaymentStatusResponse{State: FromState(&s.State)}
	if a := s.Attempt; a != nil {
		ar := &AttemptResponse{
			Reference: a.Reference,
			OrderID:   a.OrderID,
			Amount:    a.Amount,
			Currency:  a.Currency,
			Method:    string(a.Method),
			Status:    string(a.Status),
			Signature: a.Signature,
			Error:     a.Error,
			CreatedAt: a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if a.ResolvedAt != nil {
			t := a.ResolvedAt.Format("2006-01-02T15:04:05Z07:00")
			ar.ResolvedAt = &t
		}
		resp.Attempt = ar
	}
	return resp
}
