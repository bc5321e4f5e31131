package service

import "errors"

// Ошибки бизнес-логики для обработки в handlers
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrForbidden            = errors.New("access to order denied")
	ErrOrderNotCancelable   = errors.New("only created orders can be canceled")
	ErrOrderNotPayable      = errors.New("order is not payable")
	ErrActivePaymentExists  = errors.New("order already has an active payment")
	ErrInvalidPaymentStatus = errors.New("invalid payment status for this operation")
	ErrAmountMismatch       = errors.New("payment amount does not match order amount")
	ErrProductNotFound      = errors.New("product not found in catalog")
	ErrProductUnavailable   = errors.New("product is not available for sale")
	ErrInsufficientStock    = errors.New("insufficient product stock")
	ErrRefundExceedsPayment = errors.New("refund amount exceeds refundable balance")
	ErrRefundNotAllowed     = errors.New("payment is not refundable")
)
