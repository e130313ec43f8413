package service

import "errors"

var (
	ErrMissingPaymentIntent    = errors.New("missing payment intent id")
	ErrPaymentNotSucceeded     = errors.New("payment not completed")
	ErrMissingSplitData        = errors.New("missing split order data")
	ErrEmptyCart               = errors.New("no items to checkout")
	ErrMixedCurrencyCart       = errors.New("cart mixes currencies")
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")
	ErrEmailTaken              = errors.New("email already registered")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrForbidden               = errors.New("forbidden")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrMerchantNotApproved     = errors.New("merchant not approved")
)
