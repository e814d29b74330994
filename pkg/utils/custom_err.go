package utils

import "errors"

var (
	ErrDatabaseError = errors.New("database error")

	// Accounts
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCannotDeleteSelf   = errors.New("cannot delete own account")
	ErrInvalidResetToken  = errors.New("reset token is invalid or has expired")

	// Plans & subscriptions
	ErrPlanNotFound         = errors.New("plan not found")
	ErrPlanInUse            = errors.New("plan is referenced by subscriptions or payments")
	ErrNoActiveSubscription = errors.New("no active subscription")

	// Webhook reconciliation
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrWebhookSecretMissing = errors.New("webhook secret not configured")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrDuplicateEvent       = errors.New("payment already reconciled")
	ErrAmountMismatch       = errors.New("event amount does not match payment")
	ErrInvalidPayload       = errors.New("invalid webhook payload")

	// Provider
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// Entitlements
	ErrLinkLimitReached     = errors.New("link limit reached for free account")
	ErrPremiumThemeRequired = errors.New("premium account required for this theme")
	ErrUnknownTheme         = errors.New("unknown theme")

	// Links
	ErrLinkNotFound = errors.New("link not found")
	ErrForbidden    = errors.New("forbidden")
)
