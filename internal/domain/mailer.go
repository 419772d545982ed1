package domain

import "context"

// Mailer delivers the account-activation message for a freshly issued
// confirmation token. Delivery failure must never activate the account;
// callers keep the record inactive and report the failure.
type Mailer interface {
	SendActivation(ctx context.Context, email, token string) error
}
