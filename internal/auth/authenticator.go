// Package auth verifies who is calling: password accounts and the session
// tokens issued to them.
package auth

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// Authenticator creates accounts and checks their credentials. The RPC
// layer depends on this interface; PasswordAuthenticator is the only
// implementation.
type Authenticator interface {
	// Register creates an account. Emails are unique after normalization.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)
	// Authenticate returns the account when the credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)
	ValidateCredential(credential string) error
}
