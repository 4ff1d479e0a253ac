package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/api/idtoken"
)

// GoogleAuthenticator validates bootstrap tokens as Google ID tokens.
// Anonymous sign-in issues a fresh opaque identifier per session.
type GoogleAuthenticator struct {
	audience string
}

func NewGoogleAuthenticator(audience string) *GoogleAuthenticator {
	return &GoogleAuthenticator{audience: audience}
}

func (a *GoogleAuthenticator) SignInAnonymously(_ context.Context) (Identity, error) {
	return Identity{
		UserID:    "anon-" + uuid.NewString(),
		Anonymous: true,
	}, nil
}

func (a *GoogleAuthenticator) SignInWithToken(ctx context.Context, token string) (Identity, error) {
	payload, err := idtoken.Validate(ctx, token, a.audience)
	if err != nil {
		return Identity{}, fmt.Errorf("validate id token: %w", err)
	}
	if payload.Subject == "" {
		return Identity{}, fmt.Errorf("id token has no subject")
	}
	return Identity{UserID: payload.Subject}, nil
}
