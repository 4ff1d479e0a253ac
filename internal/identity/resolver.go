// Package identity establishes the per-session user scope. Sign-in happens
// once at startup; when the auth collaborator is unreachable the session
// falls back to a synthesized local identifier so the app stays usable.
package identity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Identity is the resolved session scope.
type Identity struct {
	UserID      string
	Anonymous   bool
	Synthesized bool // locally generated fallback, not issued by the collaborator
}

// Authenticator is the auth collaborator contract.
type Authenticator interface {
	SignInAnonymously(ctx context.Context) (Identity, error)
	SignInWithToken(ctx context.Context, token string) (Identity, error)
}

// Resolver performs the one-shot sign-in and delivers identity changes on an
// explicit channel. Until the first delivery the app is in its loading state.
type Resolver struct {
	auth  Authenticator
	token string

	mu      sync.Mutex
	current *Identity
	events  chan Identity
}

func NewResolver(auth Authenticator, bootstrapToken string) *Resolver {
	return &Resolver{
		auth:   auth,
		token:  bootstrapToken,
		events: make(chan Identity, 1),
	}
}

// Identities delivers every adopted identity, the first one ending the
// loading state. The channel is buffered so Resolve never blocks on it.
func (r *Resolver) Identities() <-chan Identity {
	return r.events
}

// Current returns the active identity, or false while still loading.
func (r *Resolver) Current() (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return Identity{}, false
	}
	return *r.current, true
}

// Resolve signs in through the collaborator, with the bootstrap token when
// one is configured. Failures are logged and swallowed; the session then
// runs under a synthesized local identifier. One-shot: there is no retry.
func (r *Resolver) Resolve(ctx context.Context) Identity {
	var (
		id  Identity
		err error
	)
	if r.token != "" {
		id, err = r.auth.SignInWithToken(ctx, r.token)
	} else {
		id, err = r.auth.SignInAnonymously(ctx)
	}
	if err != nil {
		id = Synthesize()
		slog.WarnContext(ctx, "Sign-in failed, using synthesized local identity",
			"error", err, "user_id", id.UserID)
	} else {
		slog.InfoContext(ctx, "Signed in",
			"user_id", id.UserID, "anonymous", id.Anonymous)
	}

	r.adopt(id)
	return id
}

func (r *Resolver) adopt(id Identity) {
	r.mu.Lock()
	r.current = &id
	r.mu.Unlock()

	// Replace an unread identity rather than blocking.
	select {
	case <-r.events:
	default:
	}
	r.events <- id
}

// Synthesize builds a non-persistent local identity, new every session.
func Synthesize() Identity {
	return Identity{
		UserID:      "local-" + uuid.NewString(),
		Anonymous:   true,
		Synthesized: true,
	}
}
