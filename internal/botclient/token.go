package botclient

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoCallerToken is returned by CallerToken outside an authenticated request.
var ErrNoCallerToken = errors.New("no caller token in context")

type callerTokenKey struct{}

// WithToken returns a copy of ctx carrying the caller's bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, callerTokenKey{}, token)
}

// TokenFromContext returns the token stored by WithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(callerTokenKey{}).(string)
	return token, ok && token != ""
}

// CallerToken forwards the token of the user whose request triggered the call.
type CallerToken struct{}

// Token returns the context token or ErrNoCallerToken.
func (CallerToken) Token(ctx context.Context) (string, error) {
	token, ok := TokenFromContext(ctx)
	if !ok {
		return "", ErrNoCallerToken
	}
	return token, nil
}

// TokenIssuer mints signed session tokens.
type TokenIssuer interface {
	IssueToken(userID, username string, roles []string) (string, time.Time, error)
}

// IssuedToken mints a service token on first use and renews it shortly
// before it expires.
type IssuedToken struct {
	mu       sync.Mutex
	issuer   TokenIssuer
	userID   string
	username string
	roles    []string
	now      func() time.Time

	token     string
	expiresAt time.Time
}

// NewIssuedToken returns a token source acting as userID with roles.
func NewIssuedToken(issuer TokenIssuer, userID, username string, roles ...string) *IssuedToken {
	return &IssuedToken{issuer: issuer, userID: userID, username: username, roles: roles, now: time.Now}
}

// Token returns the cached token, minting a new one within a minute of expiry.
func (t *IssuedToken) Token(context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.token != "" && t.now().Add(time.Minute).Before(t.expiresAt) {
		return t.token, nil
	}
	token, exp, err := t.issuer.IssueToken(t.userID, t.username, t.roles)
	if err != nil {
		return "", err
	}
	t.token, t.expiresAt = token, exp
	return token, nil
}
