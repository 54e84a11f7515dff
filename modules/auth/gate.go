package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/task-tracker/domain/user"
)

// BearerScheme is the authorization scheme prefix the gate accepts.
const BearerScheme = "Bearer"

// Reason explains why the gate refused a request.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonNoHeader        Reason = "no header"
	ReasonMalformedHeader Reason = "malformed header"
	ReasonInvalidToken    Reason = "invalid-or-expired token"
)

// Message returns the client-facing text for the reason.
func (r Reason) Message() string {
	switch r {
	case ReasonNoHeader:
		return "No authorization header provided"
	case ReasonMalformedHeader:
		return "Invalid authorization format. Use: Bearer <token>"
	case ReasonInvalidToken:
		return "Invalid or expired token"
	default:
		return ""
	}
}

// Verifier checks a raw token and returns the identity it carries.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (domain.Identity, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, token string) (domain.Identity, error)

// VerifyToken calls f.
func (f VerifierFunc) VerifyToken(ctx context.Context, token string) (domain.Identity, error) {
	return f(ctx, token)
}

// LocalVerifier returns a Verifier backed directly by a TokenService.
func LocalVerifier(tokens *TokenService) Verifier {
	return VerifierFunc(func(_ context.Context, token string) (domain.Identity, error) {
		return tokens.Verify(token)
	})
}

// Outcome is the result of authenticating a request: an identity, a reason
// for refusal, or Err when the token could not be checked at all.
type Outcome struct {
	Identity domain.Identity
	Reason   Reason
	Err      error
}

// Authenticated reports whether the request carried a valid token.
func (o Outcome) Authenticated() bool {
	return o.Reason == ReasonNone && o.Err == nil
}

// Gate turns an Authorization header into an Outcome. It holds no mutable
// state and is safe to call concurrently.
type Gate struct {
	verifier Verifier
}

// NewGate creates a Gate that delegates token checks to verifier.
func NewGate(verifier Verifier) *Gate {
	return &Gate{verifier: verifier}
}

// Authenticate inspects the raw Authorization header value. Only
// ErrInvalidToken refuses the token; any other verifier error is returned in
// Err so the caller can report a server failure instead.
func (g *Gate) Authenticate(ctx context.Context, header string) Outcome {
	token, reason := ParseBearer(header)
	if reason != ReasonNone {
		return Outcome{Reason: reason}
	}

	identity, err := g.verifier.VerifyToken(ctx, token)
	if errors.Is(err, ErrInvalidToken) {
		return Outcome{Reason: ReasonInvalidToken}
	}
	if err != nil {
		return Outcome{Err: fmt.Errorf("token verification failed: %w", err)}
	}
	return Outcome{Identity: identity}
}

// ParseBearer extracts the token from a "Bearer <token>" header. The scheme
// must be followed by exactly one space and a non-empty token.
func ParseBearer(header string) (string, Reason) {
	if header == "" {
		return "", ReasonNoHeader
	}
	prefix := BearerScheme + " "
	if !strings.HasPrefix(header, prefix) {
		return "", ReasonMalformedHeader
	}
	token := header[len(prefix):]
	if token == "" || strings.HasPrefix(token, " ") {
		return "", ReasonMalformedHeader
	}
	return token, ReasonNone
}
