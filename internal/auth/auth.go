// Package auth issues and verifies the bearer tokens that identify the actor
// of every API call.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YusovID/visit-planner/internal/apperrors"
	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey struct{}

// Claims carries the actor role next to the registered claims; the subject is the actor id.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func New(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue signs an HS256 token for the actor valid for ttl.
func (a *Authenticator) Issue(actor domain.Actor, ttl time.Duration) (string, error) {
	const op = "internal.auth.Issue"

	now := a.now()
	claims := Claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// Parse verifies the token and returns its actor. Every failure wraps apperrors.ErrUnauthorized.
func (a *Authenticator) Parse(token string) (domain.Actor, error) {
	const op = "internal.auth.Parse"

	claims := &Claims{}

	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, fmt.Errorf("%s: %w: token expired", op, apperrors.ErrUnauthorized)
		}

		return domain.Actor{}, fmt.Errorf("%s: %w: %v", op, apperrors.ErrUnauthorized, err)
	}

	switch claims.Role {
	case domain.RoleAdmin, domain.RoleManager, domain.RoleRepresentative:
	default:
		return domain.Actor{}, fmt.Errorf("%s: %w: unknown role '%s'", op, apperrors.ErrUnauthorized, claims.Role)
	}

	if claims.Subject == "" {
		return domain.Actor{}, fmt.Errorf("%s: %w: missing subject", op, apperrors.ErrUnauthorized)
	}

	return domain.Actor{ID: claims.Subject, Role: claims.Role}, nil
}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// ActorFromContext returns the zero Actor when the request was not authenticated.
func ActorFromContext(ctx context.Context) domain.Actor {
	actor, _ := ctx.Value(contextKey{}).(domain.Actor)
	return actor
}
