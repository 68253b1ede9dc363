// Package auth turns bearer tokens into principals.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quizflow/internal/domain"
)

// Verifier issues and checks HS256 tokens whose subject is the account id.
type Verifier struct {
	hmac   []byte
	issuer string
	now    func() time.Time
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{hmac: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue signs a token for accountID, mostly for local development and tests.
func (v *Verifier) Issue(accountID string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.hmac)
}

// Parse validates the token and returns the principal it names.
func (v *Verifier) Parse(token string) (domain.Principal, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(v.now)}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.hmac, nil
	}, opts...); err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return domain.Principal{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	return domain.Principal{AccountID: claims.Subject}, nil
}

// Resolve reads the token from the Authorization header or, for websocket
// upgrades where browsers cannot set headers, the token query parameter.
// A request without any token is anonymous; a bad token is an error.
func (v *Verifier) Resolve(r *http.Request) (domain.Principal, error) {
	token := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	} else {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return domain.Principal{}, nil
	}
	return v.Parse(token)
}

type principalKey struct{}

// Middleware attaches the resolved principal to the request context and rejects bad tokens.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who, err := v.Resolve(r)
		if err != nil {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), who)))
	})
}

func WithPrincipal(ctx context.Context, who domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, who)
}

// FromContext returns the principal set by Middleware, anonymous if none.
func FromContext(ctx context.Context) domain.Principal {
	who, _ := ctx.Value(principalKey{}).(domain.Principal)
	return who
}
