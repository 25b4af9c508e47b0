// Package auth authenticates submitting systems. Each channel (police feed,
// manual entry portal, online plea service, ...) presents a bearer JWT whose
// channel claim names it; handlers read the channel from the request context.
package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/httputil"
	"caseflow/pkg/requestcontext"
)

// ChannelClaims are the claims a channel credential carries.
type ChannelClaims struct {
	Channel string `json:"channel"`
	jwt.RegisteredClaims
}

// Verifier validates channel credentials.
type Verifier struct {
	signingKey []byte
	issuer     string
}

func NewVerifier(signingKey, issuer string) *Verifier {
	return &Verifier{signingKey: []byte(signingKey), issuer: issuer}
}

// IssueToken mints a channel credential. Used by provisioning tooling and
// tests; the service itself only verifies.
func (v *Verifier) IssueToken(channel string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ChannelClaims{
		Channel: channel,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    v.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(v.signingKey)
}

// ValidateToken parses and verifies a channel credential.
func (v *Verifier) ValidateToken(tokenString string) (*ChannelClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &ChannelClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	}, jwt.WithIssuer(v.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*ChannelClaims)
	if !ok || claims.Channel == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing channel claim")
	}
	return claims, nil
}

// RequireChannel rejects requests without a valid channel credential and puts
// the authenticated channel into the request context.
func RequireChannel(verifier *Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := verifier.ValidateToken(strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				logger.Warn("channel authentication failed",
					"path", r.URL.Path, "error", err)
				httputil.WriteError(w, err)
				return
			}

			ctx := requestcontext.WithChannel(r.Context(), claims.Channel)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
