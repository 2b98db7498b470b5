package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"pipaura/internal/domain"
)

const (
	userIDKey = "user_id"

	// CronSecretHeader carries the shared secret of the scheduled sweep caller
	CronSecretHeader = "X-Cron-Secret"
)

// SupabaseVerifier validates Supabase access tokens (HS256, signed with the project JWT secret)
type SupabaseVerifier struct {
	secret   []byte
	audience string
}

// NewSupabaseVerifier creates a verifier. An empty audience skips the audience check.
func NewSupabaseVerifier(secret, audience string) *SupabaseVerifier {
	return &SupabaseVerifier{secret: []byte(secret), audience: audience}
}

// Verify parses the token and returns the user id from its subject
func (v *SupabaseVerifier) Verify(_ context.Context, token string) (uuid.UUID, error) {
	if len(v.secret) == 0 {
		return uuid.Nil, &domain.ConfigurationError{Setting: "SUPABASE_JWT_SECRET"}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return uuid.Nil, &domain.AuthenticationError{Reason: "Invalid or expired token"}
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, &domain.AuthenticationError{Reason: "Invalid token subject"}
	}

	return userID, nil
}

// AuthMiddleware requires a valid bearer token and stores the user id in the echo context
func AuthMiddleware(verifier domain.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return &domain.AuthenticationError{Reason: "Missing authentication token"}
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return &domain.AuthenticationError{Reason: "Invalid authorization header format"}
			}

			userID, err := verifier.Verify(c.Request().Context(), strings.TrimSpace(token))
			if err != nil {
				return err
			}

			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// CronSecretMiddleware admits requests carrying the configured shared secret
func CronSecretMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return &domain.ConfigurationError{Setting: "CRON_SECRET"}
			}

			provided := c.Request().Header.Get(CronSecretHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				return &domain.AuthenticationError{Reason: "Unauthorized"}
			}

			return next(c)
		}
	}
}

// GetUserID extracts user ID from echo context
func GetUserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, fmt.Sprintf("%s not found in context", userIDKey))
	}
	return userID, nil
}
