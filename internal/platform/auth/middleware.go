// Package auth resolves the caller's authenticated identity into the
// Principal every downstream authorization decision is made against.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/phr/phr/pkg/principal"
)

type contextKey string

const callerKey contextKey = "caller_principal"

// DevPrincipalHeader carries the caller identity in development mode.
const DevPrincipalHeader = "X-Dev-Principal"

// Claims are the token claims the server cares about. The subject is the
// caller's Principal; everything else is standard JWT bookkeeping.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTConfig configures bearer-token authentication.
type JWTConfig struct {
	SigningKey []byte
	Issuer     string
	Audience   string
}

// WithCaller returns a context carrying the caller principal.
func WithCaller(ctx context.Context, p principal.Principal) context.Context {
	return context.WithValue(ctx, callerKey, p)
}

// CallerFromContext returns the caller principal, or Nil when absent.
func CallerFromContext(ctx context.Context) principal.Principal {
	p, _ := ctx.Value(callerKey).(principal.Principal)
	return p
}

// Caller returns the authenticated principal for the current request.
// Handlers may assume it is set on any route behind the auth middleware.
func Caller(c echo.Context) principal.Principal {
	return CallerFromContext(c.Request().Context())
}

// JWTMiddleware authenticates requests with an HMAC-signed bearer token
// and derives the caller Principal from the subject claim.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c.Request())
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return cfg.SigningKey, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token issuer")
			}
			if cfg.Audience != "" && !containsAudience(claims.Audience, cfg.Audience) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token audience")
			}

			p, err := principal.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}

			setCaller(c, p)
			return next(c)
		}
	}
}

// DevAuthMiddleware trusts the X-Dev-Principal header as the caller
// identity. Development only; the serve command refuses to install it
// outside ENV=development.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := principal.Parse(c.Request().Header.Get(DevPrincipalHeader))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized,
					fmt.Sprintf("%s header is required in development mode", DevPrincipalHeader))
			}
			setCaller(c, p)
			return next(c)
		}
	}
}

func setCaller(c echo.Context, p principal.Principal) {
	req := c.Request()
	c.SetRequest(req.WithContext(WithCaller(req.Context(), p)))
	c.Set("caller", p.String())
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", fmt.Errorf("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("authorization header is not a bearer token")
	}
	return strings.TrimSpace(parts[1]), nil
}

func containsAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
