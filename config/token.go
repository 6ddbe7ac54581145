// Package config — token.go
//
// Some deployments issue the media API token as a JWT. When it is one, we
// can inspect the expiry up front and warn before a 40-minute suite burns
// half its budget on 401s. Opaque tokens pass through untouched.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry inspects token without verifying its signature and returns
// the embedded expiry claim. ok is false when the token is not a parseable
// JWT or carries no exp claim — that is not an error, just an opaque token.
func TokenExpiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// CheckToken returns an error when the configured token is a JWT that has
// already expired. Called from the CLI as a preflight, not from scenarios.
func CheckToken() error {
	exp, ok := TokenExpiry(APIToken())
	if !ok {
		return nil
	}
	if time.Now().After(exp) {
		return fmt.Errorf("config: MEDIA_API_TOKEN expired at %s", exp.Format(time.RFC3339))
	}
	return nil
}
