package auth_test

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/opst/libris/pkg/auth"
)

func testClaims(exp time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    auth.DefaultIssuer,
		Subject:   "member-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
}
