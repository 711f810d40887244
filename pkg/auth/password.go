package auth

import (
	"errors"
	"sync"

	xe "github.com/opst/libris/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// HashPassword hashes password with bcrypt.
//
// # Returns
//
// - error: ErrPasswordTooLong when password exceeds 72 bytes.
func HashPassword(password string) ([]byte, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	} else if err != nil {
		return nil, xe.Wrap(err)
	}
	return h, nil
}

// ComparePassword tells password matches hash.
func ComparePassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

var dummy = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("libris-dummy-password"), bcrypt.DefaultCost)
	return h
})

// RejectPassword spends as long as ComparePassword and returns false.
//
// Use it when no account is found, so unknown emails answer as slow as wrong passwords.
func RejectPassword(password string) bool {
	ComparePassword(dummy(), password)
	return false
}
