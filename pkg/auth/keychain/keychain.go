package keychain

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/opst/libris/pkg/auth/key"
)

var ErrNoKeyFound error = errors.New("no key found")
var ErrInvalidToken error = errors.New("invalid token")

// NewJWS signs for claim and returns a JWS (JSON Web Signature) token string
//
// # Args
//
// - kid: Key ID, put in the "kid" header
//
// - k: Key to sign
//
// - claims: Claims to be signed
//
// # Returns
//
// - string: JWT token string
//
// - error: from [jwt.Token.SignedString]
func NewJWS[C jwt.Claims](kid string, k key.Key, claims C) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok.Header["kid"] = kid
	return tok.SignedString(k.ToSign())
}

// VerifyJWS verifies a JWS (JSON Web Signature) token and returns the claims
//
// # Args
//
// - keychain: Keychain to find the key to verify the token
//
// - token: JWT token string
//
// - opts: options passed to the parser, e.g. [jwt.WithIssuer]
//
// # Returns
//
// - C: Claims. The type C should be a pointer to a struct that implements [jwt.Claims].
//
// - error: can be [ErrInvalidToken] when the token is malformed, badly signed, expired or
// signed by a key not in the keychain, or any errors from [jwt.ParseWithClaims]
func VerifyJWS[C jwt.Claims](keychain Keychain, token string, opts ...jwt.ParserOption) (C, error) {
	now := time.Now()

	_c := *new(C)

	{
		rc := reflect.ValueOf(&_c).Elem()
		if rc.Kind() != reflect.Ptr {
			return *new(C), errors.New("claims type must be a pointer")
		}

		val := reflect.New(rc.Type().Elem()).Interface()
		_c = val.(C)
	}

	opts = append([]jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})}, opts...)
	tok, err := jwt.ParseWithClaims(token, _c, func(t *jwt.Token) (interface{}, error) {
		q := []KeyRequirement{
			WithExpAfter(now),
			WithAlg(t.Method.Alg()),
		}
		if kid, ok := t.Header["kid"].(string); ok {
			q = append(q, WithKeyId(kid))
		}
		_, k, ok := keychain.GetKey(q...)
		if !ok {
			return nil, ErrNoKeyFound
		}
		return k.ToVerify(), nil
	}, opts...)
	if err != nil {
		for _, known := range []error{
			jwt.ErrTokenMalformed,
			jwt.ErrSignatureInvalid,
			jwt.ErrTokenExpired,
			jwt.ErrTokenNotValidYet,
			jwt.ErrTokenInvalidIssuer,
			jwt.ErrTokenSignatureInvalid,
			jwt.ErrTokenUnverifiable,
			ErrNoKeyFound,
		} {
			if errors.Is(err, known) {
				return *new(C), errors.Join(ErrInvalidToken, err)
			}
		}
		return *new(C), err
	}
	if c, ok := tok.Claims.(C); ok {
		return c, nil
	} else {
		return *new(C), fmt.Errorf("%w: unexpected claims type: %T", ErrInvalidToken, tok.Claims)
	}
}

type KeyRequirement func(kid string, k key.Key) bool

// WithAlg returns a KeyRequirement that filters the key by the algorithm.
func WithAlg(alg string) KeyRequirement {
	return func(_ string, k key.Key) bool {
		return k.Alg() == alg
	}
}

// WithExpAfter returns a KeyRequirement that filters the key by the expiration time.
//
// It returns true if the key's expiration time is after the given time.
func WithExpAfter(t time.Time) KeyRequirement {
	return func(_ string, k key.Key) bool {
		return k.Exp().After(t)
	}
}

// WithKeyId returns a KeyRequirement that filters the key by the Key ID.
func WithKeyId(kid string) KeyRequirement {
	return func(_kid string, _ key.Key) bool {
		return _kid == kid
	}
}

type Keychain interface {
	// GetKey a key from the keychain
	//
	// # Args
	//
	// - req: Requirements of the key. If multiple keys satisfy requirements, the one expiring last is returned.
	//
	// # Returns
	//
	// - string: Key ID of the key found. If not found, it returns an empty string
	//
	// - Key: The key found. If not found, it returns nil
	//
	// - bool: True if the key is found
	GetKey(req ...KeyRequirement) (string, key.Key, bool)

	// Set a key in the keychain. If the key for Key ID exists, it is overwritten.
	Set(kid string, key key.Key)

	// Delete a key from the keychain
	Delete(kid string)

	// Prune removes keys expired at now.
	Prune(now time.Time)
}

type keychain struct {
	m    sync.RWMutex
	keys map[string]key.Key
}

// New returns an in-memory keychain.
func New() Keychain {
	return &keychain{keys: map[string]key.Key{}}
}

func (kc *keychain) GetKey(req ...KeyRequirement) (string, key.Key, bool) {
	kc.m.RLock()
	defer kc.m.RUnlock()

	foundId := ""
	var found key.Key
KEY:
	for kid, k := range kc.keys {
		for _, r := range req {
			if !r(kid, k) {
				continue KEY
			}
		}
		if found == nil || found.Exp().Before(k.Exp()) {
			foundId, found = kid, k
		}
	}

	return foundId, found, found != nil
}

func (kc *keychain) Set(kid string, k key.Key) {
	kc.m.Lock()
	defer kc.m.Unlock()
	kc.keys[kid] = k
}

func (kc *keychain) Delete(kid string) {
	kc.m.Lock()
	defer kc.m.Unlock()
	delete(kc.keys, kid)
}

func (kc *keychain) Prune(now time.Time) {
	kc.m.Lock()
	defer kc.m.Unlock()
	for kid, k := range kc.keys {
		if !k.Exp().After(now) {
			delete(kc.keys, kid)
		}
	}
}
