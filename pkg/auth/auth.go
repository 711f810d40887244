// Package auth issues and verifies access tokens of library members and staff.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/opst/libris/pkg/auth/key"
	"github.com/opst/libris/pkg/auth/keychain"
	kdb "github.com/opst/libris/pkg/db"
	xe "github.com/opst/libris/pkg/errors"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Principal is who sends a request.
type Principal struct {
	ID   string
	Role kdb.Role
}

// Kind is "staff" for librarians and admins, otherwise "member".
func (p Principal) Kind() string {
	if p.Role.IsStaff() {
		return "staff"
	}
	return "member"
}

// CanActFor tells p may read or act on records of the member.
func (p Principal) CanActFor(memberID string) bool {
	return p.Role.IsStaff() || (p.Role == kdb.RoleMember && p.ID == memberID)
}

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Issuer makes access tokens.
type Issuer interface {
	// Issue signs a token for p.
	//
	// # Returns
	//
	// - string: the token
	//
	// - time.Time: when the token expires
	//
	// - error
	Issue(p Principal) (string, time.Time, error)
}

// Verifier reads access tokens.
type Verifier interface {
	// Verify checks token and returns its principal.
	//
	// # Returns
	//
	// - error: ErrUnauthenticated when the token is not acceptable.
	Verify(token string) (Principal, error)
}

const (
	DefaultIssuer   = "libris"
	DefaultTokenTTL = 12 * time.Hour
)

type Authority struct {
	issuer   string
	ttl      time.Duration
	keychain keychain.Keychain
	now      func() time.Time
}

var _ Issuer = &Authority{}
var _ Verifier = &Authority{}

type Option func(*Authority) *Authority

func WithIssuer(issuer string) Option {
	return func(a *Authority) *Authority {
		if issuer != "" {
			a.issuer = issuer
		}
		return a
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(a *Authority) *Authority {
		if 0 < ttl {
			a.ttl = ttl
		}
		return a
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Authority) *Authority {
		a.now = now
		return a
	}
}

// NewAuthority returns an Authority signing with keys in kc.
func NewAuthority(kc keychain.Keychain, options ...Option) *Authority {
	a := &Authority{
		issuer:   DefaultIssuer,
		ttl:      DefaultTokenTTL,
		keychain: kc,
		now:      time.Now,
	}
	for _, opt := range options {
		a = opt(a)
	}
	return a
}

// NewKeychain returns a keychain with one key.
//
// When secret is not empty, the key is made from the secret and never expires.
// Otherwise a key is issued by policy; tokens signed with it do not survive restarts.
func NewKeychain(secret []byte, policy key.KeyPolicy) (keychain.Keychain, error) {
	var k key.Key
	if len(secret) != 0 {
		_k, err := key.HS256Secret(secret, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))
		if err != nil {
			return nil, err
		}
		k = _k
	} else {
		_k, err := policy.Issue()
		if err != nil {
			return nil, xe.Wrap(err)
		}
		k = _k
	}
	kc := keychain.New()
	kc.Set(key.ID(k), k)
	return kc, nil
}

func (a *Authority) Issue(p Principal) (string, time.Time, error) {
	now := a.now()
	kid, k, ok := a.keychain.GetKey(
		keychain.WithAlg(jwt.SigningMethodHS256.Name),
		keychain.WithExpAfter(now),
	)
	if !ok {
		return "", time.Time{}, xe.Wrap(keychain.ErrNoKeyFound)
	}

	exp := now.Add(a.ttl).Truncate(time.Second)
	if kexp := k.Exp(); kexp.Before(exp) {
		exp = kexp
	}

	tok, err := keychain.NewJWS(kid, k, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: p.Role.String(),
	})
	if err != nil {
		return "", time.Time{}, xe.Wrap(err)
	}
	return tok, exp, nil
}

func (a *Authority) Verify(token string) (Principal, error) {
	c, err := keychain.VerifyJWS[*Claims](
		a.keychain, token,
		jwt.WithIssuer(a.issuer),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if errors.Is(err, keychain.ErrInvalidToken) {
		return Principal{}, errors.Join(ErrUnauthenticated, err)
	} else if err != nil {
		return Principal{}, xe.Wrap(err)
	}

	role, err := kdb.AsRole(c.Role)
	if err != nil || c.Subject == "" {
		return Principal{}, errors.Join(ErrUnauthenticated, errors.New("malformed claims"))
	}
	return Principal{ID: c.Subject, Role: role}, nil
}
