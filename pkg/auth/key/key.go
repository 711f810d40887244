package key

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrShortSecret = errors.New("secret is too short")

// MinSecretLength is the shortest secret accepted for HS256, in bytes.
const MinSecretLength = 32

type Key interface {
	// Name of the algorithm
	Alg() string

	// Expiration time of the key
	Exp() time.Time

	// Key to sign messages.
	ToSign() any

	// Key to verify messages.
	ToVerify() any

	// Equal returns true if the key is equal to the other key
	Equal(k Key) bool

	// String returns the key in string format, without secrets.
	String() string
}

type KeyPolicy interface {
	// Issue a new key
	Issue() (Key, error)
}

type hs256policy struct {
	ttl    time.Duration
	keyLen uint
}

func (f hs256policy) Issue() (Key, error) {
	k := make([]byte, f.keyLen)
	if _, err := rand.Read(k); err != nil {
		return nil, err
	}

	return &hs256Key{
		exp:    time.Now().Add(f.ttl).Truncate(time.Second),
		secret: k,
	}, nil
}

// HS256 returns a KeyPolicy for HMAC-SHA256 algorithm, issuing random keys.
//
// # Args
//
// - ttl: Time to live of new keys
//
// - klen: Length of the key in *bytes*, not bits.
func HS256(ttl time.Duration, klen uint) KeyPolicy {
	return hs256policy{
		ttl:    ttl,
		keyLen: klen,
	}
}

// HS256Secret returns a HMAC-SHA256 key from a configured secret.
//
// # Returns
//
// - Key: key expiring at exp
//
// - error: ErrShortSecret when secret is shorter than MinSecretLength
func HS256Secret(secret []byte, exp time.Time) (Key, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf(
			"%w: %d bytes (>= %d required)", ErrShortSecret, len(secret), MinSecretLength,
		)
	}
	return &hs256Key{exp: exp, secret: bytes.Clone(secret)}, nil
}

type hs256Key struct {
	exp    time.Time
	secret []byte
}

func (*hs256Key) Alg() string {
	return jwt.SigningMethodHS256.Name
}

func (hk *hs256Key) Exp() time.Time {
	return hk.exp
}

func (hk *hs256Key) ToSign() any {
	return hk.secret
}

func (hk *hs256Key) ToVerify() any {
	return hk.secret
}

func (hk *hs256Key) Equal(k Key) bool {
	other, ok := k.(*hs256Key)
	if !ok {
		return false
	}
	return hk.exp.Equal(other.exp) && bytes.Equal(hk.secret, other.secret)
}

func (hk *hs256Key) String() string {
	return fmt.Sprintf("HS256 key (exp: %s)", hk.exp.Format(time.RFC3339))
}

// ID derives a stable key id from the key material.
//
// The same secret always gets the same id, so tokens survive restarts.
func ID(k Key) string {
	var material []byte
	switch s := k.ToVerify().(type) {
	case []byte:
		material = s
	default:
		material = []byte(fmt.Sprint(s))
	}
	sum := sha256.Sum256(append([]byte(k.Alg()+":"), material...))
	return hex.EncodeToString(sum[:8])
}
