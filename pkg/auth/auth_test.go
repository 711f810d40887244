package auth_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/opst/libris/pkg/auth"
	"github.com/opst/libris/pkg/auth/key"
	"github.com/opst/libris/pkg/auth/keychain"
	kdb "github.com/opst/libris/pkg/db"
	"github.com/opst/libris/pkg/utils/try"
)

var secret = bytes.Repeat([]byte("0123456789abcdef"), 2)

func TestAuthority(t *testing.T) {
	kc := try.To(auth.NewKeychain(secret, key.Failing(errors.New("should not be issued")))).OrFatal(t)

	now := time.Now().Truncate(time.Second)
	clock := func() time.Time { return now }
	testee := auth.NewAuthority(kc, auth.WithTokenTTL(time.Hour), auth.WithClock(clock))

	t.Run("issued tokens are verified", func(t *testing.T) {
		for _, p := range []auth.Principal{
			{ID: "member-1", Role: kdb.RoleMember},
			{ID: "staff-1", Role: kdb.RoleLibrarian},
			{ID: "staff-2", Role: kdb.RoleAdmin},
		} {
			tok, exp, err := testee.Issue(p)
			if err != nil {
				t.Fatal(err)
			}
			if !exp.Equal(now.Add(time.Hour)) {
				t.Errorf("exp: %s", exp)
			}
			got := try.To(testee.Verify(tok)).OrFatal(t)
			if diff := cmp.Diff(p, got); diff != "" {
				t.Errorf("(-want +got): %s", diff)
			}
		}
	})

	t.Run("tokens survive restart with the same secret", func(t *testing.T) {
		tok, _, err := testee.Issue(auth.Principal{ID: "member-1", Role: kdb.RoleMember})
		if err != nil {
			t.Fatal(err)
		}
		restarted := auth.NewAuthority(
			try.To(auth.NewKeychain(secret, nil)).OrFatal(t),
			auth.WithClock(clock),
		)
		if _, err := restarted.Verify(tok); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("tokens expire", func(t *testing.T) {
		tok, _, err := testee.Issue(auth.Principal{ID: "member-1", Role: kdb.RoleMember})
		if err != nil {
			t.Fatal(err)
		}
		later := auth.NewAuthority(kc, auth.WithClock(func() time.Time { return now.Add(2 * time.Hour) }))
		if _, err := later.Verify(tok); !errors.Is(err, auth.ErrUnauthenticated) {
			t.Errorf("expected ErrUnauthenticated, but %v", err)
		}
	})

	t.Run("tokens of other issuers are refused", func(t *testing.T) {
		other := auth.NewAuthority(kc, auth.WithIssuer("someone"), auth.WithClock(clock))
		tok, _, err := other.Issue(auth.Principal{ID: "member-1", Role: kdb.RoleMember})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := testee.Verify(tok); !errors.Is(err, auth.ErrUnauthenticated) {
			t.Errorf("expected ErrUnauthenticated, but %v", err)
		}
	})

	t.Run("tokens signed by another key are refused", func(t *testing.T) {
		random := try.To(auth.NewKeychain(nil, key.HS256(time.Hour, 32))).OrFatal(t)
		tok, _, err := auth.NewAuthority(random, auth.WithClock(clock)).
			Issue(auth.Principal{ID: "member-1", Role: kdb.RoleMember})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := testee.Verify(tok); !errors.Is(err, auth.ErrUnauthenticated) {
			t.Errorf("expected ErrUnauthenticated, but %v", err)
		}
	})

	t.Run("tokens with unknown roles are refused", func(t *testing.T) {
		_, k, _ := kc.GetKey()
		tok := try.To(keychain.NewJWS(key.ID(k), k, &auth.Claims{
			RegisteredClaims: testClaims(now.Add(time.Hour)),
			Role:             "superuser",
		})).OrFatal(t)
		if _, err := testee.Verify(tok); !errors.Is(err, auth.ErrUnauthenticated) {
			t.Errorf("expected ErrUnauthenticated, but %v", err)
		}
	})

	t.Run("garbage is refused", func(t *testing.T) {
		if _, err := testee.Verify(strings.Repeat("x", 20)); !errors.Is(err, auth.ErrUnauthenticated) {
			t.Errorf("expected ErrUnauthenticated, but %v", err)
		}
	})

	t.Run("a short secret is an error", func(t *testing.T) {
		if _, err := auth.NewKeychain([]byte("short"), nil); !errors.Is(err, key.ErrShortSecret) {
			t.Errorf("expected ErrShortSecret, but %v", err)
		}
	})
}

func TestPrincipal(t *testing.T) {
	for name, testcase := range map[string]struct {
		when   auth.Principal
		target string
		then   bool
	}{
		"a member acts for self": {
			when: auth.Principal{ID: "m1", Role: kdb.RoleMember}, target: "m1", then: true,
		},
		"a member does not act for others": {
			when: auth.Principal{ID: "m1", Role: kdb.RoleMember}, target: "m2", then: false,
		},
		"a librarian acts for anyone": {
			when: auth.Principal{ID: "s1", Role: kdb.RoleLibrarian}, target: "m2", then: true,
		},
		"an admin acts for anyone": {
			when: auth.Principal{ID: "s1", Role: kdb.RoleAdmin}, target: "m2", then: true,
		},
	} {
		t.Run(name, func(t *testing.T) {
			if got := testcase.when.CanActFor(testcase.target); got != testcase.then {
				t.Errorf("expected %v, but %v", testcase.then, got)
			}
		})
	}
}

func TestPassword(t *testing.T) {
	hash := try.To(auth.HashPassword("correct horse")).OrFatal(t)

	if !auth.ComparePassword(hash, "correct horse") {
		t.Errorf("password does not match its hash")
	}
	if auth.ComparePassword(hash, "battery staple") {
		t.Errorf("wrong password matches")
	}
	if auth.RejectPassword("correct horse") {
		t.Errorf("RejectPassword accepts")
	}
	if _, err := auth.HashPassword(strings.Repeat("a", 73)); !errors.Is(err, auth.ErrPasswordTooLong) {
		t.Errorf("expected ErrPasswordTooLong, but %v", err)
	}
}
