package accounts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	kdb "github.com/opst/libris/pkg/db"
	"github.com/opst/libris/pkg/db/postgres/accounts"
	"github.com/opst/libris/pkg/db/postgres/pool/testenv"
	"github.com/opst/libris/pkg/utils/try"
)

func TestMembers(t *testing.T) {
	ctx := context.Background()
	pool := testenv.NewPoolBroaker(ctx, t).GetPool(ctx, t)
	testee := accounts.New(pool)

	alice := try.To(testee.RegisterMember(ctx, kdb.MemberSpec{
		Name: "Alice Liddell", Email: "Alice@Example.edu", Registration: "S-001", Kind: kdb.Student,
	}, []byte("alice-hash"))).OrFatal(t)
	bob := try.To(testee.RegisterMember(ctx, kdb.MemberSpec{
		Name: "Bob Cratchit", Email: "bob@example.edu", Registration: "E-001", Kind: kdb.Employee,
	}, []byte("bob-hash"))).OrFatal(t)

	if alice.Status != kdb.MemberActive {
		t.Errorf("new member should be active: %+v", alice)
	}

	for name, testcase := range map[string]kdb.MemberSpec{
		"email is unique ignoring case": {
			Name: "x", Email: "alice@example.EDU", Registration: "S-999", Kind: kdb.Student,
		},
		"registration is unique": {
			Name: "x", Email: "x@example.edu", Registration: "S-001", Kind: kdb.Student,
		},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := testee.RegisterMember(ctx, testcase, []byte("h")); !errors.Is(err, kdb.ErrConflict) {
				t.Errorf("expected conflict, but %v", err)
			}
		})
	}

	for name, testcase := range map[string]struct {
		when kdb.MemberQuery
		then []string
	}{
		"all": {when: kdb.MemberQuery{}, then: []string{alice.ID, bob.ID}},
		"by text": {when: kdb.MemberQuery{Text: "cratch"}, then: []string{bob.ID}},
		"by kind": {when: kdb.MemberQuery{Kind: kdb.Student}, then: []string{alice.ID}},
		"by registration": {when: kdb.MemberQuery{Text: "e-00"}, then: []string{bob.ID}},
	} {
		t.Run("FindMembers "+name, func(t *testing.T) {
			got := []string{}
			for _, m := range try.To(testee.FindMembers(ctx, testcase.when)).OrFatal(t) {
				got = append(got, m.ID)
			}
			if diff := cmp.Diff(testcase.then, got); diff != "" {
				t.Errorf("(-want +got): %s", diff)
			}
		})
	}

	t.Run("credentials follow the member status", func(t *testing.T) {
		c := try.To(testee.Credential(ctx, "ALICE@example.edu")).OrFatal(t)
		expected := kdb.Credential{
			PrincipalID: alice.ID, Role: kdb.RoleMember, PasswordHash: []byte("alice-hash"), Active: true,
		}
		if diff := cmp.Diff(expected, c); diff != "" {
			t.Errorf("(-want +got): %s", diff)
		}

		try.To(testee.SetMemberStatus(ctx, alice.ID, kdb.MemberSuspended)).OrFatal(t)
		c = try.To(testee.MemberCredential(ctx, alice.ID)).OrFatal(t)
		if c.Active {
			t.Errorf("suspended member is active: %+v", c)
		}
	})

	t.Run("password can be changed", func(t *testing.T) {
		if err := testee.SetMemberPassword(ctx, bob.ID, []byte("new-hash")); err != nil {
			t.Fatal(err)
		}
		c := try.To(testee.MemberCredential(ctx, bob.ID)).OrFatal(t)
		if string(c.PasswordHash) != "new-hash" {
			t.Errorf("hash: %s", c.PasswordHash)
		}
	})

	t.Run("unknown email is missing", func(t *testing.T) {
		if _, err := testee.Credential(ctx, "nobody@example.edu"); !errors.Is(err, kdb.ErrMissing) {
			t.Errorf("expected missing, but %v", err)
		}
	})
}

func TestStaff(t *testing.T) {
	ctx := context.Background()
	pool := testenv.NewPoolBroaker(ctx, t).GetPool(ctx, t)
	testee := accounts.New(pool)

	admin := try.To(testee.CreateStaff(ctx, kdb.StaffSpec{
		Name: "Admin", Email: "admin@example.edu", Role: kdb.RoleAdmin,
	}, []byte("admin-hash"))).OrFatal(t)

	got := try.To(testee.GetStaff(ctx, admin.ID)).OrFatal(t)
	if diff := cmp.Diff(admin, got); diff != "" {
		t.Errorf("(-want +got): %s", diff)
	}

	c := try.To(testee.Credential(ctx, "admin@example.edu")).OrFatal(t)
	if c.PrincipalID != admin.ID || c.Role != kdb.RoleAdmin || !c.Active {
		t.Errorf("credential: %+v", c)
	}

	if _, err := testee.CreateStaff(ctx, kdb.StaffSpec{
		Name: "Other", Email: "ADMIN@example.edu", Role: kdb.RoleLibrarian,
	}, []byte("h")); !errors.Is(err, kdb.ErrConflict) {
		t.Errorf("expected conflict, but %v", err)
	}

	list := try.To(testee.FindStaff(ctx, kdb.Page{})).OrFatal(t)
	if len(list) != 1 {
		t.Errorf("staff: %+v", list)
	}
}
