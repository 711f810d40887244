package db

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrUnknownMemberKind = errors.New("unknown member kind")

type MemberKind string

const (
	Student   MemberKind = "student"
	Professor MemberKind = "professor"
	Employee  MemberKind = "staff"
)

func (k MemberKind) String() string {
	return string(k)
}

func AsMemberKind(s string) (MemberKind, error) {
	switch MemberKind(s) {
	case Student, Professor, Employee:
		return MemberKind(s), nil
	default:
		return MemberKind(s), fmt.Errorf("%w: %s", ErrUnknownMemberKind, s)
	}
}

var ErrUnknownMemberStatus = errors.New("unknown member status")

type MemberStatus string

const (
	MemberActive    MemberStatus = "active"
	MemberSuspended MemberStatus = "suspended"
)

func AsMemberStatus(s string) (MemberStatus, error) {
	switch MemberStatus(s) {
	case MemberActive, MemberSuspended:
		return MemberStatus(s), nil
	default:
		return MemberStatus(s), fmt.Errorf("%w: %s", ErrUnknownMemberStatus, s)
	}
}

var ErrUnknownRole = errors.New("unknown role")

// Role of a principal.
type Role string

const (
	RoleMember    Role = "member"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

// IsStaff tells the role belongs to library staff.
func (r Role) IsStaff() bool {
	return r == RoleLibrarian || r == RoleAdmin
}

func AsRole(s string) (Role, error) {
	switch Role(s) {
	case RoleMember, RoleLibrarian, RoleAdmin:
		return Role(s), nil
	default:
		return Role(s), fmt.Errorf("%w: %s", ErrUnknownRole, s)
	}
}

// AsStaffRole is AsRole but accepts staff roles only.
func AsStaffRole(s string) (Role, error) {
	r, err := AsRole(s)
	if err != nil {
		return r, err
	}
	if !r.IsStaff() {
		return r, fmt.Errorf("%w: %s is not a staff role", ErrUnknownRole, s)
	}
	return r, nil
}

type MemberSpec struct {
	Name  string
	Email string

	// Registration is the number issued by the university (student number, employee number...).
	Registration string

	Phone string
	Kind  MemberKind
}

type Member struct {
	ID string
	MemberSpec
	Status    MemberStatus
	CreatedAt time.Time
}

type MemberQuery struct {
	// Text matches name, email or registration (case insensitive, partial).
	Text string

	// Kind and Status filter members when not empty.
	Kind   MemberKind
	Status MemberStatus

	Page
}

type StaffSpec struct {
	Name  string
	Email string
	Role  Role
}

type Staff struct {
	ID string
	StaffSpec
	CreatedAt time.Time
}

// Credential is what is needed to authenticate a principal.
type Credential struct {
	PrincipalID  string
	Role         Role
	PasswordHash []byte

	// Active is false when the principal is not allowed to log in.
	Active bool
}

type AccountsInterface interface {
	// RegisterMember creates a new active member.
	//
	// # Returns
	//
	// - error: ErrConflict when email or registration is taken.
	RegisterMember(ctx context.Context, spec MemberSpec, passwordHash []byte) (Member, error)

	GetMember(ctx context.Context, id string) (Member, error)
	FindMembers(ctx context.Context, query MemberQuery) ([]Member, error)
	UpdateMember(ctx context.Context, id string, spec MemberSpec) (Member, error)
	SetMemberStatus(ctx context.Context, id string, status MemberStatus) (Member, error)
	SetMemberPassword(ctx context.Context, id string, passwordHash []byte) error

	CreateStaff(ctx context.Context, spec StaffSpec, passwordHash []byte) (Staff, error)
	GetStaff(ctx context.Context, id string) (Staff, error)
	FindStaff(ctx context.Context, page Page) ([]Staff, error)

	// Credential looks up staff and members by email.
	//
	// # Returns
	//
	// - error: ErrMissing when nobody has the email.
	Credential(ctx context.Context, email string) (Credential, error)

	// MemberCredential looks up a member by id.
	MemberCredential(ctx context.Context, memberID string) (Credential, error)
}
