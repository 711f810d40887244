package accounts

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	kdb "github.com/opst/libris/pkg/db"
)

var ErrInvalidRequest = errors.New("invalid request")

// MinPasswordLength is the shortest password accepted.
const MinPasswordLength = 8

type Member struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Registration string    `json:"registration"`
	Phone        string    `json:"phone,omitempty"`
	Kind         string    `json:"kind"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

func ComposeMember(m kdb.Member) Member {
	return Member{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		Registration: m.Registration,
		Phone:        m.Phone,
		Kind:         string(m.Kind),
		Status:       string(m.Status),
		CreatedAt:    m.CreatedAt,
	}
}

// MemberRequest is a body to register or update a member.
type MemberRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Registration string `json:"registration"`
	Phone        string `json:"phone"`
	Kind         string `json:"kind"`

	// Password is required on registration, and ignored on updates.
	Password string `json:"password,omitempty"`
}

func (r MemberRequest) Spec() (kdb.MemberSpec, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return kdb.MemberSpec{}, fmt.Errorf(`%w: "name" is required`, ErrInvalidRequest)
	}
	email, err := normalizeEmail(r.Email)
	if err != nil {
		return kdb.MemberSpec{}, err
	}
	registration := strings.TrimSpace(r.Registration)
	if registration == "" {
		return kdb.MemberSpec{}, fmt.Errorf(`%w: "registration" is required`, ErrInvalidRequest)
	}
	kind, err := kdb.AsMemberKind(r.Kind)
	if err != nil {
		return kdb.MemberSpec{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return kdb.MemberSpec{
		Name:         name,
		Email:        email,
		Registration: registration,
		Phone:        strings.TrimSpace(r.Phone),
		Kind:         kind,
	}, nil
}

func normalizeEmail(s string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil || addr.Name != "" {
		return "", fmt.Errorf(`%w: "email" is not an email address: %q`, ErrInvalidRequest, s)
	}
	return addr.Address, nil
}

// CheckPassword tells whether the password is acceptable for a new one.
func CheckPassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf(
			"%w: password should have %d characters or more", ErrInvalidRequest, MinPasswordLength,
		)
	}
	return nil
}

type StatusRequest struct {
	Status string `json:"status"`
}

type PasswordRequest struct {
	// OldPassword is required when members change their own password.
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type Staff struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func ComposeStaff(s kdb.Staff) Staff {
	return Staff{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Role:      string(s.Role),
		CreatedAt: s.CreatedAt,
	}
}

type StaffRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

func (r StaffRequest) Spec() (kdb.StaffSpec, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return kdb.StaffSpec{}, fmt.Errorf(`%w: "name" is required`, ErrInvalidRequest)
	}
	email, err := normalizeEmail(r.Email)
	if err != nil {
		return kdb.StaffSpec{}, err
	}
	role, err := kdb.AsStaffRole(r.Role)
	if err != nil {
		return kdb.StaffSpec{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := CheckPassword(r.Password); err != nil {
		return kdb.StaffSpec{}, err
	}
	return kdb.StaffSpec{Name: name, Email: email, Role: role}, nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Principal struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Principal Principal `json:"principal"`
}
