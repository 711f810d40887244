package mocks

import (
	"context"
	"errors"

	kdb "github.com/opst/libris/pkg/db"
)

type AccountsInterface struct {
	Impl struct {
		RegisterMember    func(context.Context, kdb.MemberSpec, []byte) (kdb.Member, error)
		GetMember         func(context.Context, string) (kdb.Member, error)
		FindMembers       func(context.Context, kdb.MemberQuery) ([]kdb.Member, error)
		UpdateMember      func(context.Context, string, kdb.MemberSpec) (kdb.Member, error)
		SetMemberStatus   func(context.Context, string, kdb.MemberStatus) (kdb.Member, error)
		SetMemberPassword func(context.Context, string, []byte) error
		CreateStaff       func(context.Context, kdb.StaffSpec, []byte) (kdb.Staff, error)
		GetStaff          func(context.Context, string) (kdb.Staff, error)
		FindStaff         func(context.Context, kdb.Page) ([]kdb.Staff, error)
		Credential        func(context.Context, string) (kdb.Credential, error)
		MemberCredential  func(context.Context, string) (kdb.Credential, error)
	}
	Calls struct {
		RegisterMember CallLog[struct {
			Spec         kdb.MemberSpec
			PasswordHash []byte
		}]
		GetMember CallLog[struct{ ID string }]
		FindMembers CallLog[struct{ Query kdb.MemberQuery }]
		UpdateMember CallLog[struct {
			ID   string
			Spec kdb.MemberSpec
		}]
		SetMemberStatus CallLog[struct {
			ID     string
			Status kdb.MemberStatus
		}]
		SetMemberPassword CallLog[struct {
			ID           string
			PasswordHash []byte
		}]
		CreateStaff CallLog[struct {
			Spec         kdb.StaffSpec
			PasswordHash []byte
		}]
		GetStaff CallLog[struct{ ID string }]
		FindStaff CallLog[struct{ Page kdb.Page }]
		Credential CallLog[struct{ Email string }]
		MemberCredential CallLog[struct{ MemberID string }]
	}
}

func NewAccountsInterface() *AccountsInterface {
	return &AccountsInterface{}
}

var _ kdb.AccountsInterface = &AccountsInterface{}

func (m *AccountsInterface) RegisterMember(ctx context.Context, spec kdb.MemberSpec, passwordHash []byte) (kdb.Member, error) {
	m.Calls.RegisterMember = append(m.Calls.RegisterMember, struct {
		Spec         kdb.MemberSpec
		PasswordHash []byte
	}{
		Spec: spec, PasswordHash: passwordHash,
	})
	if m.Impl.RegisterMember != nil {
		return m.Impl.RegisterMember(ctx, spec, passwordHash)
	}
	panic(errors.New("it should not be called"))
}

func (m *AccountsInterface) GetMember(ctx context.Context, id string) (kdb.Member, error) {
	m.Calls.GetMember = append(m.Calls.GetMember, struct{ ID string }{ID: id})
	if m.Impl.GetMember != nil {
		return m.Impl.GetMember(ctx, id)
	}
	panic(errors.New("it should not be called"))
}

func (m *AccountsInterface) FindMembers(ctx context.Context, query kdb.MemberQuery) ([]kdb.Member, error) {
	m.Calls.FindMembers = append(m.Calls.FindMembers, struct{ Query kdb.MemberQuery }{Query: query})
	if m.Impl.FindMembers != nil {
		return m.Impl.FindMembers(ctx, query)
	}
	panic(errors.New("it should not be called"))
}

func (m *AccountsInterface) UpdateMember(ctx context.Context, id string, spec kdb.MemberSpec) (kdb.Member, error) {
	m.Calls.UpdateMember = append(m.Calls.UpdateMember, struct {
		ID   string
		Spec kdb.MemberSpec
	}{
		ID: id, Spec: spec,
	})
	if m.Impl.UpdateMember != nil {
		return m.Impl.UpdateMember(ctx, id, spec)
	}
	panic(errors.New("it should not be called"))
}

func (m *AccountsInterface) SetMemberStatus(ctx context.Context, id string, status kdb.MemberStatus) (kdb.Member, error) {
	m.Calls.SetMemberStatus = append(m.Calls.SetMemberStatus, struct {
		ID     string
		Status kdb.MemberStatus
	}{
		ID: id, Status: status,
	})
	if m.Impl.SetMemberStatus != nil {
		return m.Impl.SetMemberStatus(ctx, id, status)
	}
	panic(errors.New("it should not be called"))
}

func (m *AccountsInterface) SetMemberPassword(ctx context.Context, id string, passwordHash []byte) error {
	m.Calls.SetMemberPassword = append(m.Calls.SetMemberPassword, struct {
		ID           string
		PasswordHash []byte
	}{
		ID: id, PasswordHash: passwordHash,
	})
	if m.Impl.SetMemberPassword != nil {
		return m.Impl.SetMemberPassword(ctx, id, passwordHash)
	}
	panic(errors.New("it should not be called"))
}

func (m *AccountsInterface) CreateStaff(ctx context.Context, spec kdb.StaffSpec, passwordHash []byte) (kdb.Staff, error) {
	m.Calls.CreateStaff = append(m.Calls.CreateStaff, struct {
		Spec         kdb.StaffSpec
		PasswordHash []byte
	}{
		Spec: spec, PasswordHash: passwordHash,
	})
	if m.Impl.CreateStaff != nil {
		return m.Impl.CreateStaff(ctx, spec, passwordHash)
	}
	panic(errors.New("it should not be called"))
}

func (m *AccountsInterface) GetStaff(ctx context.Context, id string) (kdb.Staff, error) {
	m.Calls.GetStaff = append(m.Calls.GetStaff, struct{ ID string }{ID: id})
	if m.Impl.GetStaff != nil {
		return m.Impl.GetStaff(ctx, id)
	}
	panic(errors.New("it should not be called"))
}

func (m *AccountsInterface) FindStaff(ctx context.Context, page kdb.Page) ([]kdb.Staff, error) {
	m.Calls.FindStaff = append(m.Calls.FindStaff, struct{ Page kdb.Page }{Page: page})
	if m.Impl.FindStaff != nil {
		return m.Impl.FindStaff(ctx, page)
	}
	panic(errors.New("it should not be called"))
}

func (m *AccountsInterface) Credential(ctx context.Context, email string) (kdb.Credential, error) {
	m.Calls.Credential = append(m.Calls.Credential, struct{ Email string }{Email: email})
	if m.Impl.Credential != nil {
		return m.Impl.Credential(ctx, email)
	}
	panic(errors.New("it should not be called"))
}

func (m *AccountsInterface) MemberCredential(ctx context.Context, memberID string) (kdb.Credential, error) {
	m.Calls.MemberCredential = append(m.Calls.MemberCredential, struct{ MemberID string }{MemberID: memberID})
	if m.Impl.MemberCredential != nil {
		return m.Impl.MemberCredential(ctx, memberID)
	}
	panic(errors.New("it should not be called"))
}
