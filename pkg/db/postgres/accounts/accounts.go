package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	kdb "github.com/opst/libris/pkg/db"
	kpgerr "github.com/opst/libris/pkg/db/postgres/errors"
	kpgintr "github.com/opst/libris/pkg/db/postgres/internal"
	kpool "github.com/opst/libris/pkg/db/postgres/pool"
	xe "github.com/opst/libris/pkg/errors"
)

type pgAccounts struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) kdb.AccountsInterface {
	return &pgAccounts{pool: pool}
}

const memberColumns = `
	"member_id", "name", "email", "registration", "phone", "kind", "status", "created_at"
`

func scanMember(row pgx.Row) (kdb.Member, error) {
	m := kdb.Member{}
	var kind, status string
	if err := row.Scan(
		&m.ID, &m.Name, &m.Email, &m.Registration, &m.Phone, &kind, &status, &m.CreatedAt,
	); err != nil {
		return kdb.Member{}, err
	}
	m.Kind = kdb.MemberKind(kind)
	m.Status = kdb.MemberStatus(status)
	return m, nil
}

func (a *pgAccounts) RegisterMember(ctx context.Context, spec kdb.MemberSpec, passwordHash []byte) (kdb.Member, error) {
	id := kpgintr.NewID()
	m, err := scanMember(a.pool.QueryRow(
		ctx,
		`
		insert into "member" (
			"member_id", "name", "email", "registration", "phone", "kind", "password_hash"
		)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning `+memberColumns,
		id, spec.Name, spec.Email, spec.Registration, spec.Phone, string(spec.Kind), passwordHash,
	))
	if err != nil {
		return kdb.Member{}, xe.Wrap(kpgerr.Interpret(err, "member", id))
	}
	return m, nil
}

func (a *pgAccounts) GetMember(ctx context.Context, id string) (kdb.Member, error) {
	if err := kpgintr.CheckID("member", id); err != nil {
		return kdb.Member{}, err
	}
	m, err := scanMember(a.pool.QueryRow(
		ctx, `select `+memberColumns+` from "member" where "member_id" = $1`, id,
	))
	if err != nil {
		return kdb.Member{}, kpgerr.Interpret(err, "member", id)
	}
	return m, nil
}

func (a *pgAccounts) FindMembers(ctx context.Context, query kdb.MemberQuery) ([]kdb.Member, error) {
	page := query.Page.Normalize()

	w := kpgintr.Where{}
	if query.Text != "" {
		w.Add(
			`(lower("name") like ? or lower("email") like ? or lower("registration") like ?)`,
			kpgintr.Contains(query.Text),
		)
	}
	if query.Kind != "" {
		w.Add(`"kind" = ?`, string(query.Kind))
	}
	if query.Status != "" {
		w.Add(`"status" = ?`, string(query.Status))
	}
	limit := w.Param(page.Limit)
	offset := w.Param(page.Offset)

	rows, err := a.pool.Query(
		ctx,
		`select `+memberColumns+` from "member" `+w.Clause()+
			` order by "name", "member_id" limit `+limit+` offset `+offset,
		w.Args()...,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer rows.Close()

	result := []kdb.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, xe.Wrap(err)
		}
		result = append(result, m)
	}
	return result, xe.Wrap(rows.Err())
}

func (a *pgAccounts) UpdateMember(ctx context.Context, id string, spec kdb.MemberSpec) (kdb.Member, error) {
	if err := kpgintr.CheckID("member", id); err != nil {
		return kdb.Member{}, err
	}
	m, err := scanMember(a.pool.QueryRow(
		ctx,
		`
		update "member" set
			"name" = $2, "email" = $3, "registration" = $4, "phone" = $5, "kind" = $6
		where "member_id" = $1
		returning `+memberColumns,
		id, spec.Name, spec.Email, spec.Registration, spec.Phone, string(spec.Kind),
	))
	if err != nil {
		return kdb.Member{}, xe.Wrap(kpgerr.Interpret(err, "member", id))
	}
	return m, nil
}

func (a *pgAccounts) SetMemberStatus(ctx context.Context, id string, status kdb.MemberStatus) (kdb.Member, error) {
	if err := kpgintr.CheckID("member", id); err != nil {
		return kdb.Member{}, err
	}
	m, err := scanMember(a.pool.QueryRow(
		ctx,
		`update "member" set "status" = $2 where "member_id" = $1 returning `+memberColumns,
		id, string(status),
	))
	if err != nil {
		return kdb.Member{}, xe.Wrap(kpgerr.Interpret(err, "member", id))
	}
	return m, nil
}

func (a *pgAccounts) SetMemberPassword(ctx context.Context, id string, passwordHash []byte) error {
	if err := kpgintr.CheckID("member", id); err != nil {
		return err
	}
	ctag, err := a.pool.Exec(
		ctx,
		`update "member" set "password_hash" = $2 where "member_id" = $1`,
		id, passwordHash,
	)
	if err != nil {
		return xe.Wrap(err)
	}
	if ctag.RowsAffected() == 0 {
		return kpgerr.Missing{Table: "member", Identity: id}
	}
	return nil
}

const staffColumns = `"staff_id", "name", "email", "role", "created_at"`

func scanStaff(row pgx.Row) (kdb.Staff, error) {
	s := kdb.Staff{}
	var role string
	if err := row.Scan(&s.ID, &s.Name, &s.Email, &role, &s.CreatedAt); err != nil {
		return kdb.Staff{}, err
	}
	s.Role = kdb.Role(role)
	return s, nil
}

func (a *pgAccounts) CreateStaff(ctx context.Context, spec kdb.StaffSpec, passwordHash []byte) (kdb.Staff, error) {
	id := kpgintr.NewID()
	s, err := scanStaff(a.pool.QueryRow(
		ctx,
		`
		insert into "staff" ("staff_id", "name", "email", "role", "password_hash")
		values ($1, $2, $3, $4, $5)
		returning `+staffColumns,
		id, spec.Name, spec.Email, string(spec.Role), passwordHash,
	))
	if err != nil {
		return kdb.Staff{}, xe.Wrap(kpgerr.Interpret(err, "staff", id))
	}
	return s, nil
}

func (a *pgAccounts) GetStaff(ctx context.Context, id string) (kdb.Staff, error) {
	if err := kpgintr.CheckID("staff", id); err != nil {
		return kdb.Staff{}, err
	}
	s, err := scanStaff(a.pool.QueryRow(
		ctx, `select `+staffColumns+` from "staff" where "staff_id" = $1`, id,
	))
	if err != nil {
		return kdb.Staff{}, kpgerr.Interpret(err, "staff", id)
	}
	return s, nil
}

func (a *pgAccounts) FindStaff(ctx context.Context, page kdb.Page) ([]kdb.Staff, error) {
	page = page.Normalize()
	rows, err := a.pool.Query(
		ctx,
		`select `+staffColumns+` from "staff" order by "name", "staff_id" limit $1 offset $2`,
		page.Limit, page.Offset,
	)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer rows.Close()

	result := []kdb.Staff{}
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, xe.Wrap(err)
		}
		result = append(result, s)
	}
	return result, xe.Wrap(rows.Err())
}

func (a *pgAccounts) Credential(ctx context.Context, email string) (kdb.Credential, error) {
	c := kdb.Credential{Active: true}
	var role string
	err := a.pool.QueryRow(
		ctx,
		`select "staff_id", "role", "password_hash" from "staff" where lower("email") = lower($1)`,
		email,
	).Scan(&c.PrincipalID, &role, &c.PasswordHash)
	if err == nil {
		c.Role = kdb.Role(role)
		return c, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return kdb.Credential{}, xe.Wrap(err)
	}

	var status string
	if err := a.pool.QueryRow(
		ctx,
		`select "member_id", "status", "password_hash" from "member" where lower("email") = lower($1)`,
		email,
	).Scan(&c.PrincipalID, &status, &c.PasswordHash); err != nil {
		return kdb.Credential{}, kpgerr.Interpret(err, "member or staff", email)
	}
	c.Role = kdb.RoleMember
	c.Active = kdb.MemberStatus(status) == kdb.MemberActive
	return c, nil
}

func (a *pgAccounts) MemberCredential(ctx context.Context, memberID string) (kdb.Credential, error) {
	if err := kpgintr.CheckID("member", memberID); err != nil {
		return kdb.Credential{}, err
	}
	c := kdb.Credential{Role: kdb.RoleMember}
	var status string
	if err := a.pool.QueryRow(
		ctx,
		`select "member_id", "status", "password_hash" from "member" where "member_id" = $1`,
		memberID,
	).Scan(&c.PrincipalID, &status, &c.PasswordHash); err != nil {
		return kdb.Credential{}, kpgerr.Interpret(err, "member", memberID)
	}
	c.Active = kdb.MemberStatus(status) == kdb.MemberActive
	return c, nil
}
