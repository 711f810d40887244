package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	apiaccounts "github.com/opst/libris/pkg/api/types/accounts"
	apierr "github.com/opst/libris/pkg/api/types/errors"
	"github.com/opst/libris/pkg/auth"
	kdb "github.com/opst/libris/pkg/db"
	"github.com/opst/libris/pkg/utils"
)

// LoginHandler exchanges email and password for an access token.
//
// Suspended members can not log in.
func LoginHandler(dbacct kdb.AccountsInterface, issuer auth.Issuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := apiaccounts.LoginRequest{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		email := strings.TrimSpace(req.Email)
		if email == "" || req.Password == "" {
			return apierr.BadRequest(`"email" and "password" are required`, nil)
		}

		cred, err := dbacct.Credential(c.Request().Context(), email)
		if errors.Is(err, kdb.ErrMissing) {
			auth.RejectPassword(req.Password)
			return apierr.Unauthorized("email or password is wrong.")
		} else if err != nil {
			return apierr.InternalServerError(err)
		}
		if !auth.ComparePassword(cred.PasswordHash, req.Password) {
			return apierr.Unauthorized("email or password is wrong.")
		}
		if !cred.Active {
			return apierr.NewErrorMessage(
				http.StatusForbidden, "account is suspended",
				apierr.WithAdvice("ask librarians to activate your account."),
			)
		}

		principal := auth.Principal{ID: cred.PrincipalID, Role: cred.Role}
		token, exp, err := issuer.Issue(principal)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return ok(c, apiaccounts.LoginResponse{
			Token:     token,
			ExpiresAt: exp,
			Principal: apiaccounts.Principal{
				ID:   principal.ID,
				Role: principal.Role.String(),
			},
		})
	}
}

// RegisterMemberHandler signs up a new member.
func RegisterMemberHandler(dbacct kdb.AccountsInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := apiaccounts.MemberRequest{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		spec, err := req.Spec()
		if err != nil {
			return asHTTPError(err)
		}
		if err := apiaccounts.CheckPassword(req.Password); err != nil {
			return asHTTPError(err)
		}
		hash, err := auth.HashPassword(req.Password)
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return apierr.BadRequest("password is too long", err)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		member, err := dbacct.RegisterMember(c.Request().Context(), spec, hash)
		if err != nil {
			return asHTTPError(err)
		}
		return created(c, apiaccounts.ComposeMember(member))
	}
}

func GetMemberHandler(dbacct kdb.AccountsInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		member, err := dbacct.GetMember(c.Request().Context(), c.Param(param))
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apiaccounts.ComposeMember(member))
	}
}

// FindMembersHandler lists members.
//
// Query params are "q" (name or email), "kind", "status", "limit" and "offset".
func FindMembersHandler(dbacct kdb.AccountsInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		query, err := func() (kdb.MemberQuery, error) {
			q := kdb.MemberQuery{Text: strings.TrimSpace(c.QueryParam("q"))}
			if k := c.QueryParam("kind"); k != "" {
				kind, err := kdb.AsMemberKind(k)
				if err != nil {
					return q, err
				}
				q.Kind = kind
			}
			if s := c.QueryParam("status"); s != "" {
				status, err := kdb.AsMemberStatus(s)
				if err != nil {
					return q, err
				}
				q.Status = status
			}
			page, err := pageOf(c)
			if err != nil {
				return q, err
			}
			q.Page = page
			return q, nil
		}()
		if err != nil {
			return apierr.BadRequest("query parameter is incorrect", err)
		}

		members, err := dbacct.FindMembers(c.Request().Context(), query)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return ok(c, utils.Map(members, apiaccounts.ComposeMember))
	}
}

// UpdateMemberHandler updates a profile of a member.
//
// Members can not change their own kind; only staff can.
func UpdateMemberHandler(dbacct kdb.AccountsInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param(param)

		req := apiaccounts.MemberRequest{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}

		if p, _ := auth.PrincipalOf(c); !p.Role.IsStaff() {
			current, err := dbacct.GetMember(ctx, id)
			if err != nil {
				return asHTTPError(err)
			}
			req.Kind = current.Kind.String()
		}

		spec, err := req.Spec()
		if err != nil {
			return asHTTPError(err)
		}
		member, err := dbacct.UpdateMember(ctx, id, spec)
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apiaccounts.ComposeMember(member))
	}
}

// SetMemberStatusHandler suspends or activates a member.
func SetMemberStatusHandler(dbacct kdb.AccountsInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := apiaccounts.StatusRequest{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		status, err := kdb.AsMemberStatus(req.Status)
		if err != nil {
			return apierr.BadRequest(`"status" should be "active" or "suspended"`, err)
		}
		member, err := dbacct.SetMemberStatus(c.Request().Context(), c.Param(param), status)
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apiaccounts.ComposeMember(member))
	}
}

// ChangePasswordHandler replaces the password of a member.
//
// Members should tell their current password. Staff can reset it without that.
func ChangePasswordHandler(dbacct kdb.AccountsInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param(param)

		req := apiaccounts.PasswordRequest{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		if err := apiaccounts.CheckPassword(req.NewPassword); err != nil {
			return asHTTPError(err)
		}

		if p, _ := auth.PrincipalOf(c); !p.Role.IsStaff() {
			cred, err := dbacct.MemberCredential(ctx, id)
			if err != nil {
				return asHTTPError(err)
			}
			if !auth.ComparePassword(cred.PasswordHash, req.OldPassword) {
				return apierr.NewErrorMessage(
					http.StatusForbidden, "password mismatch",
					apierr.WithAdvice(`"oldPassword" should be your current password.`),
				)
			}
		}

		hash, err := auth.HashPassword(req.NewPassword)
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return apierr.BadRequest("password is too long", err)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}
		if err := dbacct.SetMemberPassword(ctx, id, hash); err != nil {
			return asHTTPError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func FindStaffHandler(dbacct kdb.AccountsInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		page, err := pageOf(c)
		if err != nil {
			return apierr.BadRequest("query parameter is incorrect", err)
		}
		staff, err := dbacct.FindStaff(c.Request().Context(), page)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return ok(c, utils.Map(staff, apiaccounts.ComposeStaff))
	}
}

func GetStaffHandler(dbacct kdb.AccountsInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		staff, err := dbacct.GetStaff(c.Request().Context(), c.Param(param))
		if err != nil {
			return asHTTPError(err)
		}
		return ok(c, apiaccounts.ComposeStaff(staff))
	}
}

// CreateStaffHandler adds a librarian or an admin.
func CreateStaffHandler(dbacct kdb.AccountsInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := apiaccounts.StaffRequest{}
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		spec, err := req.Spec()
		if err != nil {
			return asHTTPError(err)
		}
		hash, err := auth.HashPassword(req.Password)
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return apierr.BadRequest("password is too long", err)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}
		staff, err := dbacct.CreateStaff(c.Request().Context(), spec, hash)
		if err != nil {
			return asHTTPError(err)
		}
		return created(c, apiaccounts.ComposeStaff(staff))
	}
}
