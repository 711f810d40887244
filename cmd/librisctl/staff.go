package main

import (
	"errors"
	"fmt"
	"os"

	apiaccounts "github.com/opst/libris/pkg/api/types/accounts"
	"github.com/opst/libris/pkg/auth"
	kdb "github.com/opst/libris/pkg/db"
	"github.com/spf13/cobra"
)

// EnvStaffPassword is read when --password is not given.
const EnvStaffPassword = "LIBRIS_STAFF_PASSWORD"

func newStaffCommand(ctx *commandContext) *cobra.Command {
	staffCmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage staff accounts",
	}
	staffCmd.AddCommand(newStaffCreateCommand(ctx))
	return staffCmd
}

func newStaffCreateCommand(ctx *commandContext) *cobra.Command {
	req := apiaccounts.StaffRequest{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account",
		Long: "Create a staff account. The password is taken from --password or " +
			EnvStaffPassword + ".",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				req.Password = os.Getenv(EnvStaffPassword)
			}
			spec, err := req.Spec()
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(req.Password)
			if err != nil {
				return err
			}
			return ctx.withDatabase(cmd.Context(), func(db kdb.LibraryDatabase) error {
				staff, err := db.Accounts().CreateStaff(cmd.Context(), spec, hash)
				if errors.Is(err, kdb.ErrConflict) {
					return fmt.Errorf("email %s is already used: %w", spec.Email, err)
				} else if err != nil {
					return err
				}
				fmt.Fprintf(
					cmd.OutOrStdout(), "staff created: %s (%s, %s)\n",
					staff.ID, staff.Email, staff.Role,
				)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&req.Name, "name", "", "Name of the staff")
	flags.StringVar(&req.Email, "email", "", "Email address to log in with")
	flags.StringVar(&req.Role, "role", string(kdb.RoleLibrarian), "librarian or admin")
	flags.StringVar(&req.Password, "password", "", "Password (prefer "+EnvStaffPassword+")")
	return cmd
}
