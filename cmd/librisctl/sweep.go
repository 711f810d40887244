package main

import (
	"fmt"

	kdb "github.com/opst/libris/pkg/db"
	"github.com/spf13/cobra"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a sweep once",
	}
	sweepCmd.AddCommand(&cobra.Command{
		Use:   "holds",
		Short: "Expire reservations holding a copy too long",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDatabase(cmd.Context(), func(db kdb.LibraryDatabase) error {
				expired, err := db.Reservations().ExpireHolds(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(expired) == 0 {
					fmt.Fprintln(out, "no holds expired")
					return nil
				}
				rows := make([][]string, 0, len(expired))
				for _, r := range expired {
					rows = append(rows, []string{r.ID, r.MemberName, r.BookTitle, formatTime(r.ExpiresAt)})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Reservation", "Member", "Book", "Expired At"}, rows, nil,
				))
				fmt.Fprintf(out, "%d hold(s) expired\n", len(expired))
				return nil
			})
		},
	})
	return sweepCmd
}
