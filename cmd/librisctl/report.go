package main

import (
	"fmt"
	"sort"
	"strconv"

	kcirc "github.com/opst/libris/pkg/circulation"
	kdb "github.com/opst/libris/pkg/db"
	"github.com/spf13/cobra"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print circulation reports",
	}
	reportCmd.AddCommand(newReportOverdueCommand(ctx))
	reportCmd.AddCommand(newReportFinesCommand(ctx))
	return reportCmd
}

func newReportOverdueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List active loans past due, most late first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDatabase(cmd.Context(), func(db kdb.LibraryDatabase) error {
				loans, err := collect(func(p kdb.Page) ([]kdb.Loan, error) {
					return db.Loans().Find(cmd.Context(), kdb.LoanQuery{OverdueOnly: true, Page: p})
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(loans) == 0 {
					fmt.Fprintln(out, "no overdue loans")
					return nil
				}

				sort.SliceStable(loans, func(i, j int) bool {
					return loans[i].DueAt.Before(loans[j].DueAt)
				})
				now := ctx.now()
				rows := make([][]string, 0, len(loans))
				for _, l := range loans {
					due := l.DueAt
					rows = append(rows, []string{
						l.ID, l.MemberName, l.BookTitle, formatTime(&due),
						strconv.FormatInt(kcirc.DaysLate(l.DueAt, now), 10),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Loan", "Member", "Book", "Due", "Days Late"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				fmt.Fprintf(out, "%d loan(s) overdue\n", len(loans))
				return nil
			})
		},
	}
}

func newReportFinesCommand(ctx *commandContext) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "fines",
		Short: "Sum fines per member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := kdb.AsFineStatus(status)
			if err != nil {
				return fmt.Errorf("unknown fine status: %s", status)
			}
			return ctx.withDatabase(cmd.Context(), func(db kdb.LibraryDatabase) error {
				fines, err := collect(func(p kdb.Page) ([]kdb.Fine, error) {
					return db.Fines().Find(cmd.Context(), kdb.FineQuery{Status: st, Page: p})
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(fines) == 0 {
					fmt.Fprintf(out, "no %s fines\n", st)
					return nil
				}

				type total struct {
					memberID string
					count    int
					amount   int64
				}
				byMember := map[string]*total{}
				members := []*total{}
				var sum int64
				for _, f := range fines {
					t, ok := byMember[f.MemberID]
					if !ok {
						t = &total{memberID: f.MemberID}
						byMember[f.MemberID] = t
						members = append(members, t)
					}
					t.count += 1
					t.amount += f.Amount
					sum += f.Amount
				}
				sort.SliceStable(members, func(i, j int) bool {
					return members[i].amount > members[j].amount
				})

				rows := make([][]string, 0, len(members))
				for _, t := range members {
					rows = append(rows, []string{t.memberID, strconv.Itoa(t.count), formatCents(t.amount)})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Member", "Fines", "Amount"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight},
				))
				fmt.Fprintf(out, "total %s: %s (%d fine(s))\n", st, formatCents(sum), len(fines))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", string(kdb.FinePending), "pending, paid or waived")
	return cmd
}

// collect reads all pages.
func collect[T any](find func(kdb.Page) ([]T, error)) ([]T, error) {
	all := []T{}
	page := kdb.Page{Limit: kdb.MaxLimit}
	for {
		items, err := find(page)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) < page.Limit {
			return all, nil
		}
		page.Offset += len(items)
	}
}
