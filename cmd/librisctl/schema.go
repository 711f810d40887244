package main

import (
	"fmt"

	kdb "github.com/opst/libris/pkg/db"
	"github.com/spf13/cobra"
)

func newSchemaCommand(ctx *commandContext) *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect and upgrade the database schema",
	}
	schemaCmd.AddCommand(newSchemaVersionCommand(ctx))
	schemaCmd.AddCommand(newSchemaUpgradeCommand(ctx))
	return schemaCmd
}

func newSchemaVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the schema version of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDatabase(cmd.Context(), func(db kdb.LibraryDatabase) error {
				v, err := db.Schema().Version(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", v)
				return nil
			})
		},
	}
}

func newSchemaUpgradeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Apply schema versions newer than the database's",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDatabase(cmd.Context(), func(db kdb.LibraryDatabase) error {
				schema := db.Schema()
				before, err := schema.Version(cmd.Context())
				if err != nil {
					return err
				}
				if err := schema.Upgrade(cmd.Context()); err != nil {
					return fmt.Errorf("upgrade schema: %w", err)
				}
				after, err := schema.Version(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if before == after {
					fmt.Fprintf(out, "schema is up to date (version %d)\n", after)
				} else {
					fmt.Fprintf(out, "schema upgraded: %d -> %d\n", before, after)
				}
				return nil
			})
		},
	}
}
