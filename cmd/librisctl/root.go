package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/opst/libris/pkg/buildtime"
	"github.com/opst/libris/pkg/configs/server"
	kdb "github.com/opst/libris/pkg/db"
	kpg "github.com/opst/libris/pkg/db/postgres"
	"github.com/spf13/cobra"
)

// Opener connects to the library database described by the configuration file.
type Opener func(ctx context.Context, configPath string) (kdb.LibraryDatabase, error)

func openDatabase(ctx context.Context, configPath string) (kdb.LibraryDatabase, error) {
	conf, err := server.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	return kpg.New(
		ctx, conf.Database(),
		kpg.WithRules(conf.Circulation()),
		kpg.WithSchemaRepository(conf.SchemaRepository()),
	)
}

type commandContext struct {
	configFlag string
	open       Opener
	now        func() time.Time
}

// withDatabase opens the database, and closes it after fn.
func (c *commandContext) withDatabase(ctx context.Context, fn func(kdb.LibraryDatabase) error) error {
	path := strings.TrimSpace(c.configFlag)
	if path == "" {
		return errors.New("configuration file is not given. use --config or LIBRIS_CONFIG")
	}
	db, err := c.open(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func newRootCommand(open Opener, now func() time.Time) *cobra.Command {
	ctx := &commandContext{open: open, now: now}

	rootCmd := &cobra.Command{
		Use:           "librisctl",
		Short:         "Administrate the library database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(
		&ctx.configFlag, "config", "c", os.Getenv("LIBRIS_CONFIG"), "Configuration file path",
	)

	rootCmd.AddCommand(newSchemaCommand(ctx))
	rootCmd.AddCommand(newStaffCommand(ctx))
	rootCmd.AddCommand(newReportCommand(ctx))
	rootCmd.AddCommand(newSweepCommand(ctx))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "librisctl", buildtime.VersionString())
		},
	})

	return rootCmd
}
