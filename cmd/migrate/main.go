package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arawak/devboard/migrations"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println("migration error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dsn string

	root := &cobra.Command{
		Use:           "devboard-migrate",
		Short:         "Apply or roll back the devboard database schema",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				dsn = os.Getenv("DEVBOARD_DB_DSN")
			}
			if dsn == "" {
				return fmt.Errorf("DEVBOARD_DB_DSN is required")
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", "", "database DSN (defaults to $DEVBOARD_DB_DSN)")

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrations.Up(dsn)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrations.Down(dsn)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, dirty, err := migrations.Version(dsn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", v, dirty)
			return nil
		},
	})
	return root
}
