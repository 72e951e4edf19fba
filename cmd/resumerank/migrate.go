package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/resumerank/internal/db/postgres"
)

func migrateCMD(opts *rootOptions) *cobra.Command {
	var (
		dsn       string
		upSteps   int
		downSteps int
	)
	resolveDSN := func() (string, error) {
		if dsn != "" {
			return dsn, nil
		}
		cfg, err := opts.load()
		if err != nil {
			return "", err
		}
		if !cfg.Postgres.Enabled() {
			return "", errors.New("postgres not configured (postgres.dsn or --dsn)")
		}
		return cfg.Postgres.DSN, nil
	}
	run := func(direction string, steps *int) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			if *steps < 0 {
				return errors.New("--steps must not be negative")
			}
			target, err := resolveDSN()
			if err != nil {
				return err
			}
			if err := postgres.Migrate(target, direction, *steps); err != nil {
				return err //nolint:wrapcheck // already names the direction
			}
			v, dirty, err := postgres.Version(target)
			if err != nil {
				return err //nolint:wrapcheck // already descriptive
			}
			cmd.Printf("migrated %s, schema version %d (dirty: %t)\n", direction, v, dirty)
			return nil
		}
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Run result sink database migrations",
	}
	migrate.PersistentFlags().StringVar(&dsn, "dsn", "", "postgres DSN (overrides postgres.dsn)")

	up := &cobra.Command{Use: "up", Short: "Apply pending migrations", Args: cobra.NoArgs, RunE: run(postgres.Up, &upSteps)}
	up.Flags().IntVar(&upSteps, "steps", 0, "number of migrations to apply (0 = all)")

	down := &cobra.Command{Use: "down", Short: "Roll back migrations", Args: cobra.NoArgs, RunE: run(postgres.Down, &downSteps)}
	down.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back (0 = all)")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := resolveDSN()
			if err != nil {
				return err
			}
			v, dirty, err := postgres.Version(target)
			if err != nil {
				return fmt.Errorf("schema version: %w", err)
			}
			cmd.Printf("%d (dirty: %t)\n", v, dirty)
			return nil
		},
	}

	migrate.AddCommand(up, down, version)
	return migrate
}
