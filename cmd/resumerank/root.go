package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/resumerank/internal/config"
	logpkg "github.com/kailas-cloud/resumerank/internal/logger"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	env        string
	envFile    string
}

func newRootCMD() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "resumerank",
		Short:         "Rank resumes against a job description",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadDotEnv(opts.envFile)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default config/<env>.yaml)")
	root.PersistentFlags().StringVar(&opts.env, "env", "", "environment name (default $ENV or local)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")

	root.AddCommand(
		serveCMD(opts),
		rankCMD(opts),
		indexCMD(opts),
		migrateCMD(opts),
		versionCMD(),
	)
	return root
}

// loadDotEnv loads variables from path without overriding the process environment.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (o *rootOptions) environment() string {
	if o.env != "" {
		return o.env
	}
	return config.GetEnv()
}

// load reads and validates the configuration for server-side commands.
func (o *rootOptions) load() (config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath) //nolint:wrapcheck // already descriptive
	}
	return config.Load(o.environment()) //nolint:wrapcheck // already descriptive
}

// loadLocal is load for commands that work on local files: without a config file
// every setting takes its default.
func (o *rootOptions) loadLocal() (config.Config, error) {
	cfg, err := o.load()
	if err == nil {
		return cfg, nil
	}
	if o.configPath != "" || !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, err
	}
	cfg = config.Config{}
	cfg.ApplyDefaults()
	return cfg, nil
}

// logger builds the server logger for the configured environment.
func (o *rootOptions) logger(cfg config.Config) (*zap.Logger, error) {
	logger, err := logpkg.NewLogger(o.environment(), cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

// cliLogger builds a logger for one-shot commands: warnings and errors on stderr.
func (o *rootOptions) cliLogger(cfg config.Config) (*zap.Logger, error) {
	logger, err := logpkg.NewLogger("cli", cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}
