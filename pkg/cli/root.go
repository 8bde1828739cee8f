// Package cli defines the botzip commands.
//
// The root command packages the configured source tree into a zip archive
// and optionally publishes it. The list subcommand prints the entries of an
// existing archive. Settings come from built-in defaults anchored at the
// executable, then an optional YAML file, then flags.
package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/flowshot-io/botzip/pkg/archiver"
	"github.com/flowshot-io/botzip/pkg/config"
	"github.com/flowshot-io/botzip/pkg/logger"
	"github.com/flowshot-io/botzip/pkg/publisher"
	"github.com/flowshot-io/botzip/pkg/storager"
)

// rootFlags holds flag values shared by the root command and its subcommands.
type rootFlags struct {
	configPath  string
	source      string
	dest        string
	logLevel    string
	pretty      bool
	publish     string
	publishPath string
}

// NewRootCommand creates the botzip command with its subcommands registered.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "botzip",
		Short: "Package a source tree into a zip archive",
		Long: `Package every file under the source directory into a zip archive,
named by its path relative to the source directory.

Without flags the source is ../src/main/java and the archive is
../build/bot.zip, both relative to the directory holding this executable.
An existing archive is replaced only once the new one is complete.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackage(cmd, flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "YAML settings file")
	cmd.PersistentFlags().StringVar(&flags.source, "source", "", "Directory to archive")
	cmd.PersistentFlags().StringVar(&flags.dest, "dest", "", "Archive to write")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&flags.pretty, "pretty", false, "Human-readable log output")
	cmd.Flags().StringVar(&flags.publish, "publish", "", "Storage connection string to upload the archive to")
	cmd.Flags().StringVar(&flags.publishPath, "publish-path", "", "Object path for the uploaded archive (default: archive file name)")

	cmd.AddCommand(newListCommand(flags))

	return cmd
}

// Execute runs the botzip command line.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func runPackage(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	summary, err := archiver.New(&archiver.Options{Logger: log}).Archive(cfg.SourceRoot, cfg.Destination)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files, %d bytes\n", cfg.Destination, summary.Files, summary.Bytes)

	if cfg.Publish.Connection == "" {
		return nil
	}

	store, err := storager.New(cfg.Publish.Connection)
	if err != nil {
		return err
	}

	pub, err := publisher.New(publisher.Options{Store: store, Logger: log})
	if err != nil {
		return err
	}

	return pub.Publish(cmd.Context(), cfg.Destination, cfg.Publish.Path)
}

// loadConfig layers defaults, the optional settings file and changed flags.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	anchor, err := config.DefaultAnchor()
	if err != nil {
		return nil, err
	}

	cfg := config.Defaults(anchor)

	if flags.configPath != "" {
		if err := config.Load(flags.configPath, cfg); err != nil {
			return nil, err
		}
		cfg.Resolve(anchor)
	}

	changed := cmd.Flags().Changed
	if changed("source") {
		if cfg.SourceRoot, err = filepath.Abs(flags.source); err != nil {
			return nil, err
		}
	}
	if changed("dest") {
		if cfg.Destination, err = filepath.Abs(flags.dest); err != nil {
			return nil, err
		}
	}
	if changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if changed("pretty") {
		cfg.Log.Pretty = flags.pretty
	}
	if changed("publish") {
		cfg.Publish.Connection = flags.publish
	}
	if changed("publish-path") {
		cfg.Publish.Path = flags.publishPath
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (logger.Logger, error) {
	return logger.New(&logger.Options{
		Pretty: cfg.Log.Pretty,
		Level:  cfg.Log.Level,
		Writer: cmd.ErrOrStderr(),
	})
}
