package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/flowshot-io/botzip/pkg/archiver"
)

func newListCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list [archive]",
		Short: "List the entries of an archive",
		Long: `List the entries stored in a zip archive as size, CRC-32 and name.

The archive defaults to the configured destination.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}

			path := cfg.Destination
			if len(args) == 1 {
				if path, err = filepath.Abs(args[0]); err != nil {
					return err
				}
			}

			log, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}

			entries, err := archiver.New(&archiver.Options{Logger: log}).List(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%10d  %08x  %s\n", e.Size, e.CRC32, e.Name)
			}

			return nil
		},
	}
}
