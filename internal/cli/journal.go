package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/LeJamon/goAssetLock/internal/storage/journal"
	"github.com/spf13/cobra"
)

var journalAfter uint64

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Maintain the event journal",
	Long: `Export or import the configured event journal. Archives are lz4
compressed newline-delimited JSON. These commands open the journal
directly and do not need a running server.`,
}

var journalExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write journal events to an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal(cmd)
		if err != nil {
			return err
		}
		defer j.Close()

		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		n, err := j.Export(cmd.Context(), f, journalAfter)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d events to %s\n", n, args[0])
		return nil
	},
}

var journalImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Append the events of an archive to the journal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal(cmd)
		if err != nil {
			return err
		}
		defer j.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		n, err := j.Import(cmd.Context(), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d events from %s\n", n, args[0])
		return nil
	},
}

func openJournal(cmd *cobra.Command) (*journal.Journal, error) {
	if !cfg.Journal.Enabled {
		return nil, errors.New("journal is disabled in the configuration")
	}
	return journal.Open(cmd.Context(), journal.Config{
		Driver:       cfg.Journal.Driver,
		DSN:          cfg.Journal.DSN,
		MaxOpenConns: cfg.Journal.MaxOpenConns,
	}, journal.WithLogger(logger))
}

func init() {
	journalExportCmd.Flags().Uint64Var(&journalAfter, "after", 0, "only export events after this sequence")
	journalCmd.AddCommand(journalExportCmd, journalImportCmd)
	rootCmd.AddCommand(journalCmd)
}
