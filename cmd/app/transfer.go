package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vietanh2810/encore-api/internal/pkg/spreadsheet"
	"github.com/vietanh2810/encore-api/internal/repository"
	"github.com/vietanh2810/encore-api/internal/service"
)

func newImportCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a spreadsheet into the shared store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "guests <file.xlsx|file.csv>",
		Short: "Replace the guest roster, check-ins included",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readSpreadsheet(args[0])
			if err != nil {
				return err
			}

			b, err := openBackend(opts.conf)
			if err != nil {
				return err
			}
			defer b.Close()

			roster := repository.NewGuestRosterStore(b.docs, opts.conf.Event.StrictEntryNumbers)
			n, err := service.NewRosterService(roster, nil).Import(cmd.Context(), rows)
			if err != nil {
				return fmt.Errorf("failed to import guests -> %w", err)
			}
			zap.L().Info("guests imported", zap.Int("count", n), zap.String("file", args[0]))

			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "setlist <file.xlsx|file.csv>",
		Short: "Replace the setlist and the performer list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readSpreadsheet(args[0])
			if err != nil {
				return err
			}

			b, err := openBackend(opts.conf)
			if err != nil {
				return err
			}
			defer b.Close()

			events := repository.NewEventRepository(b.docs, opts.conf.Event.AdminCode)
			bundle, err := service.NewEventService(events, nil).ImportSetlist(cmd.Context(), rows)
			if err != nil {
				return fmt.Errorf("failed to import setlist -> %w", err)
			}
			zap.L().Info("setlist imported",
				zap.Int("songs", len(bundle.Setlist)),
				zap.Int("performers", len(bundle.Performers)),
				zap.String("file", args[0]))

			return nil
		},
	})

	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write shared data to a spreadsheet",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "roster <file.xlsx|file.csv>",
		Short: "Write the guest roster with check-in state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := spreadsheet.ParseFormat(args[0])
			if err != nil {
				return err
			}

			b, err := openBackend(opts.conf)
			if err != nil {
				return err
			}
			defer b.Close()

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("os.Create -> %w", err)
			}
			defer f.Close()

			roster := repository.NewGuestRosterStore(b.docs, false)
			if err := service.NewRosterService(roster, nil).Export(cmd.Context(), f, format); err != nil {
				return fmt.Errorf("failed to export roster -> %w", err)
			}
			zap.L().Info("roster exported", zap.String("file", args[0]))

			return nil
		},
	})

	return cmd
}

func readSpreadsheet(path string) ([]map[string]string, error) {
	format, err := spreadsheet.ParseFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open -> %w", err)
	}
	defer f.Close()

	rows, err := spreadsheet.ReadRows(f, format)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet.ReadRows -> %w", err)
	}

	return rows, nil
}
