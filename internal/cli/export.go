package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/maintlog/internal/csvstore"
	"github.com/mesh-intelligence/maintlog/internal/sqlite"
)

const formatSQLite = "sqlite"

func newExportCmd(e *env) *cobra.Command {
	var (
		format  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the maintenance table as CSV, JSONL or SQLite",
		Long: `Export writes a copy of the local table. The local CSV file stays the
source of truth; exports are snapshots.

Example:
  maintlog export --format jsonl --out records.jsonl
  maintlog export --format sqlite --out records.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := e.openRepository()
			if err != nil {
				return err
			}
			tbl := repo.List(cmd.Context())

			switch f := strings.ToLower(format); f {
			case csvstore.FormatCSV, csvstore.FormatJSONL:
				if err := csvstore.Export(outPath, f, tbl); err != nil {
					return exitError(exitSysError, fmt.Errorf("export: %w", err))
				}
			case formatSQLite:
				ix, err := sqlite.Build(cmd.Context(), outPath, tbl)
				if err != nil {
					return exitError(exitSysError, fmt.Errorf("export: %w", err))
				}
				if err := ix.Close(); err != nil {
					return exitError(exitSysError, fmt.Errorf("export: %w", err))
				}
			default:
				return exitError(exitUserError, fmt.Errorf("unknown format %q (valid: csv, jsonl, sqlite)", format))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", tbl.Len(), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", csvstore.FormatCSV, "csv, jsonl or sqlite")
	cmd.Flags().StringVar(&outPath, "out", "", "destination file")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newReportCmd(e *env) *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize maintenance history per equipment",
		Long: `Report rebuilds the SQLite index in the data directory from the local
table and prints, per equipment, the number of records and breakdowns and
the latest status. Equipment currently down is flagged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := e.openRepository()
			if err != nil {
				return err
			}

			ix, err := sqlite.Build(cmd.Context(), filepath.Join(e.cfg.DataDir, sqlite.IndexFile), repo.List(cmd.Context()))
			if err != nil {
				return exitError(exitSysError, fmt.Errorf("build index: %w", err))
			}
			defer ix.Close()

			summaries, err := ix.EquipmentSummaries(cmd.Context())
			if err != nil {
				return exitError(exitSysError, err)
			}

			out := cmd.OutOrStdout()
			if jsonMode {
				if summaries == nil {
					summaries = []sqlite.EquipmentSummary{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No maintenance records.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EQUIPMENT\tRECORDS\tBREAKDOWNS\tPHOTOS\tLAST\tSTAGE\tSTATUS\tTECHNICIAN\t")
			for _, s := range summaries {
				alert := ""
				if s.Down() {
					alert = "DOWN"
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
					s.Equipment, s.Records, s.Breakdowns, s.Photos,
					s.LastTimestamp, s.LastStage, s.LastStatus, s.LastTechnician, alert)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "output as JSON")
	return cmd
}
