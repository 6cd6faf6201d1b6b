package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/maintlog/internal/imagecodec"
)

func newShowCmd(e *env) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "show <row>",
		Short: "Show one record and optionally extract its photo",
		Long: `Show prints the record at the given row (as numbered by list).
With --out, the record's photo is decoded and written as a JPEG file.

Example:
  maintlog show 12
  maintlog show 12 --out spindle.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, e, args[0], outPath)
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write the photo to this file")
	return cmd
}

func runShow(cmd *cobra.Command, e *env, arg, outPath string) error {
	row, err := strconv.Atoi(arg)
	if err != nil || row < 1 {
		return exitError(exitUserError, fmt.Errorf("invalid row %q: must be a positive number", arg))
	}

	repo, err := e.openRepository()
	if err != nil {
		return err
	}
	tbl := repo.List(cmd.Context())
	if row > tbl.Len() {
		return exitError(exitUserError, fmt.Errorf("row %d out of range (table has %d rows)", row, tbl.Len()))
	}
	rec := tbl.Records[row-1]

	if outPath != "" {
		data, err := imagecodec.Decode(rec.Photo)
		if err != nil {
			return classify(fmt.Errorf("row %d: %w", row, err))
		}
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return exitError(exitSysError, fmt.Errorf("write photo: %w", err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Photo for row %d written to %s (%d bytes)\n", row, outPath, len(data))
		return nil
	}

	entry := listEntry{Row: row, Record: rec, HasPhoto: rec.HasPhoto()}
	entry.Photo = ""
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(entry)
}
