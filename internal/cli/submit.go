package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/maintlog/pkg/types"
)

type submitOptions struct {
	sub       types.Submission
	photoPath string
	jsonMode  bool
}

// submitOutput is the --json rendering of a stored submission.
type submitOutput struct {
	SubmissionID string       `json:"submission_id"`
	Record       types.Record `json:"record"`
	HasPhoto     bool         `json:"has_photo"`
	Rows         int          `json:"rows"`
	LocalOK      bool         `json:"local_ok"`
	RemoteOK     bool         `json:"remote_ok"`
	Warnings     []string     `json:"warnings,omitempty"`
}

func newSubmitCmd(e *env) *cobra.Command {
	var o submitOptions

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Add a maintenance record",
		Long: `Submit appends one maintenance record to the local table and mirrors
the table remotely. The record is stored once the local write succeeds;
remote sync problems are printed as warnings.

Example:
  maintlog submit --equipment CNC-01 --technician Prasanth \
    --stage Breakdown --reference JOB-42 --status Down \
    --remarks "Spindle jam" --photo spindle.jpg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, e, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.sub.Equipment, "equipment", "", "equipment identifier (stored upper-case)")
	f.StringVar(&o.sub.Technician, "technician", "", "technician name from the configured roster")
	f.StringVar(&o.sub.Stage, "stage", "", "maintenance stage")
	f.StringVar(&o.sub.Reference, "reference", "", "job or work-order reference")
	f.StringVar(&o.sub.Status, "status", "", "equipment status after the work")
	f.StringVar(&o.sub.Remarks, "remarks", "", "free-text remarks")
	f.StringVar(&o.photoPath, "photo", "", "path to a photo of the work")
	f.BoolVar(&o.jsonMode, "json", false, "output as JSON")

	return cmd
}

func runSubmit(cmd *cobra.Command, e *env, o submitOptions) error {
	sub := o.sub
	if o.photoPath != "" {
		data, err := os.ReadFile(o.photoPath)
		if err != nil {
			return exitError(exitUserError, fmt.Errorf("read photo: %w", err))
		}
		sub.Photo = data
	}

	repo, err := e.openRepository()
	if err != nil {
		return err
	}

	res, err := repo.Submit(cmd.Context(), sub)
	if err != nil {
		return classify(err)
	}

	warnings := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, w.Error())
	}

	out := cmd.OutOrStdout()
	if o.jsonMode {
		hasPhoto := res.Record.HasPhoto()
		res.Record.Photo = ""
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(submitOutput{
			SubmissionID: res.SubmissionID,
			Record:       res.Record,
			HasPhoto:     hasPhoto,
			Rows:         res.Table.Len(),
			LocalOK:      res.LocalOK,
			RemoteOK:     res.RemoteOK,
			Warnings:     warnings,
		})
	}

	fmt.Fprintf(out, "Record stored: row %d at %s (%s)\n", res.Table.Len(), res.Record.Timestamp, res.Record.Equipment)
	switch {
	case res.RemoteOK:
		fmt.Fprintln(out, "Remote copy updated.")
	case repo.RemoteEnabled():
		fmt.Fprintln(out, "Remote copy NOT updated; run `maintlog resync` when the remote is reachable.")
	}
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	return nil
}
