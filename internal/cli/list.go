package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/maintlog/pkg/types"
)

type listOptions struct {
	filter   types.Filter
	down     bool
	asc      bool
	jsonMode bool
}

// listEntry is one row of list output. Row is the 1-based position in the
// stored table and is what `show` accepts.
type listEntry struct {
	Row int `json:"row"`
	types.Record
	HasPhoto bool `json:"has_photo"`
}

func newListCmd(e *env) *cobra.Command {
	var o listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List maintenance records, newest first",
		Long: `List prints the maintenance history ordered by Timestamp, newest first.

Example:
  maintlog list
  maintlog list --down
  maintlog list --equipment cnc --status Operational --asc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, e, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.filter.Status, "status", "", "only records with this status")
	f.StringVar(&o.filter.Equipment, "equipment", "", "only records whose equipment contains this text")
	f.BoolVar(&o.down, "down", false, "only records reporting equipment down (breakdown alerts)")
	f.BoolVar(&o.asc, "asc", false, "oldest first")
	f.BoolVar(&o.jsonMode, "json", false, "output as JSON")

	return cmd
}

func runList(cmd *cobra.Command, e *env, o listOptions) error {
	repo, err := e.openRepository()
	if err != nil {
		return err
	}

	if o.down {
		o.filter.Status = types.StatusDown
	}

	tbl := repo.List(cmd.Context())
	order := tbl.DescendingOrder()
	if o.asc {
		slices.Reverse(order)
	}

	entries := make([]listEntry, 0, len(order))
	for _, i := range order {
		r := tbl.Records[i]
		if !o.filter.Match(r) {
			continue
		}
		entry := listEntry{Row: i + 1, Record: r, HasPhoto: r.HasPhoto()}
		entry.Photo = ""
		entries = append(entries, entry)
	}

	out := cmd.OutOrStdout()
	if o.jsonMode {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No maintenance records.")
		return nil
	}
	return writeTable(out, entries)
}

func writeTable(out io.Writer, entries []listEntry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tTIMESTAMP\tEQUIPMENT\tTECHNICIAN\tSTAGE\tREFERENCE\tSTATUS\tPHOTO\tREMARKS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Row, e.Timestamp, e.Equipment, e.Technician, e.Stage, e.Reference, e.Status,
			photoMarker(e.HasPhoto), oneLine(e.Remarks))
	}
	return tw.Flush()
}

func photoMarker(has bool) string {
	if has {
		return "[photo]"
	}
	return "-"
}

// oneLine flattens multi-line remarks for tabular output.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
