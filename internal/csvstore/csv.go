package csvstore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/mesh-intelligence/maintlog/pkg/types"
)

// Encode serializes t as CSV with the canonical header row. The local store
// and the remote mirror share this encoding.
func Encode(t *types.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(types.Columns); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	for i, r := range t.Records {
		if err := w.Write(r.Fields()); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Parse decodes CSV bytes and reconciles them to the canonical schema.
// Empty input yields an empty table.
func Parse(data []byte) (*types.Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return types.NewTable(), nil
	}
	if !utf8.Valid(data) {
		return nil, errors.New("content is not valid UTF-8")
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(rows) == 0 {
		return types.NewTable(), nil
	}
	return types.Reconcile(rows[0], rows[1:]), nil
}
