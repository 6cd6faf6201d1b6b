package csvstore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/maintlog/pkg/types"
)

// EncodeJSONL renders t as one JSON object per line in insertion order.
func EncodeJSONL(t *types.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	enc := json.NewEncoder(w)
	for i, r := range t.Records {
		if err := enc.Encode(r); err != nil {
			return nil, fmt.Errorf("encoding row %d: %w", i+1, err)
		}
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flushing buffer: %w", err)
	}
	return buf.Bytes(), nil
}

// Export atomically writes t to path as CSV or JSONL.
func Export(path, format string, t *types.Table) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = Encode(t)
	case FormatJSONL:
		data, err = EncodeJSONL(t)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// Export formats.
const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)
