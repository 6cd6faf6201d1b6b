package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/maintlog/pkg/types"
)

// EquipmentSummary aggregates the history of one piece of equipment.
type EquipmentSummary struct {
	Equipment      string `json:"equipment"`
	Records        int    `json:"records"`
	Breakdowns     int    `json:"breakdowns"`
	Photos         int    `json:"photos"`
	LastTimestamp  string `json:"last_timestamp"`
	LastStage      string `json:"last_stage"`
	LastStatus     string `json:"last_status"`
	LastTechnician string `json:"last_technician"`
}

// Down reports whether the latest record leaves the equipment down.
func (s EquipmentSummary) Down() bool {
	return s.LastStatus == types.StatusDown
}

// The latest record per equipment is the one with the greatest timestamp,
// ties broken by the later row.
const summaryQuery = `
WITH ranked AS (
    SELECT equipment, timestamp, stage, status, technician,
           ROW_NUMBER() OVER (PARTITION BY equipment ORDER BY timestamp DESC, row_num DESC) AS rn
    FROM records
)
SELECT r.equipment,
       COUNT(*),
       SUM(CASE WHEN r.stage = ? THEN 1 ELSE 0 END),
       SUM(CASE WHEN r.photo <> '' THEN 1 ELSE 0 END),
       l.timestamp, l.stage, l.status, l.technician
FROM records r
JOIN ranked l ON l.equipment = r.equipment AND l.rn = 1
GROUP BY r.equipment
ORDER BY r.equipment`

// EquipmentSummaries returns one summary per distinct equipment, ordered by
// equipment name.
func (ix *Index) EquipmentSummaries(ctx context.Context) ([]EquipmentSummary, error) {
	rows, err := ix.db.QueryContext(ctx, summaryQuery, types.StageBreakdown)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var out []EquipmentSummary
	for rows.Next() {
		var s EquipmentSummary
		if err := rows.Scan(&s.Equipment, &s.Records, &s.Breakdowns, &s.Photos,
			&s.LastTimestamp, &s.LastStage, &s.LastStatus, &s.LastTechnician); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return out, nil
}
