package types

import (
	"errors"
	"strings"
	"time"
)

// TimestampLayout is the minute-precision local time format stored in the
// Timestamp column.
const TimestampLayout = "2006-01-02 15:04"

// Default stage values.
const (
	StageBreakdown             = "Breakdown"
	StagePreventiveMaintenance = "Preventive-Maintenance"
	StageSpareReplacement      = "Spare-Replacement"
	StageLubrication           = "Lubrication"
	StageCalibration           = "Calibration"
)

// Default status values.
const (
	StatusOperational     = "Operational"
	StatusDown            = "Down"
	StatusUnderMonitoring = "Under-Monitoring"
)

// Submission validation errors.
var (
	ErrMissingField  = errors.New("required field is empty")
	ErrInvalidOption = errors.New("value is not one of the configured options")
)

// Record is one maintenance log entry. Field order matches Columns.
type Record struct {
	Timestamp  string `json:"timestamp"`
	Equipment  string `json:"equipment"`
	Technician string `json:"technician"`
	Stage      string `json:"stage"`
	Reference  string `json:"reference"`
	Status     string `json:"status"`
	Remarks    string `json:"remarks"`
	Photo      string `json:"photo,omitempty"` // base64 JPEG, empty when absent.
}

// Fields returns the record values in canonical column order.
func (r Record) Fields() []string {
	return []string{
		r.Timestamp,
		r.Equipment,
		r.Technician,
		r.Stage,
		r.Reference,
		r.Status,
		r.Remarks,
		r.Photo,
	}
}

// RecordFromFields builds a Record from values in canonical column order.
// Missing trailing values are left empty.
func RecordFromFields(fields []string) Record {
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	return Record{
		Timestamp:  get(0),
		Equipment:  get(1),
		Technician: get(2),
		Stage:      get(3),
		Reference:  get(4),
		Status:     get(5),
		Remarks:    get(6),
		Photo:      get(7),
	}
}

// HasPhoto reports whether the record carries an encoded photo.
func (r Record) HasPhoto() bool {
	return r.Photo != ""
}

// Time parses Timestamp in the local time zone.
func (r Record) Time() (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, r.Timestamp, time.Local)
}

// Submission is the caller-supplied part of a Record. Timestamp is never
// supplied by the caller; Photo holds raw image bytes before encoding.
type Submission struct {
	Equipment  string
	Technician string
	Stage      string
	Reference  string
	Status     string
	Remarks    string
	Photo      []byte
}

// Normalize trims all text fields and upper-cases Equipment.
func (s Submission) Normalize() Submission {
	s.Equipment = strings.ToUpper(strings.TrimSpace(s.Equipment))
	s.Technician = strings.TrimSpace(s.Technician)
	s.Stage = strings.TrimSpace(s.Stage)
	s.Reference = strings.TrimSpace(s.Reference)
	s.Status = strings.TrimSpace(s.Status)
	s.Remarks = strings.TrimSpace(s.Remarks)
	return s
}

// FormatTimestamp renders t in TimestampLayout, truncated to the minute.
func FormatTimestamp(t time.Time) string {
	return t.Local().Truncate(time.Minute).Format(TimestampLayout)
}
