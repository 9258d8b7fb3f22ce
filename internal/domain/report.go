// Package domain defines the persistence models and core value types for
// job-completion reports. These types are mapped with GORM and shared by
// the repository and service layers.
package domain

import "time"

// Report status values. A report is either still pending or marked done;
// no other states are reachable.
const (
	StatusPending = "pending"
	StatusDone    = "done"
)

// ScheduledDateUndefined is the sentinel stored when no scheduled date was
// supplied. The field is free text and is never parsed or validated.
const ScheduledDateUndefined = "undefined"

// Mutable field names accepted by the store's update_field operation.
// The allow-list in the repository is keyed by these constants; anything
// else is rejected as a contract violation.
const (
	FieldClientName    = "client_name"
	FieldAddress       = "address"
	FieldExtraNotes    = "extra_notes"
	FieldMaterials     = "materials"
	FieldScheduledDate = "scheduled_date"
)

// Report represents one job-completion entry posted into a group.
//
// Fields:
//   - ID: surrogate key, monotonically increasing, never reused.
//   - MessageID / GroupID: the natural addressing key. MessageID is the
//     identifier of the rendered message representing this report in the
//     group's timeline; together with GroupID it is unique, so a rendered
//     message maps to at most one report.
//   - ClientName: optional free text (empty on current schema revisions).
//   - Address / Materials: mandatory free text collected by the form flow.
//   - ExtraNotes: optional free text (skippable form step).
//   - ScheduledDate: free text, defaults to ScheduledDateUndefined.
//   - Status: StatusPending or StatusDone, defaults to pending.
//   - CreatedAt: server-assigned, immutable; drives list ordering.
type Report struct {
	ID            uint64    `json:"id"             gorm:"primaryKey;autoIncrement"`
	MessageID     int64     `json:"message_id"     gorm:"not null;uniqueIndex:ux_report_message_group,priority:1"`
	GroupID       int64     `json:"group_id"       gorm:"not null;index:idx_group_reports;uniqueIndex:ux_report_message_group,priority:2"`
	ClientName    string    `json:"client_name"    gorm:"type:text;not null;default:''"`
	Address       string    `json:"address"        gorm:"type:text;not null"`
	ExtraNotes    string    `json:"extra_notes"    gorm:"type:text;not null;default:''"`
	Materials     string    `json:"materials"      gorm:"type:text;not null"`
	ScheduledDate string    `json:"scheduled_date" gorm:"type:text;not null;default:'undefined'"`
	Status        string    `json:"status"         gorm:"type:varchar(16);not null;default:'pending';index;check:status IN ('pending','done')"`
	CreatedAt     time.Time `json:"created_at"     gorm:"index:idx_report_created,sort:desc"`
}

// TableName returns the database table name for Report.
func (Report) TableName() string { return "reports" }

// ToggledStatus returns the opposite status value of the report.
func (r *Report) ToggledStatus() string {
	if r.Status == StatusDone {
		return StatusPending
	}
	return StatusDone
}

// ValidStatus reports whether s is one of the two allowed status values.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusDone
}

// ReportDraft accumulates field values during a form session or an edit
// flow before they are persisted. It enumerates exactly the fields a
// report carries; the form state machine addresses them by the Field*
// constants so schema changes do not grow new state constants.
type ReportDraft struct {
	ClientName    string
	Address       string
	ExtraNotes    string
	Materials     string
	ScheduledDate string
}

// Set stores value under the named field. It returns false for unknown
// field names so callers can surface a contract violation.
func (d *ReportDraft) Set(field, value string) bool {
	switch field {
	case FieldClientName:
		d.ClientName = value
	case FieldAddress:
		d.Address = value
	case FieldExtraNotes:
		d.ExtraNotes = value
	case FieldMaterials:
		d.Materials = value
	case FieldScheduledDate:
		d.ScheduledDate = value
	default:
		return false
	}
	return true
}

// Get returns the current value of the named field ("" for unknown names).
func (d ReportDraft) Get(field string) string {
	switch field {
	case FieldClientName:
		return d.ClientName
	case FieldAddress:
		return d.Address
	case FieldExtraNotes:
		return d.ExtraNotes
	case FieldMaterials:
		return d.Materials
	case FieldScheduledDate:
		return d.ScheduledDate
	}
	return ""
}

// DraftOf projects a persisted report back into a draft, used by the edit
// flow to seed its local context.
func DraftOf(r *Report) ReportDraft {
	return ReportDraft{
		ClientName:    r.ClientName,
		Address:       r.Address,
		ExtraNotes:    r.ExtraNotes,
		Materials:     r.Materials,
		ScheduledDate: r.ScheduledDate,
	}
}

// FormStep is one entry of the declarative field-collection sequence.
// The form session walks the step list by index; optional steps expose a
// skip transition.
type FormStep struct {
	Field    string
	Prompt   string
	Optional bool
}

// DefaultFormSteps returns the current collection sequence: address and
// materials are mandatory, extra notes are skippable. Earlier schema
// revisions inserted client-name and description steps here; changing the
// sequence is a data change, not a state-machine change.
func DefaultFormSteps() []FormStep {
	return []FormStep{
		{Field: FieldAddress, Prompt: "Address:"},
		{Field: FieldMaterials, Prompt: "Materials to bring:"},
		{Field: FieldExtraNotes, Prompt: "Extra notes (optional):", Optional: true},
	}
}
