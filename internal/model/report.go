// Package model holds the fault report domain types and their display formats.
package model

import (
	"errors"
	"strings"
	"time"
)

// Status is the lifecycle state of a fault report.
type Status string

const (
	StatusResolved   Status = "Selesai"
	StatusInProgress Status = "Proses"
	StatusPending    Status = "Pending"
)

// ErrInvalidStatus is returned when a status value is not one of the known states.
var ErrInvalidStatus = errors.New("invalid status")

// Statuses lists every valid status in form order.
var Statuses = []Status{StatusResolved, StatusInProgress, StatusPending}

// ParseStatus validates a raw status value. An empty value defaults to StatusPending.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return StatusPending, nil
	}
	st := Status(s)
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusResolved, StatusInProgress, StatusPending:
		return true
	}
	return false
}

// BadgeClass returns the CSS classes used to render the status badge.
func (s Status) BadgeClass() string {
	switch s {
	case StatusResolved:
		return "bg-success"
	case StatusInProgress:
		return "bg-warning text-dark"
	default:
		return "bg-secondary"
	}
}

// Report is a single substation fault record.
// PhotoURL, OriginalName, StoredName and UploadedAt are assigned at creation and never edited.
type Report struct {
	ID           string    `json:"id"`
	PhotoURL     string    `json:"photo_url"`
	OriginalName string    `json:"original_name"`
	StoredName   string    `json:"stored_name"`
	Substation   string    `json:"substation"`
	Fault        string    `json:"fault"`
	Repair       string    `json:"repair"`
	FaultAt      time.Time `json:"fault_at"`
	ResolvedAt   time.Time `json:"resolved_at"`
	Status       Status    `json:"status"`
	Author       string    `json:"author"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// ReportInput carries the descriptive fields supplied when a report is created.
type ReportInput struct {
	Substation string
	Fault      string
	Repair     string
	FaultAt    time.Time
	ResolvedAt time.Time
	Status     Status
	Author     string
}

// ReportUpdate is a partial update. Nil fields are left untouched.
type ReportUpdate struct {
	Substation *string
	Fault      *string
	Repair     *string
	FaultAt    *time.Time
	ResolvedAt *time.Time
	Status     *Status
	Author     *string
}

// IsEmpty reports whether the update carries no field.
func (u ReportUpdate) IsEmpty() bool {
	return u.Substation == nil && u.Fault == nil && u.Repair == nil &&
		u.FaultAt == nil && u.ResolvedAt == nil && u.Status == nil && u.Author == nil
}

// Apply copies the set fields of u onto r.
func (u ReportUpdate) Apply(r *Report) {
	if u.Substation != nil {
		r.Substation = *u.Substation
	}
	if u.Fault != nil {
		r.Fault = *u.Fault
	}
	if u.Repair != nil {
		r.Repair = *u.Repair
	}
	if u.FaultAt != nil {
		r.FaultAt = *u.FaultAt
	}
	if u.ResolvedAt != nil {
		r.ResolvedAt = *u.ResolvedAt
	}
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.Author != nil {
		r.Author = *u.Author
	}
}
