package model

import (
	"database/sql"
	"rental/shared/model"
	"slices"
	"strings"
	"time"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID              = "id"
	FieldUnitID          = "unit_id"
	FieldRequesterID     = "requester_id"
	FieldStartAt         = "start_at"
	FieldEndAt           = "end_at"
	FieldStatus          = "status"
	FieldKind            = "kind"
	FieldStatusNote      = "status_note"
	FieldTransactionID   = "transaction_id"
	FieldStatusUpdatedAt = "status_updated_at"
)

// BlockNotePrefix marks admin-block notes so they read the same as in the legacy admin panel.
const BlockNotePrefix = "BLOCKED_BY_ADMIN: "

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusOnGoing  Status = "on_going"
	StatusOvertime Status = "overtime"
	StatusDone     Status = "done"
)

type Kind string

const (
	KindCustomer   Kind = "customer"
	KindAdminBlock Kind = "admin_block"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusOnGoing},
	StatusOnGoing:  {StatusOvertime, StatusDone},
	StatusOvertime: {StatusDone},
}

// ActiveStatuses hold a unit's calendar. Overtime is deliberately absent: an overrunning
// rental is settled by staff and does not block new requests.
var ActiveStatuses = []Status{StatusPending, StatusApproved, StatusOnGoing}

// OccupyingStatuses are shown as unavailable periods on the availability calendar.
var OccupyingStatuses = []Status{StatusPending, StatusApproved, StatusOnGoing, StatusOvertime}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusOnGoing, StatusOvertime, StatusDone:
		return true
	default:
		return false
	}
}

func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) IsActive() bool {
	return slices.Contains(ActiveStatuses, s)
}

func (k Kind) IsValid() bool {
	return k == KindCustomer || k == KindAdminBlock
}

// Booking reserves a unit for the inclusive interval [StartAt, EndAt].
type Booking struct {
	ID              string         `db:"id"`
	UnitID          int64          `db:"unit_id"`
	RequesterID     string         `db:"requester_id"`
	StartAt         time.Time      `db:"start_at"`
	EndAt           time.Time      `db:"end_at"`
	Status          Status         `db:"status"`
	Kind            Kind           `db:"kind"`
	StatusNote      string         `db:"status_note"`
	TransactionID   sql.NullString `db:"transaction_id"`
	StatusUpdatedAt time.Time      `db:"status_updated_at"`
	model.Metadata
}

func (b Booking) IsBlock() bool {
	return b.Kind == KindAdminBlock
}

// Overlaps reports whether b intersects [start, end]. Touching bounds count.
func (b Booking) Overlaps(start, end time.Time) bool {
	return Overlaps(b.StartAt, b.EndAt, start, end)
}

// Overlaps is the inclusive interval test s1 <= e2 && s2 <= e1.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return !start1.After(end2) && !start2.After(end1)
}

// BlockNote prefixes note with the admin-block marker unless it already carries it.
func BlockNote(note string) string {
	if strings.HasPrefix(note, BlockNotePrefix) {
		return note
	}

	return BlockNotePrefix + note
}

// StripBlockNote returns the human part of an admin-block note.
func StripBlockNote(note string) string {
	return strings.TrimPrefix(note, BlockNotePrefix)
}
