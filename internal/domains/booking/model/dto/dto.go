package dto

import (
	"rental/internal/domains/booking/model"
	unitDto "rental/internal/domains/unit/model/dto"
	"rental/shared"
	"rental/shared/constant"
	"rental/shared/daterange"
	gDto "rental/shared/dto"
	"rental/shared/timezone"
	"time"
)

type CreateBookingRequest struct {
	UnitID    int64  `json:"unit_id"    validate:"required,gt=0"`
	StartDate string `json:"start_date" validate:"required,yyyymmdd"`
	EndDate   string `json:"end_date"   validate:"required,yyyymmdd"`
}

// RejectBookingRequest carries the reason shown to the customer and, optionally, the
// status the linked payment should move to.
type RejectBookingRequest struct {
	Reason        string `json:"reason"`
	PaymentStatus string `json:"payment_status" validate:"omitempty,oneof=unpaid pending paid"`
}

type RescheduleRequest struct {
	StartDate string `json:"start_date" validate:"required,yyyymmdd"`
	EndDate   string `json:"end_date"   validate:"required,yyyymmdd"`
	Note      string `json:"note"       validate:"omitempty,max=255"`
}

type PeriodResponse struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (p *PeriodResponse) FromRange(period daterange.Range) {
	p.StartDate = daterange.Format(period.Start)
	p.EndDate = daterange.Format(period.End)
}

type BookingResponse struct {
	ID              string `json:"id"`
	UnitID          int64  `json:"unit_id"`
	RequesterID     string `json:"requester_id"`
	StartAt         string `json:"start_at"`
	EndAt           string `json:"end_at"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	Status          string `json:"status"`
	Kind            string `json:"kind"`
	StatusNote      string `json:"status_note"`
	TransactionID   string `json:"transaction_id,omitempty"`
	StatusUpdatedAt string `json:"status_updated_at"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(booking model.Booking) {
	r.ID = booking.ID
	r.UnitID = booking.UnitID
	r.RequesterID = booking.RequesterID
	r.StartAt = timezone.Format(booking.StartAt, constant.DateFormat)
	r.EndAt = timezone.Format(booking.EndAt, constant.DateFormat)
	r.StartDate = daterange.Format(booking.StartAt)
	r.EndDate = daterange.Format(booking.EndAt)
	r.Status = string(booking.Status)
	r.Kind = string(booking.Kind)
	r.StatusNote = booking.StatusNote
	r.TransactionID = booking.TransactionID.String
	r.StatusUpdatedAt = timezone.Format(booking.StatusUpdatedAt, constant.DateFormat)
	r.Metadata.FromModel(booking.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, booking := range models {
		r.Bookings[i].FromModel(booking)
	}
}

// ConflictResponse describes an existing booking that blocks a requested window.
type ConflictResponse struct {
	BookingID string `json:"booking_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
	Kind      string `json:"kind"`
	Note      string `json:"note,omitempty"`
}

func (r *ConflictResponse) FromModel(booking model.Booking) {
	r.BookingID = booking.ID
	r.StartDate = daterange.Format(booking.StartAt)
	r.EndDate = daterange.Format(booking.EndAt)
	r.Status = string(booking.Status)
	r.Kind = string(booking.Kind)

	if booking.IsBlock() {
		r.Note = model.StripBlockNote(booking.StatusNote)
	}
}

func ConflictsFromModels(models []model.Booking) []ConflictResponse {
	conflicts := make([]ConflictResponse, len(models))
	for i, booking := range models {
		conflicts[i].FromModel(booking)
	}

	return conflicts
}

type ConflictsResponse struct {
	UnitID    int64              `json:"unit_id"`
	Period    PeriodResponse     `json:"period"`
	Conflicts []ConflictResponse `json:"conflicts"`
}

type AvailabilityRequest struct {
	UnitID    int64  `json:"unit_id"    validate:"omitempty,gt=0"`
	UnitCode  string `json:"unit_code"  validate:"omitempty,max=50"`
	StartDate string `json:"start_date" validate:"omitempty,yyyymmdd"`
	EndDate   string `json:"end_date"   validate:"omitempty,yyyymmdd"`
}

type AvailabilityResponse struct {
	UnitID             int64              `json:"unit_id"`
	UnitCode           string             `json:"unit_code"`
	Available          bool               `json:"available"`
	Period             PeriodResponse     `json:"period"`
	Conflicts          []ConflictResponse `json:"conflicts"`
	UnavailablePeriods []ConflictResponse `json:"unavailable_periods"`
}

type AvailableUnitsRequest struct {
	StartDate string `json:"start_date" validate:"omitempty,yyyymmdd"`
	EndDate   string `json:"end_date"   validate:"omitempty,yyyymmdd"`
}

type AvailableUnitsResponse struct {
	Period PeriodResponse         `json:"period"`
	Units  []unitDto.UnitResponse `json:"units"`
}

// StatusChangedEvent is published whenever a booking moves between statuses.
type StatusChangedEvent struct {
	BookingID string    `json:"booking_id"`
	UnitID    int64     `json:"unit_id"`
	Kind      string    `json:"kind"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Note      string    `json:"note"`
	At        time.Time `json:"at"`
}
