package dto

import (
	bookingDto "rental/internal/domains/booking/model/dto"
)

const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// BlockRequest reserves the same window on several units at once.
type BlockRequest struct {
	UnitIDs   []int64 `json:"unit_ids"   validate:"required,min=1,dive,gt=0"`
	StartDate string  `json:"start_date" validate:"required,yyyymmdd"`
	EndDate   string  `json:"end_date"   validate:"required,yyyymmdd"`
	Note      string  `json:"note"       validate:"omitempty,max=255"`
}

type UnitResult struct {
	UnitID        int64                         `json:"unit_id"`
	Status        string                        `json:"status"`
	Message       string                        `json:"message"`
	BookingID     string                        `json:"booking_id,omitempty"`
	BlockedPeriod *bookingDto.PeriodResponse    `json:"blocked_period,omitempty"`
	Conflicts     []bookingDto.ConflictResponse `json:"conflicts,omitempty"`
}

type BlockResponse struct {
	Results      []UnitResult `json:"results"`
	SuccessCount int          `json:"success_count"`
	FailedCount  int          `json:"failed_count"`
}

type RescheduleRequest struct {
	StartDate string `json:"start_date" validate:"required,yyyymmdd"`
	EndDate   string `json:"end_date"   validate:"required,yyyymmdd"`
	Note      string `json:"note"       validate:"omitempty,max=255"`
}

type BlockedDatesRequest struct {
	UnitID    int64  `json:"unit_id"    validate:"required,gt=0"`
	StartDate string `json:"start_date" validate:"omitempty,yyyymmdd"`
	EndDate   string `json:"end_date"   validate:"omitempty,yyyymmdd"`
}

type BlockedDatesResponse struct {
	UnitID int64                     `json:"unit_id"`
	Period bookingDto.PeriodResponse `json:"period"`
	Dates  []string                  `json:"dates"`
}

type ExportRequest struct {
	StartDate string `json:"start_date" validate:"omitempty,yyyymmdd"`
	EndDate   string `json:"end_date"   validate:"omitempty,yyyymmdd"`
}

// ExportResponse is a rendered spreadsheet ready to be streamed to the client.
type ExportResponse struct {
	FileName string
	Content  []byte
}
