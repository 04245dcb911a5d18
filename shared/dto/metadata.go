package dto

import (
	"rental/shared/constant"
	"rental/shared/model"
	"rental/shared/timezone"
	"time"
)

// Metadata is the audit trail embedded in responses. Timestamps are RFC 3339 in the
// application timezone; a zero time renders as an empty string.
type Metadata struct {
	CreatedAt  string `json:"created_at"`
	CreatedBy  string `json:"created_by"`
	ModifiedAt string `json:"modified_at,omitempty"`
	ModifiedBy string `json:"modified_by,omitempty"`
}

func (m *Metadata) FromModel(src model.Metadata) {
	*m = Metadata{
		CreatedAt:  formatTimestamp(src.CreatedAt),
		CreatedBy:  src.CreatedBy,
		ModifiedAt: formatTimestamp(src.ModifiedAt),
		ModifiedBy: src.ModifiedBy,
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return constant.Empty
	}

	return timezone.Format(t, constant.DateFormat)
}
