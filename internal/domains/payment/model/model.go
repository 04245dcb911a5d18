package model

import (
	"math"
	"rental/shared/model"
)

const (
	TableName  = "transactions"
	EntityName = "transaction"

	FieldID       = "id"
	FieldMethod   = "method"
	FieldAmount   = "amount"
	FieldStatus   = "status"
	FieldProofURL = "proof_url"
)

const MethodQRIS = "qris"

type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

func (s Status) IsValid() bool {
	return s == StatusUnpaid || s == StatusPending || s == StatusPaid
}

// Transaction is the payment attached to a booking.
type Transaction struct {
	ID       string `db:"id"`
	Method   string `db:"method"`
	Amount   int64  `db:"amount"`
	Status   Status `db:"status"`
	ProofURL string `db:"proof_url"`
	model.Metadata
}

func (t Transaction) HasProof() bool {
	return t.ProofURL != ""
}

// CalculateAmount charges whole days: partial days round up and anything shorter
// than a day costs one day.
func CalculateAmount(pricePerDay int64, days float64) int64 {
	billable := max(int64(math.Ceil(days)), 1)

	return pricePerDay * billable
}
