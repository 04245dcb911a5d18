package dto

import (
	"mime/multipart"
	"rental/internal/domains/payment/model"
	"rental/shared"
	gDto "rental/shared/dto"
)

type TransactionResponse struct {
	ID       string `json:"id"`
	Method   string `json:"method"`
	Amount   int64  `json:"amount"`
	Status   string `json:"status"`
	ProofURL string `json:"proof_url,omitempty"`
	gDto.Metadata
}

func (r *TransactionResponse) FromModel(transaction model.Transaction) {
	r.ID = transaction.ID
	r.Method = transaction.Method
	r.Amount = transaction.Amount
	r.Status = string(transaction.Status)
	r.ProofURL = transaction.ProofURL
	r.Metadata.FromModel(transaction.Metadata)
}

type GetTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	TotalPage    int                   `json:"total_page"`
	TotalData    int                   `json:"total_data"`
}

func (r *GetTransactionsResponse) FromModels(models []model.Transaction, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Transactions = make([]TransactionResponse, len(models))
	for i, transaction := range models {
		r.Transactions[i].FromModel(transaction)
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=unpaid pending paid"`
}

type RejectProofRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

type UploadProofRequest struct {
	Proof     *multipart.FileHeader `json:"proof" swaggerignore:"true" validate:"required,mimetypes=image/png image/jpg image/jpeg,maxfilesize=5"`
	ProofFile multipart.File        `json:"-"`
}

// StatusChangedEvent is the payload consumed from the payment status topic.
type StatusChangedEvent struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	Status        string `json:"status"         validate:"required,oneof=unpaid pending paid"`
}
