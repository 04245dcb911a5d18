package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"rental/infras/otel"
	"rental/infras/postgres"
	"rental/internal/domains/payment/model"
	gDto "rental/shared/dto"
	gRepo "rental/shared/repository"
)

type Transaction interface {
	Insert(ctx context.Context, model model.Transaction) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Transaction, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Transaction, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) (int64, error)
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Transaction]
}

func New(db *postgres.Connection, otel otel.Otel) Transaction {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Transaction](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}
