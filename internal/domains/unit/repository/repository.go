package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"rental/infras/otel"
	"rental/infras/postgres"
	"rental/internal/domains/unit/model"
	gDto "rental/shared/dto"
	gRepo "rental/shared/repository"
)

// Unit is read-only: the fleet is managed outside the scheduler.
type Unit interface {
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.VehicleUnit, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.VehicleUnit, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.VehicleUnit]
}

func New(db *postgres.Connection, otel otel.Otel) Unit {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.VehicleUnit](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}
