package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"rental/infras/otel"
	"rental/infras/postgres"
	"rental/internal/domains/booking/model"
	gDto "rental/shared/dto"
	gRepo "rental/shared/repository"
	"time"
)

// Booking is the interval store: bookings keyed by unit with inclusive [start_at, end_at] bounds.
type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) (int64, error)
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	FindOverlapping(ctx context.Context, criteria OverlapCriteria) ([]model.Booking, error)
}

// OverlapCriteria selects bookings intersecting [Start, End]. A zero UnitID spans every unit,
// an empty Statuses list matches any status and ExcludeID skips one booking.
type OverlapCriteria struct {
	UnitID    int64
	Start     time.Time
	End       time.Time
	Statuses  []model.Status
	Kind      model.Kind
	ExcludeID string
}

func (c OverlapCriteria) Filter() gDto.FilterGroup {
	filters := []any{}

	if c.UnitID > 0 {
		filters = append(filters, gDto.Filter{Field: model.FieldUnitID, Table: model.TableName, Value: c.UnitID, Operator: gDto.FilterOperatorEq})
	}

	if len(c.Statuses) > 0 {
		statuses := make([]string, len(c.Statuses))
		for i, status := range c.Statuses {
			statuses[i] = string(status)
		}

		filters = append(filters, gDto.Filter{Field: model.FieldStatus, Table: model.TableName, Value: statuses, Operator: gDto.FilterOperatorIn})
	}

	if c.Kind != "" {
		filters = append(filters, gDto.Filter{Field: model.FieldKind, Table: model.TableName, Value: string(c.Kind), Operator: gDto.FilterOperatorEq})
	}

	if c.ExcludeID != "" {
		filters = append(filters, gDto.Filter{ArgName: "exclude_id", Field: model.FieldID, Table: model.TableName, Value: c.ExcludeID, Operator: gDto.FilterOperatorNotEq})
	}

	filters = append(filters, gDto.Overlaps(model.TableName, model.FieldStartAt, model.FieldEndAt, c.Start, c.End))

	return gDto.And(filters...)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}

func (r *repositoryImpl) FindOverlapping(ctx context.Context, criteria OverlapCriteria) ([]model.Booking, error) {
	params := gDto.QueryParams{SortBy: model.FieldStartAt, SortDir: gDto.SortDirAsc}

	return r.GetAll(ctx, params, criteria.Filter()) //nolint:wrapcheck
}
