// Package repository is a generic sqlx table gateway. Columns come from the model's db tags,
// conditions from dto.FilterGroup; reads go to the read pool and writes to the write pool.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"rental/infras/otel"
	"rental/infras/postgres"
	"rental/shared/constant"
	"rental/shared/dto"
	"rental/shared/logger"
	"reflect"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const setArgPrefix = "set_"

var (
	errRequiredFilter = errors.New("required filter")

	// ErrExclusionViolation is returned when a write breaks an exclusion constraint,
	// e.g. two active bookings overlapping on the same unit.
	ErrExclusionViolation = errors.New("exclusion constraint violated")
	ErrUniqueViolation    = errors.New("unique constraint violated")
	ErrForeignKey         = errors.New("foreign key constraint violated")
)

type Repository[T any] struct {
	db            *postgres.Connection
	otel          otel.Otel
	table         string
	entity        string
	primaryColumn string
	columns       []string
}

func NewRepository[T any](entityName, tableName, primaryColumn string, db *postgres.Connection, otl otel.Otel) Repository[T] {
	return Repository[T]{
		db:            db,
		otel:          otl,
		table:         tableName,
		entity:        entityName,
		primaryColumn: primaryColumn,
		columns:       dbColumns(reflect.TypeFor[T]()),
	}
}

// trace runs fn inside a repository span. sql.ErrNoRows is not treated as a failure.
func (repo *Repository[T]) trace(ctx context.Context, operation, query string, fn func(ctx context.Context) error) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName,
		fmt.Sprintf("%s.%s.%s", constant.OtelRepositoryScopeName, repo.entity, operation))
	defer scope.End()

	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	err := fn(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logger.ErrorWithStack(err)
		scope.TraceError(err)
	}

	return err
}

func (repo *Repository[T]) Insert(ctx context.Context, model T) error {
	placeholders := make([]string, len(repo.columns))
	for i, col := range repo.columns {
		placeholders[i] = ":" + col
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		repo.table, strings.Join(repo.columns, ", "), strings.Join(placeholders, ", "))

	err := repo.trace(ctx, "Insert", query, func(ctx context.Context) error {
		_, err := repo.db.Write.NamedExecContext(ctx, query, model)

		return err //nolint:wrapcheck
	})
	if err != nil {
		return fmt.Errorf("failed to insert data (%s): %w", repo.entity, translate(err))
	}

	return nil
}

func (repo *Repository[T]) Exist(ctx context.Context, filter dto.FilterGroup) (bool, error) {
	where, args := repo.BuildWhereClause(filter)
	if where == "" {
		return false, errRequiredFilter
	}

	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s %s)", repo.table, where)

	var exist bool

	err := repo.trace(ctx, "Exist", query, func(ctx context.Context) error {
		return repo.namedGet(ctx, &exist, query, args)
	})
	if err != nil {
		return false, fmt.Errorf("failed to check exist data (%s): %w", repo.entity, err)
	}

	return exist, nil
}

// Get returns the first matching row, or the zero value of T when nothing matches.
func (repo *Repository[T]) Get(ctx context.Context, filter dto.FilterGroup, columns ...string) (T, error) {
	where, args := repo.BuildWhereClause(filter)
	query := fmt.Sprintf("SELECT %s FROM %s %s LIMIT 1", repo.selectList(columns), repo.table, where)

	var model T

	err := repo.trace(ctx, "Get", query, func(ctx context.Context) error {
		return repo.namedGet(ctx, &model, query, args)
	})
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model, fmt.Errorf("failed to get data (%s): %w", repo.entity, err)
	}

	return model, nil
}

// GetAll lists matching rows. Sorting is applied only for columns of the model and paging
// only when params carries a limit.
func (repo *Repository[T]) GetAll(ctx context.Context, params dto.QueryParams, filter dto.FilterGroup, columns ...string) ([]T, error) {
	where, args := repo.BuildWhereClause(filter)

	var ordering, pagination string

	if repo.isSortable(params.SortBy) && params.SortDir != "" {
		ordering = fmt.Sprintf("ORDER BY %s.%s %s", repo.table, params.SortBy, params.SortDir)
	}

	if params.Limit > 0 {
		args["limit"] = params.Limit
		args["offset"] = params.Offset()
		pagination = "LIMIT :limit OFFSET :offset"
	}

	query := fmt.Sprintf("SELECT %s FROM %s %s %s %s", repo.selectList(columns), repo.table, where, ordering, pagination)

	models := []T{}

	err := repo.trace(ctx, "GetAll", query, func(ctx context.Context) error {
		return repo.withNamed(ctx, query, func(stmt *sqlx.NamedStmt) error {
			return stmt.SelectContext(ctx, &models, args)
		})
	})
	if err != nil {
		return models, fmt.Errorf("failed to get all data (%s): %w", repo.entity, err)
	}

	return models, nil
}

func (repo *Repository[T]) Count(ctx context.Context, filter dto.FilterGroup) (int, error) {
	where, args := repo.BuildWhereClause(filter)
	query := fmt.Sprintf("SELECT COUNT(%s.%s) FROM %s %s", repo.table, repo.primaryColumn, repo.table, where)

	var count int

	err := repo.trace(ctx, "Count", query, func(ctx context.Context) error {
		return repo.namedGet(ctx, &count, query, args)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count data (%s): %w", repo.entity, err)
	}

	return count, nil
}

func (repo *Repository[T]) Delete(ctx context.Context, filter dto.FilterGroup) error {
	where, args := repo.BuildWhereClause(filter)
	if where == "" {
		return errRequiredFilter
	}

	query := fmt.Sprintf("DELETE FROM %s %s", repo.table, where)

	err := repo.trace(ctx, "Delete", query, func(ctx context.Context) error {
		_, err := repo.db.Write.NamedExecContext(ctx, query, args)

		return err //nolint:wrapcheck
	})
	if err != nil {
		return fmt.Errorf("failed to delete data (%s): %w", repo.entity, translate(err))
	}

	return nil
}

// Update applies mod to every row matching filter and returns the number of affected rows.
// Callers use the count to detect compare-and-set misses (e.g. a status that changed concurrently).
func (repo *Repository[T]) Update(ctx context.Context, mod map[string]any, filter dto.FilterGroup) (int64, error) {
	where, args := repo.BuildWhereClause(filter)
	if where == "" {
		return 0, errRequiredFilter
	}

	assignments := make([]string, 0, len(mod))

	for _, col := range slices.Sorted(maps.Keys(mod)) {
		// set_ prefix keeps update values apart from same-named filter arguments
		assignments = append(assignments, fmt.Sprintf("%s = :%s%s", col, setArgPrefix, col))
		args[setArgPrefix+col] = mod[col]
	}

	query := fmt.Sprintf("UPDATE %s SET %s %s", repo.table, strings.Join(assignments, ", "), where)

	var affected int64

	err := repo.trace(ctx, "Update", query, func(ctx context.Context) error {
		result, err := repo.db.Write.NamedExecContext(ctx, query, args)
		if err != nil {
			return err //nolint:wrapcheck
		}

		affected, err = result.RowsAffected()

		return err //nolint:wrapcheck
	})
	if err != nil {
		return 0, fmt.Errorf("failed to update data (%s): %w", repo.entity, translate(err))
	}

	return affected, nil
}

func (repo *Repository[T]) BuildWhereClause(filter dto.FilterGroup) (string, map[string]any) {
	where, args := filter.GetWhereClause()
	if where == "" {
		return "", map[string]any{}
	}

	return "WHERE " + where, args
}

func (repo *Repository[T]) namedGet(ctx context.Context, dest any, query string, args map[string]any) error {
	return repo.withNamed(ctx, query, func(stmt *sqlx.NamedStmt) error {
		return stmt.GetContext(ctx, dest, args)
	})
}

func (repo *Repository[T]) withNamed(ctx context.Context, query string, fn func(stmt *sqlx.NamedStmt) error) error {
	stmt, err := repo.db.Read.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	return fn(stmt)
}

func (repo *Repository[T]) isSortable(field string) bool {
	return field != "" && slices.Contains(repo.columns, field)
}

// selectList qualifies the requested columns with the table name. No request means every column.
func (repo *Repository[T]) selectList(requested []string) string {
	selected := make([]string, 0, len(repo.columns))

	for _, col := range repo.columns {
		if len(requested) > 0 && !slices.Contains(requested, col) {
			continue
		}

		selected = append(selected, repo.table+"."+col)
	}

	return strings.Join(selected, ", ")
}

// translate maps postgres constraint violations onto the package sentinels.
func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	sentinel, ok := map[string]error{
		constant.PqErrorCodeExclusionViolation: ErrExclusionViolation,
		constant.PqErrorCodeUniqueViolation:    ErrUniqueViolation,
		constant.PqErrorCodeFkViolation:        ErrForeignKey,
	}[string(pqErr.Code)]
	if !ok {
		return err
	}

	return fmt.Errorf("%w: %s", sentinel, pqErr.Constraint)
}

// dbColumns collects db tags, descending into embedded structs such as model.Metadata.
func dbColumns(t reflect.Type) []string {
	var columns []string

	for field := range fieldsOf(t) {
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			columns = append(columns, dbColumns(field.Type)...)

			continue
		}

		if tag := field.Tag.Get("db"); tag != "" && tag != "-" {
			columns = append(columns, tag)
		}
	}

	return columns
}

func fieldsOf(t reflect.Type) func(yield func(reflect.StructField) bool) {
	return func(yield func(reflect.StructField) bool) {
		for i := range t.NumField() {
			if !yield(t.Field(i)) {
				return
			}
		}
	}
}
