package repository

import (
	"errors"
	"rental/shared/dto"
	"rental/shared/model"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	ID     string `db:"id"`
	Name   string `db:"name"`
	Secret string `db:"-"`
	Note   string
	model.Metadata
}

func newSampleRepository() Repository[sample] {
	return NewRepository[sample]("sample", "samples", "id", nil, nil)
}

func TestNewRepositoryColumns(t *testing.T) {
	repo := newSampleRepository()

	assert.Equal(t, []string{"id", "name", "created_at", "modified_at", "created_by", "modified_by"}, repo.columns)
	assert.True(t, repo.isSortable("created_at"))
	assert.False(t, repo.isSortable("secret"))
	assert.False(t, repo.isSortable(""))
}

func TestSelectList(t *testing.T) {
	repo := newSampleRepository()

	assert.Equal(t, "samples.id, samples.name", repo.selectList([]string{"name", "id", "unknown"}))
	assert.Contains(t, repo.selectList(nil), "samples.modified_by")
}

func TestBuildWhereClause(t *testing.T) {
	repo := newSampleRepository()

	where, args := repo.BuildWhereClause(dto.FilterGroup{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = repo.BuildWhereClause(dto.And(dto.Filter{Field: "id", Value: "s-1", Operator: dto.FilterOperatorEq}))
	assert.Equal(t, "WHERE (id = :id)", where)
	assert.Equal(t, map[string]any{"id": "s-1"}, args)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "exclusion", err: &pq.Error{Code: "23P01", Constraint: "bookings_no_overlap"}, want: ErrExclusionViolation},
		{name: "unique", err: &pq.Error{Code: "23505"}, want: ErrUniqueViolation},
		{name: "foreign key", err: &pq.Error{Code: "23503"}, want: ErrForeignKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translate(tt.err), tt.want)
		})
	}

	plain := errors.New("connection reset")
	assert.Equal(t, plain, translate(plain))

	other := &pq.Error{Code: "42P01"}
	assert.Equal(t, error(other), translate(other))
}
