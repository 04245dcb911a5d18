package shared_test

import (
	"context"
	"errors"
	"rental/shared"
	cacheMocks "rental/shared/cache/mocks"
	"rental/shared/constant"
	"rental/shared/dto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestCalculateTotalPage(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		limit    int
		expected int
	}{
		{name: "no bookings", total: 0, limit: 10, expected: 1},
		{name: "unbounded limit", total: 40, limit: 0, expected: 1},
		{name: "exact pages", total: 40, limit: 10, expected: 4},
		{name: "partial last page", total: 41, limit: 10, expected: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shared.CalculateTotalPage(tt.total, tt.limit))
		})
	}
}

func TestTransformFields(t *testing.T) {
	type reschedule struct {
		StartAt    time.Time `db:"start_at"`
		EndAt      time.Time `db:"end_at"`
		StatusNote string    `db:"status_note"`
		Ignored    string
	}

	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 3, 23, 59, 59, 0, time.UTC)

	now := time.Date(2024, 6, 30, 8, 0, 0, 0, time.UTC)

	result := shared.TransformFields(reschedule{StartAt: start, EndAt: end, Ignored: "x"}, "admin-1", now)

	assert.Equal(t, start, result["start_at"])
	assert.Equal(t, end, result["end_at"])
	assert.NotContains(t, result, "status_note")
	assert.NotContains(t, result, "Ignored")
	assert.Equal(t, "admin-1", result[constant.FieldModifiedBy])
	assert.Equal(t, now, result[constant.FieldModifiedAt])
}

func TestFilterByID(t *testing.T) {
	tests := []struct {
		name    string
		id      any
		fieldID string
		table   string
	}{
		{name: "uuid booking id", id: "550e8400-e29b-41d4-a716-446655440000", fieldID: "id", table: "bookings"},
		{name: "numeric unit id", id: int64(7), fieldID: "id", table: "vehicle_units"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shared.FilterByID(tt.id, tt.fieldID, tt.table)

			assert.Len(t, result.Filters, 1)

			filter, ok := result.Filters[0].(dto.Filter)
			assert.True(t, ok)
			assert.Equal(t, tt.fieldID, filter.Field)
			assert.Equal(t, tt.id, filter.Value)
			assert.Equal(t, dto.FilterOperatorEq, filter.Operator)
			assert.Equal(t, tt.table, filter.Table)
		})
	}
}

func TestBuildCacheKey(t *testing.T) {
	assert.Equal(t, "booking:get:abc", shared.BuildCacheKey("booking:get", "abc"))
	assert.Equal(t, "limiter:10.0.0.1:curl", shared.BuildCacheKey("limiter", "10.0.0.1", "curl"))
	assert.Equal(t, "unit:get:7", shared.BuildCacheKey("unit:get", int64(7)))
}

func TestBuildCacheKeyWithQuery(t *testing.T) {
	params := dto.QueryParams{Page: 1, Limit: 10}

	byUnit := func(unitID int64) dto.FilterGroup {
		return dto.FilterGroup{
			Operator: dto.FilterGroupOperatorAnd,
			Filters: []any{
				dto.Filter{Field: "unit_id", Value: unitID, Operator: dto.FilterOperatorEq},
				dto.Filter{Field: "status", Value: []string{"pending", "approved"}, Operator: dto.FilterOperatorIn},
			},
		}
	}

	first := shared.BuildCacheKeyWithQuery("booking:gets", params, byUnit(7))
	second := shared.BuildCacheKeyWithQuery("booking:gets", params, byUnit(7))
	other := shared.BuildCacheKeyWithQuery("booking:gets", params, byUnit(8))

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Contains(t, first, "booking:gets:1:10")
}

func TestInvalidateCaches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	mockCache.EXPECT().Clear(gomock.Any(), "booking:gets:*").Return(nil)
	shared.InvalidateCaches(context.Background(), mockCache, "booking:gets")

	mockCache.EXPECT().Clear(gomock.Any(), "booking:count:*").Return(errors.New("redis down"))
	shared.InvalidateCaches(context.Background(), mockCache, "booking:count")
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int64
		wantErr bool
	}{
		{name: "empty", value: "", want: 0},
		{name: "valid", value: "42", want: 42},
		{name: "zero", value: "0", wantErr: true},
		{name: "negative", value: "-3", wantErr: true},
		{name: "not a number", value: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := shared.ParseID("unit_id", tt.value)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
