package shared

import (
	"context"
	"fmt"
	"math"
	"rental/shared/cache"
	"rental/shared/constant"
	"rental/shared/dto"
	"rental/shared/failure"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const cacheKeySeparator = ":"

func CalculateTotalPage(total, limit int) (res int) {
	if total == 0 || limit <= 0 {
		res = 1
	} else {
		res = int(math.Ceil(float64(total) / float64(limit)))
	}

	return res
}

// TransformFields converts the non-zero fields of a struct into a map of updated columns,
// stamping the modification metadata.
func TransformFields(data any, username string, now time.Time) map[string]any {
	val := reflect.ValueOf(data)
	typ := reflect.TypeOf(data)

	updatedFields := make(map[string]any)

	for index := range val.NumField() {
		field := val.Field(index)
		if field.IsZero() {
			continue
		}

		fieldName := typ.Field(index).Tag.Get("db")
		if fieldName == "" {
			continue
		}

		updatedFields[fieldName] = field.Interface()
	}

	updatedFields[constant.FieldModifiedAt] = now
	updatedFields[constant.FieldModifiedBy] = username

	return updatedFields
}

// ParseID parses a positive numeric identifier taken from a request. An empty value yields 0.
func ParseID(name, value string) (int64, error) {
	if value == constant.Empty {
		return 0, nil
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, failure.BadRequestFromString(fmt.Sprintf("%s must be a positive number", name)) // nolint:wrapcheck
	}

	return id, nil
}

func FilterByID(id any, fieldID, table string) dto.FilterGroup {
	return dto.FilterGroup{
		Filters: []any{
			dto.Filter{
				Field:    fieldID,
				Value:    id,
				Operator: dto.FilterOperatorEq,
				Table:    table,
			},
		},
	}
}

// BuildCacheKey joins a prefix and its parts, e.g. booking:get:<id>.
func BuildCacheKey(prefix string, parts ...any) string {
	keys := []string{prefix}

	for _, part := range parts {
		keys = append(keys, fmt.Sprint(part))
	}

	return strings.Join(keys, cacheKeySeparator)
}

// BuildCacheKeyWithQuery derives a deterministic key from pagination parameters and filters.
func BuildCacheKeyWithQuery(prefix string, params dto.QueryParams, filter dto.FilterGroup) string {
	where, args := filter.GetWhereClause()

	argKeys := make([]string, 0, len(args))
	for key := range args {
		argKeys = append(argKeys, key)
	}

	sort.Strings(argKeys)

	values := make([]string, 0, len(argKeys))
	for _, key := range argKeys {
		values = append(values, fmt.Sprintf("%s=%v", key, args[key]))
	}

	return BuildCacheKey(
		prefix,
		params.Page,
		params.Limit,
		params.SortBy,
		params.SortDir,
		where,
		strings.Join(values, "&"),
	)
}

// InvalidateCaches removes every cached entry under prefix.
func InvalidateCaches(ctx context.Context, redisCache cache.RedisCache, prefix string) {
	if err := redisCache.Clear(ctx, prefix+cacheKeySeparator+constant.Asterix); err != nil {
		log.Error().Err(err).Str("prefix", prefix).Msg("failed to invalidate caches")
	}
}
