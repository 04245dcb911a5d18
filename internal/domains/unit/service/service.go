package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"rental/config"
	"rental/infras/otel"
	"rental/internal/domains/unit/model"
	"rental/internal/domains/unit/model/dto"
	"rental/internal/domains/unit/repository"
	"rental/shared"
	"rental/shared/cache"
	"rental/shared/constant"
	gDto "rental/shared/dto"
	"rental/shared/failure"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetUnit       = "unit:get"
	cacheGetUnitByCode = "unit:code"
	cacheGetAllUnit    = "unit:gets"
)

type Unit interface {
	GetUnit(ctx context.Context, id int64) (dto.UnitResponse, error)
	GetUnitByCode(ctx context.Context, code string) (dto.UnitResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (dto.GetUnitsResponse, error)
}

type serviceImpl struct {
	repo  repository.Unit
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.Unit, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Unit {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

func (s *serviceImpl) GetUnit(ctx context.Context, id int64) (res dto.UnitResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetUnit")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	return s.lookup(ctx, shared.BuildCacheKey(cacheGetUnit, id), shared.FilterByID(id, model.FieldID, model.TableName))
}

func (s *serviceImpl) GetUnitByCode(ctx context.Context, code string) (res dto.UnitResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetUnitByCode")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	return s.lookup(ctx, shared.BuildCacheKey(cacheGetUnitByCode, code), shared.FilterByID(code, model.FieldCode, model.TableName))
}

func (s *serviceImpl) lookup(ctx context.Context, cacheKey string, filter gDto.FilterGroup) (res dto.UnitResponse, err error) {
	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Debug().Str("cacheKey", cacheKey).Msg("cache hit for unit")

		return res, nil
	}

	unit, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get unit")

		return res, fmt.Errorf("failed to get unit: %w", err)
	}

	if unit.ID == 0 {
		return res, failure.NotFound("vehicle unit not found") // nolint:wrapcheck
	}

	res.FromModel(unit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save unit to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetUnitsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllUnit, params, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Debug().Str("cacheKey", cacheKey).Msg("cache hit for units")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count units")

		return res, fmt.Errorf("failed to count units: %w", err)
	}

	units, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get units")

		return res, fmt.Errorf("failed to get units: %w", err)
	}

	res.FromModels(units, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save units to cache")
		}
	}()

	return res, nil
}
