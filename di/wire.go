//go:build wireinject
// +build wireinject

package di

import (
	"rental/config"
	"rental/infras/jwt"
	"rental/infras/kafka"
	"rental/infras/otel"
	"rental/infras/postgres"
	"rental/infras/rabbitmq"
	"rental/infras/redis"
	"rental/infras/s3"
	paymentConsumer "rental/internal/consumers/payment"
	"rental/permissions"
	"rental/shared/cache"
	"rental/shared/event"
	"rental/shared/lock"
	"rental/transport/http"
	"rental/transport/http/middleware"
	"rental/transport/http/router"

	"github.com/google/wire"

	blockService "rental/internal/domains/block/service"
	bookingRepository "rental/internal/domains/booking/repository"
	bookingService "rental/internal/domains/booking/service"
	paymentRepository "rental/internal/domains/payment/repository"
	paymentService "rental/internal/domains/payment/service"
	unitRepository "rental/internal/domains/unit/repository"
	unitService "rental/internal/domains/unit/service"
	availabilityHandler "rental/internal/handlers/availability"
	blockHandler "rental/internal/handlers/block"
	bookingHandler "rental/internal/handlers/booking"
	paymentHandler "rental/internal/handlers/payment"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	s3.New,
	kafka.New,
	rabbitmq.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	lock.NewRedisLocker,
	event.New,
)

var unitDomain = wire.NewSet(
	unitRepository.New,
	unitService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var paymentDomain = wire.NewSet(
	paymentRepository.New,
	paymentService.New,
	wire.Bind(new(paymentService.Synchronizer), new(bookingService.Booking)),
)

var blockDomain = wire.NewSet(
	blockService.New,
)

var domains = wire.NewSet(
	unitDomain,
	bookingDomain,
	paymentDomain,
	blockDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	bookingHandler.New,
	paymentHandler.New,
	blockHandler.New,
	availabilityHandler.New,
	router.New,
)

var consumers = wire.NewSet(
	paymentConsumer.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

func InitializeApp() *App {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		consumers,
		http.New,
		wire.Struct(new(App), "*"),
	)

	return &App{}
}
