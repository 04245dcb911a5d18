package router

import (
	"rental/internal/handlers/availability"
	"rental/internal/handlers/block"
	"rental/internal/handlers/booking"
	"rental/internal/handlers/payment"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Booking      booking.Handler
	Payment      payment.Handler
	Block        block.Handler
	Availability availability.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.Booking.Router(routerGroup)
		r.DomainHandlers.Payment.Router(routerGroup)
		r.DomainHandlers.Block.Router(routerGroup)
		r.DomainHandlers.Availability.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers) Router {
	return Router{
		DomainHandlers: domainHandlers,
	}
}
