package handler

import (
	"net/http"
	"rental/config"
	"rental/di"
	"rental/shared/logger"
	"sync"

	transport "rental/transport/http"
)

var (
	service *transport.HTTP
	once    sync.Once
)

// Handler serves the API from a serverless function. The dependency graph is built on the
// first invocation and reused while the instance stays warm.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()

	once.Do(func() {
		logger.Configure(config.Get())

		service = di.InitializeService()
	})

	service.ServeHTTP(w, r)
}
