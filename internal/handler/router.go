package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/yeyunwen/ai-full-stack/internal/handler/gateway"
	"github.com/yeyunwen/ai-full-stack/internal/handler/message"
	"github.com/yeyunwen/ai-full-stack/internal/middleware"
	"github.com/yeyunwen/ai-full-stack/internal/service/history"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(turns gateway.TurnProcessor, store history.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	gatewayHandler := gateway.New(turns)
	messageHandler := message.New(store)

	r.Route("/api", func(api chi.Router) {
		gatewayHandler.RegisterRoutes(api)
		messageHandler.RegisterRoutes(api)
	})

	return r
}
