package main

import (
	"fmt"
	"net/http"

	"github.com/criclink/criclink/go/internal/gateway"
	"github.com/criclink/criclink/go/internal/httpapi"
	"github.com/criclink/criclink/go/internal/rpcapi"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(port string, config Config, services *Services, health http.Handler) *http.Server {
	router := mux.NewRouter()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: config.Server.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	// Register API and websocket routes
	httpapi.NewHandler(services.API).RegisterRoutes(router)
	gateway.NewWebSocketHandler(services.Gateway).RegisterRoutes(router)
	setupRPC(router, services.API)

	setupHealthCheck(router, health)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Wrap with CORS
	handler := c.Handler(router)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

// setupRPC mounts the Connect services beside the REST routes.
func setupRPC(router *mux.Router, api httpapi.Services) {
	bookingPath, bookingHandler := rpcapi.NewBookingServiceHandler(api.Bookings)
	router.PathPrefix(bookingPath).Handler(bookingHandler)

	matchPath, matchHandler := rpcapi.NewRequestServiceHandler(rpcapi.MatchRequestServiceName, api.MatchRequests)
	router.PathPrefix(matchPath).Handler(matchHandler)

	joinPath, joinHandler := rpcapi.NewRequestServiceHandler(rpcapi.JoinRequestServiceName, api.JoinRequests)
	router.PathPrefix(joinPath).Handler(joinHandler)

	invitationPath, invitationHandler := rpcapi.NewRequestServiceHandler(rpcapi.InvitationServiceName, api.Invitations)
	router.PathPrefix(invitationPath).Handler(invitationHandler)

	log.Info().Strs("services", []string{
		rpcapi.BookingServiceName,
		rpcapi.MatchRequestServiceName,
		rpcapi.JoinRequestServiceName,
		rpcapi.InvitationServiceName,
	}).Msg("connect services mounted")
}

// setupHealthCheck mounts health, falling back to a plain OK when no checker is configured.
func setupHealthCheck(router *mux.Router, health http.Handler) {
	if health != nil {
		router.Handle("/health", health).Methods(http.MethodGet)
		return
	}
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	}).Methods(http.MethodGet)
}
