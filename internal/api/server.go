// Package api serves the storefront and admin console HTTP JSON API.
package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/jogardn/partsdepot/internal/auth"
	"github.com/jogardn/partsdepot/internal/events"
	"github.com/sirupsen/logrus"
)

type Deps struct {
	Parts      PartStore
	Accounts   AccountStore
	Orders     OrderStore
	Deliveries DeliveryStore
	Reports    ReportStore
	Health     HealthChecker

	// Events receives a domain event after every successful order, checkout
	// and delivery write. Nil disables publishing.
	Events events.Publisher
	// Tokens signs login tokens. Nil means logins return no token.
	Tokens *auth.Issuer
	// Feed serves the live admin feed at /ws when set.
	Feed http.Handler
	// Breaker reports the event producer's circuit state on /api/health.
	Breaker BreakerReporter
}

type Options struct {
	RequireEmployee bool
	CORSOrigin      string
}

type Server struct {
	deps     Deps
	opts     Options
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewServer(deps Deps, opts Options, logger *logrus.Logger) *Server {
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}
	if opts.RequireEmployee && !deps.Tokens.Enabled() {
		logger.Warn("Employee auth is required but no JWT secret is set; admin routes will reject every request")
	}
	return &Server{
		deps:     deps,
		opts:     opts,
		validate: newValidator(),
		logger:   logger,
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.HealthCheck).Methods("GET", "OPTIONS")

	api.HandleFunc("/parts", s.ListParts).Methods("GET", "OPTIONS")
	api.Handle("/parts/manage", s.admin(s.ManageListParts)).Methods("GET", "OPTIONS")
	api.Handle("/parts/manage", s.admin(s.CreatePart)).Methods("POST", "OPTIONS")
	api.Handle("/parts/manage/{id}", s.admin(s.UpdatePart)).Methods("PUT", "OPTIONS")
	api.Handle("/parts/manage/{id}", s.admin(s.DeletePart)).Methods("DELETE", "OPTIONS")

	api.HandleFunc("/login", s.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/customers", s.RegisterCustomer).Methods("POST", "OPTIONS")

	api.Handle("/employees", s.admin(s.ListEmployees)).Methods("GET", "OPTIONS")
	api.Handle("/employees", s.admin(s.CreateEmployee)).Methods("POST", "OPTIONS")
	api.Handle("/employees/{id}", s.admin(s.GetEmployee)).Methods("GET", "OPTIONS")
	api.Handle("/employees/{id}", s.admin(s.UpdateEmployee)).Methods("PUT", "OPTIONS")
	api.Handle("/employees/{id}", s.admin(s.DeleteEmployee)).Methods("DELETE", "OPTIONS")

	api.Handle("/orders", s.admin(s.ListOrders)).Methods("GET", "OPTIONS")
	api.HandleFunc("/orders", s.CreateOrder).Methods("POST", "OPTIONS")
	api.Handle("/orders/{id}", s.admin(s.GetOrder)).Methods("GET", "OPTIONS")
	api.Handle("/orders/{id}", s.admin(s.DeleteOrder)).Methods("DELETE", "OPTIONS")

	api.HandleFunc("/checkout", s.Checkout).Methods("POST", "OPTIONS")

	api.Handle("/delivery", s.admin(s.ListDeliveries)).Methods("GET", "OPTIONS")
	api.Handle("/delivery", s.admin(s.UpdateDelivery)).Methods("POST", "OPTIONS")

	api.Handle("/reports/{period}", s.admin(s.Report)).Methods("GET", "OPTIONS")

	if s.deps.Feed != nil {
		router.Handle("/ws", s.admin(s.deps.Feed.ServeHTTP))
	}

	router.Use(requestIDMiddleware)
	router.Use(corsMiddleware(s.opts.CORSOrigin))
	router.Use(loggingMiddleware(s.logger))

	return router
}

// admin guards admin console routes with the employee token check when it is
// enabled.
func (s *Server) admin(h http.HandlerFunc) http.Handler {
	if !s.opts.RequireEmployee {
		return h
	}
	return auth.RequireEmployee(s.deps.Tokens, s.logger)(h)
}

// auditLog tags admin writes with the employee who made them.
func (s *Server) auditLog(r *http.Request) *logrus.Entry {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		return s.logger.WithField("actor", claims.Subject)
	}
	return logrus.NewEntry(s.logger)
}

func (s *Server) publish(event events.Event) {
	if s.deps.Events == nil {
		return
	}
	if err := s.deps.Events.Publish(event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"event_type": event.Type,
			"order_id":   event.OrderID,
		}).Warn("Domain event not delivered")
	}
}
