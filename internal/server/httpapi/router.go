package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nulldatamap/xthevent/internal/dbx"
	"github.com/nulldatamap/xthevent/internal/logging"
)

// RouterConfig holds the dependencies of the API router.
type RouterConfig struct {
	Logger        logging.Logger
	Sessions      SessionManager
	Registrations RegistrationFlow
	Roster        RosterManager
	Retry         dbx.RetryPolicy

	// AuthRatePerMinute and AuthBurst limit /login and /register per client
	// IP. Zero disables the limit.
	AuthRatePerMinute int
	AuthBurst         int
}

// NewRouter wires every API route.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger.With("module", "http")
	h := NewHandler(cfg.Sessions, cfg.Registrations, cfg.Roster, logger, cfg.Retry)
	limiter := NewRateLimiter(cfg.AuthRatePerMinute, cfg.AuthBurst)
	auth := Auth(cfg.Sessions, h.retry)

	r := mux.NewRouter()
	r.Use(RequestLogger(logger), Recovery(logger))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, newHTTPError(http.StatusNotFound, CodeNotFound, "route not found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, newHTTPError(http.StatusMethodNotAllowed, CodeInvalidRequest, "method not allowed"))
	})

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	r.Handle("/register", limiter.Middleware(http.HandlerFunc(h.Register))).Methods(http.MethodPost)
	r.HandleFunc("/register/confirm", h.ConfirmRegistration).Methods(http.MethodPost)
	r.Handle("/login", limiter.Middleware(http.HandlerFunc(h.Login))).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	r.Handle("/session", auth(http.HandlerFunc(h.Session))).Methods(http.MethodGet)

	r.HandleFunc("/events", h.ListEvents).Methods(http.MethodGet)
	r.Handle("/events", auth(http.HandlerFunc(h.CreateEvent))).Methods(http.MethodPost)
	r.HandleFunc("/events/{id:[0-9]+}", h.GetEvent).Methods(http.MethodGet)

	r.Handle("/events/{id:[0-9]+}/activate", auth(http.HandlerFunc(h.ActivateEvent))).Methods(http.MethodPost)
	r.Handle("/events/{id:[0-9]+}/deactivate", auth(http.HandlerFunc(h.DeactivateEvent))).Methods(http.MethodPost)
	r.Handle("/events/{id:[0-9]+}/signup", auth(http.HandlerFunc(h.Signup))).Methods(http.MethodPost)
	r.Handle("/events/{id:[0-9]+}/confirm", auth(http.HandlerFunc(h.ConfirmPlayer))).Methods(http.MethodPost)
	r.Handle("/events/{id:[0-9]+}/withdraw", auth(http.HandlerFunc(h.Withdraw))).Methods(http.MethodPost)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
