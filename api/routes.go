package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	rh "github.com/coreybb/couponbook/route-handlers"
	"github.com/coreybb/couponbook/webutil"
)

const (
	apiBasePath         = "/api"
	couponsBasePath     = "/coupons"
	usersBasePath       = "/users"
	authBasePath        = "/auth"
	suggestionsBasePath = "/suggestions"
)

const (
	redeemSubPath   = "/redeem"
	scheduleSubPath = "/schedule"
	loginSubPath    = "/login"
)

const (
	paramID = "id" // General parameter name for resource IDs
)

const requestTimeout = 60 * time.Second

func SetupRoutes(
	couponHandler *rh.CouponHandler,
	userHandler *rh.UserHandler,
	authHandler *rh.AuthHandler,
	suggestionHandler *rh.SuggestionHandler,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Log every request
	r.Use(middleware.Recoverer) // Recover from panics
	r.Use(Metrics)
	r.Use(CORS)
	r.Use(middleware.Timeout(requestTimeout)) // Set a timeout context for requests

	r.Route(apiBasePath, func(r chi.Router) {
		r.Use(SetHeader(webutil.HeaderContentType, webutil.ContentTypeJSONUTF8)) // Default Content-Type

		configureCouponRoutes(r, couponHandler)
		configureUserRoutes(r, userHandler)
		configureAuthRoutes(r, authHandler)
		configureSuggestionRoutes(r, suggestionHandler)
	})

	r.Get("/", handleIndex)
	r.Get("/health", handleHealth)
	r.Get("/healthz", handleHealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Helper for constructing paths with a parameter
func pathWithParam(basePath string, paramName string) string {
	if basePath == "" {
		return "/{" + paramName + "}"
	}
	return basePath + "/{" + paramName + "}"
}

// --- Coupon Routes ---
func configureCouponRoutes(r chi.Router, handler *rh.CouponHandler) {
	specificCouponPath := pathWithParam("", paramID) // e.g., "/{id}"

	r.Route(couponsBasePath, func(r chi.Router) {
		r.Get("/", rh.Handle(handler.HandleGetCoupons)) // ?userId= or ?adminId=
		r.Post("/", rh.Handle(handler.HandleCreateCoupons))
		r.Route(specificCouponPath, func(r chi.Router) {
			r.Delete("/", rh.Handle(handler.HandleDeleteCoupon))
			r.Put(redeemSubPath, rh.Handle(handler.HandleRedeemCoupon))     // PUT /coupons/{id}/redeem
			r.Put(scheduleSubPath, rh.Handle(handler.HandleScheduleCoupon)) // PUT /coupons/{id}/schedule
		})
	})
}

// --- User Routes ---
func configureUserRoutes(r chi.Router, handler *rh.UserHandler) {
	specificUserPath := pathWithParam("", paramID)

	r.Route(usersBasePath, func(r chi.Router) {
		r.Get("/", rh.Handle(handler.HandleGetUsers))
		r.Post("/", rh.Handle(handler.HandleCreateUser))
		r.Route(specificUserPath, func(r chi.Router) {
			r.Get("/", rh.Handle(handler.HandleGetUser))
			r.Put("/", rh.Handle(handler.HandleEditUser))
			r.Delete("/", rh.Handle(handler.HandleDeleteUser))
		})
	})
}

// --- Auth Routes ---
func configureAuthRoutes(r chi.Router, handler *rh.AuthHandler) {
	r.Post(authBasePath+loginSubPath, rh.Handle(handler.HandleLogin))
}

// --- Suggestion Routes ---
func configureSuggestionRoutes(r chi.Router, handler *rh.SuggestionHandler) {
	r.Route(suggestionsBasePath, func(r chi.Router) {
		r.Get("/", rh.Handle(handler.HandleGetSuggestions))
		r.Post("/", rh.Handle(handler.HandleCreateSuggestion))
		r.Delete(pathWithParam("", paramID), rh.Handle(handler.HandleDeleteSuggestion))
	})
}

// --- Utility Functions ---

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Coupon Book API is running",
	})
}

var endpointIndex = map[string]map[string]string{
	"coupons": {
		"POST /api/coupons":              "Create new coupons",
		"GET /api/coupons":               "List coupons (optional ?userId= or ?adminId= filter)",
		"DELETE /api/coupons/{id}":       "Delete a coupon",
		"PUT /api/coupons/{id}/redeem":   "Redeem a coupon",
		"PUT /api/coupons/{id}/schedule": "Schedule a coupon",
	},
	"users": {
		"POST /api/users":        "Create a new user",
		"GET /api/users":         "Get all users",
		"GET /api/users/{id}":    "Get a specific user",
		"PUT /api/users/{id}":    "Edit a user",
		"DELETE /api/users/{id}": "Delete a user",
	},
	"auth": {
		"POST /api/auth/login": "Login with email and password",
	},
	"suggestions": {
		"POST /api/suggestions":        "Submit a suggestion",
		"GET /api/suggestions":         "Get all suggestions",
		"DELETE /api/suggestions/{id}": "Delete a suggestion",
	},
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	webutil.RespondWithJSON(w, http.StatusOK, map[string]any{
		"message":   "Welcome to the Coupon Book API",
		"endpoints": endpointIndex,
	})
}
