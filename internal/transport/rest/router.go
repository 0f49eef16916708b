package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"stylequiz/internal/quiz"
	"stylequiz/internal/service"
	"stylequiz/internal/transport/rest/handler"
	"stylequiz/internal/transport/rest/middleware"
	"stylequiz/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Engine            *quiz.Engine
	AuthService       *service.AuthService
	SessionService    *service.SessionService
	ReportService     *service.ReportService
	JobService        *service.JobService
	BackgroundRemoval *service.BackgroundRemovalService
	ColorAnalysis     *service.ColorAnalysisService
	WSHub             *ws.Hub
	CORSOrigins       string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(c.SessionService)
	catalogHandler := handler.NewCatalogHandler(c.Engine, c.ReportService)
	jobHandler := handler.NewJobHandler(c.JobService, c.BackgroundRemoval, c.ColorAnalysis)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSOrigins))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/catalog", catalogHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/stats/styles", catalogHandler.StyleStats).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	v1.HandleFunc("/background-removal", jobHandler.RemoveBackground).Methods("POST", "OPTIONS")
	v1.HandleFunc("/jobs/{jobId}", jobHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/jobs/{jobId}/result", jobHandler.Result).Methods("GET", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/sessions/{id}", wsHandler.SessionWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Session routes (require a token for the session in the path)
	sessionRoutes := v1.PathPrefix("/sessions/{id}").Subrouter()
	sessionRoutes.Use(authMW.RequireSession)

	sessionRoutes.HandleFunc("", sessionHandler.Get).Methods("GET", "OPTIONS")
	sessionRoutes.HandleFunc("/start", sessionHandler.Start).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/answers", sessionHandler.Answer).Methods("PUT", "OPTIONS")
	sessionRoutes.HandleFunc("/next", sessionHandler.Next).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/prev", sessionHandler.Prev).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/restart", sessionHandler.Restart).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/photos", sessionHandler.UploadPhotos).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/report", sessionHandler.Report).Methods("GET", "OPTIONS")

	// Color analysis routes ("final" before the {step} pattern)
	sessionRoutes.HandleFunc("/color", jobHandler.ClearColor).Methods("DELETE", "OPTIONS")
	sessionRoutes.HandleFunc("/color/final", jobHandler.FinalizeColor).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/color/{step}", jobHandler.AnalyzeColorStep).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/color/{step}", jobHandler.ClearColorStep).Methods("DELETE", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
