package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/smita-2184/llm-eval/internal/config"
	"github.com/smita-2184/llm-eval/internal/service"
	"github.com/smita-2184/llm-eval/internal/transport/rest/handler"
	"github.com/smita-2184/llm-eval/internal/transport/rest/middleware"
	"github.com/smita-2184/llm-eval/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Config          *config.Config
	Logger          *logrus.Logger
	AuthService     *service.AuthService
	FanoutService   *service.FanoutService
	DocumentService *service.DocumentService
	EvalService     *service.EvaluationService
	ProgressService *service.ProgressService
	WSHub           *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	chatHandler := handler.NewChatHandler(c.FanoutService)
	streamHandler := handler.NewStreamHandler(c.FanoutService, c.Logger)
	docHandler := handler.NewDocumentHandler(c.DocumentService, c.Logger)
	evalHandler := handler.NewEvaluationHandler(c.EvalService)
	progressHandler := handler.NewProgressHandler(c.ProgressService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.ProgressService, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)
	rateMW := middleware.NewRateLimitMiddleware(c.Config.RateLimit, c.Logger)

	r.Use(corsMiddleware)
	r.Use(middleware.Metrics)

	// Health check and metrics
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/register-user", authHandler.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/check-username", authHandler.CheckUsername).Methods("POST", "OPTIONS")
	api.HandleFunc("/login", authHandler.Login).Methods("POST", "OPTIONS")

	// LLM routes (rate limited)
	llmRoutes := api.NewRoute().Subrouter()
	llmRoutes.Use(rateMW.Limit)

	llmRoutes.HandleFunc("/generate-responses", chatHandler.GenerateResponses).Methods("POST", "OPTIONS")
	llmRoutes.HandleFunc("/stream/gemini", streamHandler.StreamGemini).Methods("POST", "OPTIONS")
	llmRoutes.HandleFunc("/stream/groq", streamHandler.StreamGroq).Methods("POST", "OPTIONS")
	llmRoutes.HandleFunc("/stream/mistral", streamHandler.StreamMistral).Methods("POST", "OPTIONS")
	llmRoutes.HandleFunc("/analyze-document", docHandler.Analyze).Methods("POST", "OPTIONS")
	llmRoutes.HandleFunc("/start-document-chat", docHandler.StartChat).Methods("POST", "OPTIONS")
	llmRoutes.HandleFunc("/continue-document-chat", docHandler.ContinueChat).Methods("POST", "OPTIONS")
	llmRoutes.HandleFunc("/stream-document-chat", docHandler.StreamChat).Methods("POST", "OPTIONS")
	llmRoutes.HandleFunc("/upload-document", docHandler.Upload).Methods("POST", "OPTIONS")

	// Authenticated routes
	userRoutes := api.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/evaluations/comparison", evalHandler.SaveComparison).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/evaluations/test", evalHandler.SaveTestRating).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/evaluations/scale-validation", evalHandler.SaveScaleValidation).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/evaluations/quiz", evalHandler.SaveQuiz).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/progress/{userId}", progressHandler.Get).Methods("GET", "OPTIONS")

	// WebSocket route (token in query param)
	r.HandleFunc("/v1/ws/progress", wsHandler.ProgressWS).Methods("GET")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
