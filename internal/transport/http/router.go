package http

import (
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"quizflow/internal/auth"
)

// NewRouter wires the REST API, the exam websocket and the health probe,
// wrapped in CORS and combined access logging.
func NewRouter(api *APIHandler, ws *WSHandler, verifier *auth.Verifier, accessLog io.Writer) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws/exam", ws.ServeWS).Methods(http.MethodGet)

	a := r.PathPrefix("/api").Subrouter()
	a.Use(verifier.Middleware)
	a.HandleFunc("/quizzes", api.CreateQuiz).Methods(http.MethodPost)
	a.HandleFunc("/quizzes", api.ListQuizzes).Methods(http.MethodGet)
	a.HandleFunc("/quizzes/{id}", api.GetQuiz).Methods(http.MethodGet)
	a.HandleFunc("/quizzes/{id}/questions", api.ListQuestions).Methods(http.MethodGet)
	a.HandleFunc("/quizzes/{id}/questions", api.CreateQuestion).Methods(http.MethodPost)
	a.HandleFunc("/quizzes/{id}/questions/{questionId}", api.DeleteQuestion).Methods(http.MethodDelete)
	a.HandleFunc("/quizzes/{id}/attempts", api.ListAttempts).Methods(http.MethodGet)
	a.HandleFunc("/quizzes/{id}/submissions", api.ListSubmissions).Methods(http.MethodGet)
	a.HandleFunc("/attempts/{id}/responses", api.ListResponses).Methods(http.MethodGet)

	corsHeaders := handlers.AllowedHeaders([]string{"Authorization", "Content-Type"})
	corsOrigins := handlers.AllowedOrigins([]string{"*"})
	corsMethods := handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "HEAD", "OPTIONS"})

	var h http.Handler = handlers.CORS(corsHeaders, corsOrigins, corsMethods)(r)
	if accessLog != nil {
		h = handlers.CombinedLoggingHandler(accessLog, h)
	}
	return h
}
