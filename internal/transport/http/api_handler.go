package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/golang/glog"
	"github.com/gorilla/mux"

	"quizflow/internal/app"
	"quizflow/internal/auth"
	"quizflow/internal/domain"
)

// APIHandler serves the authoring and results REST endpoints.
type APIHandler struct {
	quizzes *app.QuizService
}

func NewAPIHandler(quizzes *app.QuizService) *APIHandler {
	return &APIHandler{quizzes: quizzes}
}

// HTTPMessage is the body of every non-2xx response.
type HTTPMessage struct {
	Status  string `json:"status"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type createQuizRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	DurationMinutes int             `json:"durationMinutes"`
	QuestionType    domain.QuizKind `json:"questionType"`
}

type createQuestionRequest struct {
	Type    domain.QuestionType `json:"type"`
	Content string              `json:"content"`
	Points  *int                `json:"points"`
	OrderNo int                 `json:"orderNo"`
	Options []struct {
		Content   string `json:"content"`
		IsCorrect bool   `json:"isCorrect"`
	} `json:"options"`
}

func (h *APIHandler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "badrequest", "invalid json body")
		return
	}
	quiz, err := h.quizzes.CreateQuiz(r.Context(), auth.FromContext(r.Context()), app.QuizInput{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		QuestionType:    req.QuestionType,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	glog.Infof("quiz %s created by %s", quiz.ID, quiz.OwnerID)
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *APIHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizzes.ListQuizzes(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *APIHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizzes.GetQuiz(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *APIHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	items, err := h.quizzes.ListQuestions(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *APIHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "badrequest", "invalid json body")
		return
	}
	in := app.QuestionInput{
		Type:    req.Type,
		Content: req.Content,
		Points:  1,
		OrderNo: req.OrderNo,
	}
	if req.Points != nil {
		in.Points = *req.Points
	}
	for _, opt := range req.Options {
		in.Options = append(in.Options, app.OptionInput{Content: opt.Content, IsCorrect: opt.IsCorrect})
	}
	item, err := h.quizzes.AddQuestion(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *APIHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.quizzes.DeleteQuestion(r.Context(), auth.FromContext(r.Context()), vars["id"], vars["questionId"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.quizzes.ListAttempts(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (h *APIHandler) ListResponses(w http.ResponseWriter, r *http.Request) {
	rows, err := h.quizzes.ListResponses(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newResponseViews(rows))
}

func (h *APIHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.quizzes.ListSubmissions(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		glog.Errorf("encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, HTTPMessage{Status: strconv.Itoa(status), Type: kind, Message: message})
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeMessage(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrAttemptNotFound):
		writeMessage(w, http.StatusNotFound, "notfound", err.Error())
	case errors.Is(err, domain.ErrInvalidQuiz),
		errors.Is(err, domain.ErrInvalidQuestion),
		errors.Is(err, domain.ErrMissingQuizID):
		writeMessage(w, http.StatusBadRequest, "badrequest", err.Error())
	default:
		glog.Errorf("api: %v", err)
		writeMessage(w, http.StatusInternalServerError, "error", "internal error")
	}
}
