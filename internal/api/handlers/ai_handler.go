package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/MindMesh/internal/api/middlewares"
	"github.com/markdave123-py/MindMesh/internal/services"
)

type AIHandler struct {
	ai *services.AIService
}

func NewAIHandler(ai *services.AIService) *AIHandler {
	return &AIHandler{ai: ai}
}

type chatRequest struct {
	DocumentID string `json:"document_id"`
	Query      string `json:"query"`
}

type explainRequest struct {
	DocumentID string `json:"document_id"`
	Concept    string `json:"concept"`
}

func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DocumentID == "" || req.Query == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	answer, err := h.ai.Chat(r.Context(), userID, req.DocumentID, req.Query)
	if writeAIError(w, err) {
		return
	}
	writeAnswer(w, answer)
}

func (h *AIHandler) Explain(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req explainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DocumentID == "" || req.Concept == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	answer, err := h.ai.Explain(r.Context(), userID, req.DocumentID, req.Concept)
	if writeAIError(w, err) {
		return
	}
	writeAnswer(w, answer)
}

func (h *AIHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	answer, err := h.ai.Summarize(r.Context(), userID, chi.URLParam(r, "documentID"))
	if writeAIError(w, err) {
		return
	}
	writeAnswer(w, answer)
}

// writeAIError maps service errors onto status codes; returns true when a
// response was written.
func writeAIError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, services.ErrDocumentNotFound):
		http.Error(w, "document not found", http.StatusNotFound)
	case errors.Is(err, services.ErrDocumentNotReady):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "generation failed", http.StatusInternalServerError)
	}
	return true
}

func writeAnswer(w http.ResponseWriter, answer string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"answer": answer})
}
