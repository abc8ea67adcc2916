package routehandlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coreybb/couponbook/datastore"
	"github.com/coreybb/couponbook/lifecycle"
	"github.com/coreybb/couponbook/models"
	"github.com/coreybb/couponbook/webutil"
)

type SuggestionHandler struct {
	Engine *lifecycle.Engine
	Repo   *datastore.SuggestionRepository
}

func NewSuggestionHandler(engine *lifecycle.Engine, repo *datastore.SuggestionRepository) *SuggestionHandler {
	return &SuggestionHandler{Engine: engine, Repo: repo}
}

type createSuggestionRequest struct {
	UserID  string `json:"userId"`
	Content string `json:"content"`
}

func (h *SuggestionHandler) HandleCreateSuggestion(w http.ResponseWriter, r *http.Request) error {
	var req createSuggestionRequest
	if err := decodeBody(r, &req, true); err != nil {
		return err
	}
	if req.UserID == "" || req.Content == "" {
		return webutil.ErrBadRequest("Missing required fields: userId, content")
	}

	suggestion, err := h.Engine.SubmitSuggestion(r.Context(), req.UserID, req.Content)
	if err != nil {
		return err
	}

	webutil.RespondWithMessage(w, http.StatusCreated, "Suggestion created successfully", map[string]any{"suggestion": suggestion})
	return nil
}

func (h *SuggestionHandler) HandleGetSuggestions(w http.ResponseWriter, r *http.Request) error {
	suggestions := h.Repo.GetSuggestions(r.Context())
	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, suggestions)
	return nil
}

func (h *SuggestionHandler) HandleDeleteSuggestion(w http.ResponseWriter, r *http.Request) error {
	if err := h.Repo.DeleteSuggestion(r.Context(), chi.URLParam(r, "id")); err != nil {
		return err
	}
	webutil.RespondWithMessage(w, http.StatusOK, "Suggestion deleted successfully", nil)
	return nil
}
