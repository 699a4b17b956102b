package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"printflow-core-monday-layer/internal/application"
)

// SettingsHandler exposes the Monday integration configuration. The stored
// API token is never echoed back in full.
type SettingsHandler struct {
	settings *application.SettingsService
	logger   zerolog.Logger
}

func NewSettingsHandler(settings *application.SettingsService, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

func (h *SettingsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/monday", h.Get)
	r.Put("/monday", h.Save)
	r.Post("/monday/test", h.TestConnection)
	r.Get("/monday/columns", h.BoardColumns)
	return r
}

// settingsView is the outward shape of the configuration, with the token
// reduced to a set/unset flag.
type settingsView struct {
	Enabled           bool   `json:"enabled"`
	TokenConfigured   bool   `json:"token_configured"`
	DesignBoardID     string `json:"design_board_id,omitempty"`
	ProductionBoardID string `json:"production_board_id,omitempty"`
	AutoSync          bool   `json:"auto_sync"`
	WebhookSecretSet  bool   `json:"webhook_secret_set"`
	LastSync          string `json:"last_sync,omitempty"`
	UpdatedBy         string `json:"updated_by,omitempty"`
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	view := settingsView{
		Enabled:           settings.Enabled,
		TokenConfigured:   settings.APIToken != "",
		DesignBoardID:     settings.DesignBoardID,
		ProductionBoardID: settings.ProductionBoardID,
		AutoSync:          settings.AutoSync,
		WebhookSecretSet:  settings.MondayWebhookSecret != "",
		UpdatedBy:         settings.UpdatedBy,
	}
	if settings.LastSync != nil {
		view.LastSync = settings.LastSync.Format("2006-01-02T15:04:05Z07:00")
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	var input application.SaveSettingsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if _, err := h.settings.Save(r.Context(), input, actingUser(r)); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// BoardColumns lists a board's columns for the column-mapping screen, using
// the saved token.
func (h *SettingsHandler) BoardColumns(w http.ResponseWriter, r *http.Request) {
	boardID := r.URL.Query().Get("boardId")
	if boardID == "" {
		respondError(w, http.StatusBadRequest, "boardId parameter is required")
		return
	}

	columns, err := h.settings.BoardColumns(r.Context(), boardID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, columns)
}

type testConnectionRequest struct {
	APIToken string `json:"api_token"`
	BoardID  string `json:"board_id,omitempty"`
}

// TestConnection verifies a token against the Monday API without persisting
// anything, optionally checking board access too.
func (h *SettingsHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	var req testConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	account, board, err := h.settings.TestConnection(r.Context(), req.APIToken, req.BoardID)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	result := map[string]interface{}{
		"success": true,
		"account": account,
	}
	if board != nil {
		result["board"] = board
	}
	respondJSON(w, http.StatusOK, result)
}
