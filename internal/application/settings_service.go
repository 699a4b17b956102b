package application

import (
	"context"
	"fmt"
	"time"

	"printflow-core-monday-layer/internal/domain"
	"printflow-core-monday-layer/internal/ports"

	"github.com/rs/zerolog"
)

// SettingsService handles the Monday integration configuration: the admin
// save path and the pre-save connectivity test.
type SettingsService struct {
	settingsRepo ports.SettingsRepository
	sync         *MondaySyncService
	logger       zerolog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(settingsRepo ports.SettingsRepository, sync *MondaySyncService, logger zerolog.Logger) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
		sync:         sync,
		logger:       logger,
	}
}

// Get returns the current integration settings.
func (s *SettingsService) Get(ctx context.Context) (*domain.MondaySettings, error) {
	return s.settingsRepo.Get(ctx)
}

// SaveSettingsInput carries the admin settings form.
type SaveSettingsInput struct {
	Enabled             bool   `json:"enabled"`
	APIToken            string `json:"api_token"`
	DesignBoardID       string `json:"design_board_id"`
	ProductionBoardID   string `json:"production_board_id"`
	AutoSync            bool   `json:"auto_sync"`
	MondayWebhookSecret string `json:"monday_webhook_secret,omitempty"`
}

// Save persists the integration settings, stamping the audit fields.
// Concurrent saves are last-write-wins.
func (s *SettingsService) Save(ctx context.Context, input SaveSettingsInput, userID string) (*domain.MondaySettings, error) {
	if input.Enabled && input.APIToken == "" {
		return nil, fmt.Errorf("api token is required when the integration is enabled")
	}

	current, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	settings := &domain.MondaySettings{
		Enabled:             input.Enabled,
		APIToken:            input.APIToken,
		DesignBoardID:       input.DesignBoardID,
		ProductionBoardID:   input.ProductionBoardID,
		AutoSync:            input.AutoSync,
		MondayWebhookSecret: input.MondayWebhookSecret,
		LastSync:            current.LastSync,
		UpdatedBy:           userID,
		UpdatedAt:           now,
	}

	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		return nil, err
	}

	s.logger.Info().
		Bool("enabled", settings.Enabled).
		Str("designBoardId", settings.DesignBoardID).
		Str("productionBoardId", settings.ProductionBoardID).
		Str("updatedBy", userID).
		Msg("Monday settings saved")

	return settings, nil
}

// TestConnection probes the Monday API with the supplied token before the
// admin commits it.
func (s *SettingsService) TestConnection(ctx context.Context, token, boardID string) (*ports.MondayAccount, *ports.MondayBoard, error) {
	if token == "" {
		return nil, nil, fmt.Errorf("api token is required")
	}
	return s.sync.TestConnection(ctx, token, boardID)
}

// BoardColumns lists the columns of a board using the saved token.
func (s *SettingsService) BoardColumns(ctx context.Context, boardID string) ([]ports.MondayColumn, error) {
	if boardID == "" {
		return nil, fmt.Errorf("board id is required")
	}
	return s.sync.BoardColumns(ctx, boardID)
}
