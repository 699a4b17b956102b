package domain

import "time"

// MondaySettings is the single integration configuration document. It is
// mutated only through the admin settings save path and read per-request by
// both sync directions.
type MondaySettings struct {
	Enabled             bool       `json:"enabled" bson:"enabled"`
	APIToken            string     `json:"api_token" bson:"apiToken"`
	DesignBoardID       string     `json:"design_board_id" bson:"designBoardId"`
	ProductionBoardID   string     `json:"production_board_id" bson:"productionBoardId"`
	AutoSync            bool       `json:"auto_sync" bson:"autoSync"`
	MondayWebhookSecret string     `json:"monday_webhook_secret,omitempty" bson:"mondayWebhookSecret,omitempty"`
	LastSync            *time.Time `json:"last_sync,omitempty" bson:"lastSync,omitempty"`
	UpdatedBy           string     `json:"updated_by,omitempty" bson:"updatedBy,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at" bson:"updatedAt"`
}

// User is a system account. Designers may carry a personal Monday board that
// takes precedence over the default design board for item creation.
type User struct {
	ID            string `json:"id,omitempty" bson:"_id,omitempty"`
	Name          string `json:"name" bson:"name"`
	Email         string `json:"email" bson:"email"`
	Role          Role   `json:"role" bson:"role"`
	MondayBoardID string `json:"monday_board_id,omitempty" bson:"mondayBoardId,omitempty"`
}
