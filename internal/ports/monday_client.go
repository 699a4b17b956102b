package ports

import "context"

// MondayAccount is the authenticated user returned by a connectivity probe.
type MondayAccount struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MondayBoard is a board summary.
type MondayBoard struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MondayColumn describes one column of a board.
type MondayColumn struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// MondayClient defines the interface for Monday.com API operations. Every call
// is authenticated with the bearer token passed in, so the client itself holds
// no credentials and the current settings document stays the single source of
// truth for the token.
type MondayClient interface {
	// CreateItem creates a board item and returns its ID.
	CreateItem(ctx context.Context, token, boardID, itemName string, columnValues map[string]interface{}) (string, error)

	// UpdateItemStatus sets the status column label on an existing item.
	// Repeating the same update is safe: the remote write is last-write-wins.
	UpdateItemStatus(ctx context.Context, token, boardID, itemID, statusLabel string) error

	// AddNote attaches an update (comment) to an item.
	AddNote(ctx context.Context, token, itemID, body string) error

	// TestConnection probes the API with the given token and board.
	TestConnection(ctx context.Context, token, boardID string) (*MondayAccount, *MondayBoard, error)

	// GetBoardColumns lists a board's columns for column-mapping setup.
	GetBoardColumns(ctx context.Context, token, boardID string) ([]MondayColumn, error)
}
