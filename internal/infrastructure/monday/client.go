package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"printflow-core-monday-layer/internal/ports"

	"github.com/rs/zerolog"
)

const (
	// DefaultAPIURL is the Monday.com GraphQL endpoint.
	DefaultAPIURL = "https://api.monday.com/v2"

	apiVersion = "2024-10"
)

type client struct {
	apiURL     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a Monday API client adapter.
func NewClient(logger zerolog.Logger) ports.MondayClient {
	return NewClientWithOptions(DefaultAPIURL, &http.Client{Timeout: 30 * time.Second}, logger)
}

// NewClientWithOptions creates a client against a custom endpoint, used by
// tests to point at a local server.
func NewClientWithOptions(apiURL string, httpClient *http.Client, logger zerolog.Logger) ports.MondayClient {
	return &client{
		apiURL:     apiURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors,omitempty"`
}

// query executes one GraphQL request and returns the raw data payload.
// Monday reports failures both as non-200 statuses and as an errors array in a
// 200 body, so both paths are checked.
func (c *client) query(ctx context.Context, token, query string, variables map[string]interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("API-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach monday api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("monday api returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("monday api error: %s", result.Errors[0].Message)
	}

	return result.Data, nil
}

func (c *client) CreateItem(ctx context.Context, token, boardID, itemName string, columnValues map[string]interface{}) (string, error) {
	columnJSON, err := json.Marshal(columnValues)
	if err != nil {
		return "", fmt.Errorf("failed to encode column values: %w", err)
	}

	mutation := `
		mutation CreateItem($boardId: ID!, $itemName: String!, $columnValues: JSON!) {
			create_item(board_id: $boardId, item_name: $itemName, column_values: $columnValues) {
				id
				name
			}
		}`

	data, err := c.query(ctx, token, mutation, map[string]interface{}{
		"boardId":      boardID,
		"itemName":     itemName,
		"columnValues": string(columnJSON),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create item: %w", err)
	}

	var result struct {
		CreateItem struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"create_item"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("failed to decode create_item response: %w", err)
	}
	if result.CreateItem.ID == "" {
		return "", fmt.Errorf("monday did not return an item id")
	}

	c.logger.Info().
		Str("boardId", boardID).
		Str("itemId", result.CreateItem.ID).
		Str("itemName", itemName).
		Msg("Created Monday item")

	return result.CreateItem.ID, nil
}

func (c *client) UpdateItemStatus(ctx context.Context, token, boardID, itemID, statusLabel string) error {
	columnJSON, err := json.Marshal(map[string]string{"status": statusLabel})
	if err != nil {
		return fmt.Errorf("failed to encode column values: %w", err)
	}

	mutation := `
		mutation UpdateStatus($itemId: ID!, $boardId: ID!, $columnValues: JSON!) {
			change_multiple_column_values(item_id: $itemId, board_id: $boardId, column_values: $columnValues) {
				id
			}
		}`

	_, err = c.query(ctx, token, mutation, map[string]interface{}{
		"itemId":       itemID,
		"boardId":      boardID,
		"columnValues": string(columnJSON),
	})
	if err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}

	c.logger.Info().
		Str("itemId", itemID).
		Str("boardId", boardID).
		Str("label", statusLabel).
		Msg("Updated Monday item status")

	return nil
}

func (c *client) AddNote(ctx context.Context, token, itemID, body string) error {
	mutation := `
		mutation AddNote($itemId: ID!, $text: String!) {
			create_update(item_id: $itemId, body: $text) {
				id
			}
		}`

	_, err := c.query(ctx, token, mutation, map[string]interface{}{
		"itemId": itemID,
		"text":   body,
	})
	if err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}
	return nil
}

func (c *client) TestConnection(ctx context.Context, token, boardID string) (*ports.MondayAccount, *ports.MondayBoard, error) {
	query := `
		query Probe($boardIds: [ID!]) {
			me {
				name
				email
			}
			boards(ids: $boardIds) {
				id
				name
			}
		}`

	variables := map[string]interface{}{}
	if boardID != "" {
		variables["boardIds"] = []string{boardID}
	}

	data, err := c.query(ctx, token, query, variables)
	if err != nil {
		return nil, nil, fmt.Errorf("connection test failed: %w", err)
	}

	var result struct {
		Me     ports.MondayAccount `json:"me"`
		Boards []ports.MondayBoard `json:"boards"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, nil, fmt.Errorf("failed to decode probe response: %w", err)
	}

	var board *ports.MondayBoard
	if len(result.Boards) > 0 {
		board = &result.Boards[0]
	}
	return &result.Me, board, nil
}

func (c *client) GetBoardColumns(ctx context.Context, token, boardID string) ([]ports.MondayColumn, error) {
	query := `
		query BoardColumns($boardIds: [ID!]) {
			boards(ids: $boardIds) {
				columns {
					id
					title
					type
				}
			}
		}`

	data, err := c.query(ctx, token, query, map[string]interface{}{
		"boardIds": []string{boardID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get board columns: %w", err)
	}

	var result struct {
		Boards []struct {
			Columns []ports.MondayColumn `json:"columns"`
		} `json:"boards"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode board columns: %w", err)
	}
	if len(result.Boards) == 0 {
		return nil, nil
	}
	return result.Boards[0].Columns, nil
}
