// Package chatapi implements the outbound chat-platform client.
//
// The client speaks the platform's bot HTTP API (sendMessage, editMessageText,
// deleteMessage) and satisfies the renderer contract the conversational
// services draw on. Platform error payloads are translated into the error
// types the services understand: a group that was upgraded and renumbered
// surfaces as a migration error carrying the new group id, everything else as
// a render failure wrapping the platform description.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fieldwerk/go-report-backend/internal/conv"
)

// DefaultTimeout bounds one outbound API call.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error payload is read.
const maxErrorBody = 64 << 10

// Client posts, edits and deletes chat messages via the bot HTTP API.
//
// BaseURL is the API root including the bot token, e.g.
// "https://api.example.org/bot<token>". The zero Client is not usable; use New.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New constructs a Client with the default timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: DefaultTimeout},
	}
}

// control is the wire shape of one inline button.
type control struct {
	Text string `json:"text"`
	Data string `json:"callback_data"`
}

// apiResponse is the platform's standard envelope.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Parameters  *struct {
		MigrateToChatID int64 `json:"migrate_to_chat_id"`
	} `json:"parameters"`
	Result json.RawMessage `json:"result"`
}

// Post sends a new message with the given control grid and returns the
// platform-assigned message id.
func (c *Client) Post(ctx context.Context, groupID int64, text string, controls conv.ControlGrid) (int64, error) {
	payload := map[string]any{
		"chat_id": groupID,
		"text":    text,
	}
	attachControls(payload, controls)

	var result struct {
		MessageID int64 `json:"message_id"`
	}
	if err := c.call(ctx, "post", "sendMessage", payload, &result); err != nil {
		return 0, err
	}
	return result.MessageID, nil
}

// Edit replaces the text and controls of an existing message.
func (c *Client) Edit(ctx context.Context, groupID, messageID int64, text string, controls conv.ControlGrid) error {
	payload := map[string]any{
		"chat_id":    groupID,
		"message_id": messageID,
		"text":       text,
	}
	attachControls(payload, controls)
	return c.call(ctx, "edit", "editMessageText", payload, nil)
}

// Delete removes a message.
func (c *Client) Delete(ctx context.Context, groupID, messageID int64) error {
	return c.call(ctx, "delete", "deleteMessage", map[string]any{
		"chat_id":    groupID,
		"message_id": messageID,
	}, nil)
}

// attachControls adds the inline keyboard markup when the grid is non-empty.
func attachControls(payload map[string]any, controls conv.ControlGrid) {
	if len(controls) == 0 {
		return
	}
	rows := make([][]control, 0, len(controls))
	for _, row := range controls {
		wire := make([]control, 0, len(row))
		for _, ctl := range row {
			wire = append(wire, control{Text: ctl.Label, Data: ctl.Action})
		}
		rows = append(rows, wire)
	}
	payload["reply_markup"] = map[string]any{"inline_keyboard": rows}
}

// call executes one API method and decodes the result when out is non-nil.
// Failures carry op ("post", "edit", "delete") so callers can log the verb
// rather than the wire method.
func (c *Client) call(ctx context.Context, op, method string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &conv.RenderError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return &conv.RenderError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return &conv.RenderError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &conv.RenderError{Op: op, Err: err}
	}

	var env apiResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return &conv.RenderError{Op: op, Err: fmt.Errorf("status %d: %w", resp.StatusCode, err)}
	}
	if !env.OK {
		if env.Parameters != nil && env.Parameters.MigrateToChatID != 0 {
			return &conv.GroupMigratedError{NewGroupID: env.Parameters.MigrateToChatID}
		}
		return &conv.RenderError{Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, env.Description)}
	}
	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return &conv.RenderError{Op: op, Err: err}
		}
	}
	return nil
}
