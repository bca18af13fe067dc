package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/proposalkb/proposalkb/internal/log"
)

// DefaultGraphBaseURL is the Microsoft Graph v1.0 endpoint.
const DefaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

// ErrTeamsNotConfigured is returned when no Graph access token is set.
var ErrTeamsNotConfigured = errors.New("teams access token not configured")

// SentMarker records that a validation request left the building.
type SentMarker interface {
	MarkValidationSent(ctx context.Context, id uuid.UUID, messageID string) error
}

// TeamsSender posts validation cards into one-on-one Teams chats via the
// Graph API.
type TeamsSender struct {
	httpClient    *http.Client
	token         string
	graphBaseURL  string
	portalBaseURL string
	marker        SentMarker
	logger        log.Logger
}

// TeamsOption customizes a TeamsSender.
type TeamsOption func(*TeamsSender)

// WithHTTPClient substitutes the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) TeamsOption {
	return func(s *TeamsSender) { s.httpClient = c }
}

// WithGraphBaseURL points the sender at a different Graph endpoint,
// mainly for tests.
func WithGraphBaseURL(base string) TeamsOption {
	return func(s *TeamsSender) { s.graphBaseURL = base }
}

// NewTeamsSender creates a TeamsSender. An empty token is allowed here so a
// partially configured server can still start; Send fails fast instead.
func NewTeamsSender(token, portalBaseURL string, marker SentMarker, logger log.Logger, opts ...TeamsOption) (*TeamsSender, error) {
	if marker == nil {
		return nil, fmt.Errorf("marker is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	s := &TeamsSender{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		token:         token,
		graphBaseURL:  DefaultGraphBaseURL,
		portalBaseURL: portalBaseURL,
		marker:        marker,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TeamsRequest describes one validation delivery.
type TeamsRequest struct {
	ValidationID       uuid.UUID
	RecipientEmail     string
	ValidationQuestion string
	CurrentInformation map[string]any
	EntityName         string
}

// Send finds or creates the recipient's one-on-one chat, posts the card, and
// marks the validation row sent with the resulting message ID.
func (s *TeamsSender) Send(ctx context.Context, req TeamsRequest, progress ProgressFunc) (string, error) {
	if s.token == "" {
		return "", ErrTeamsNotConfigured
	}
	report := func(p float64, msg string) {
		if progress != nil {
			progress(p, 100, msg)
		}
	}

	report(0, "Creating Adaptive Card")
	card := BuildValidationCard(req.ValidationID.String(), req.ValidationQuestion,
		req.CurrentInformation, req.EntityName, s.portalBaseURL)

	report(50, "Sending to Teams")
	chatID, err := s.findOrCreateChat(ctx, req.RecipientEmail)
	if err != nil {
		return "", err
	}
	messageID, err := s.postCard(ctx, chatID, card)
	if err != nil {
		return "", err
	}

	if err := s.marker.MarkValidationSent(ctx, req.ValidationID, messageID); err != nil {
		return "", err
	}

	report(100, "Validation request sent")
	s.logger.Info("sent teams validation", "validation_id", req.ValidationID,
		"chat_id", chatID, "message_id", messageID)
	return fmt.Sprintf("Validation sent to %s via Teams (Message ID: %s)",
		req.RecipientEmail, messageID), nil
}

func (s *TeamsSender) findOrCreateChat(ctx context.Context, recipientEmail string) (string, error) {
	filter := fmt.Sprintf("members/any(m: m/emailAddress eq '%s')", recipientEmail)
	listURL := fmt.Sprintf("%s/users/me/chats?$filter=%s", s.graphBaseURL, url.QueryEscape(filter))

	var chats struct {
		Value []struct {
			ID string `json:"id"`
		} `json:"value"`
	}
	if err := s.graphCall(ctx, http.MethodGet, listURL, nil, &chats); err != nil {
		return "", fmt.Errorf("listing chats: %w", err)
	}
	if len(chats.Value) > 0 {
		return chats.Value[0].ID, nil
	}

	body := map[string]any{
		"chatType": "oneOnOne",
		"members": []map[string]any{
			{
				"user":  map[string]any{"userPrincipalName": recipientEmail},
				"roles": []string{"owner"},
			},
		},
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := s.graphCall(ctx, http.MethodPost, s.graphBaseURL+"/users/me/chats", body, &created); err != nil {
		return "", fmt.Errorf("creating chat: %w", err)
	}
	return created.ID, nil
}

func (s *TeamsSender) postCard(ctx context.Context, chatID string, card map[string]any) (string, error) {
	cardJSON, err := json.Marshal(card)
	if err != nil {
		return "", fmt.Errorf("marshaling card: %w", err)
	}

	body := map[string]any{
		"body": map[string]any{
			"contentType": "html",
			"content":     `<attachment id="validation_card"></attachment>`,
		},
		"attachments": []map[string]any{
			{
				"id":          "validation_card",
				"contentType": "application/vnd.microsoft.card.adaptive",
				"content":     string(cardJSON),
			},
		},
	}

	var message struct {
		ID string `json:"id"`
	}
	postURL := fmt.Sprintf("%s/chats/%s/messages", s.graphBaseURL, chatID)
	if err := s.graphCall(ctx, http.MethodPost, postURL, body, &message); err != nil {
		return "", fmt.Errorf("posting message: %w", err)
	}
	return message.ID, nil
}

func (s *TeamsSender) graphCall(ctx context.Context, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("graph API %s %s: status %d: %s", method, rawURL, resp.StatusCode, detail)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
