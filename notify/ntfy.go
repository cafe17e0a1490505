package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"favicongen/config"
)

// NtfySender sends push notifications via ntfy.sh
type NtfySender struct {
	cfg    *config.Config
	client *resty.Client
}

// NtfyMessage represents a ntfy notification
type NtfyMessage struct {
	Title    string
	Message  string
	Tags     []string
	Priority int
	Actions  []NtfyAction
}

// NtfyAction represents a clickable action button
type NtfyAction struct {
	Action string `json:"action"` // "view" or "http"
	Label  string `json:"label"`
	URL    string `json:"url"`
}

// NewNtfySender creates a new ntfy sender
func NewNtfySender(cfg *config.Config) *NtfySender {
	return &NtfySender{cfg: cfg, client: resty.New()}
}

// BuildCompleted reports a finished regeneration.
func (n *NtfySender) BuildCompleted(written int, paths []string) error {
	return n.send(NtfyMessage{
		Title:    fmt.Sprintf("🖼️ Favicons regenerated (%d files)", written),
		Message:  strings.Join(paths, "\n"),
		Priority: 3,
		Tags:     []string{"white_check_mark"},
		Actions: []NtfyAction{
			{Action: "view", Label: "Source image", URL: n.cfg.Source.URL},
		},
	})
}

// BuildFailed reports an aborted regeneration.
func (n *NtfySender) BuildFailed(err error) error {
	return n.send(NtfyMessage{
		Title:    "⚠️ Favicon regeneration failed",
		Message:  err.Error(),
		Priority: 4, // High priority
		Tags:     []string{"warning"},
	})
}

// send sends a ntfy notification using headers (not JSON body)
func (n *NtfySender) send(msg NtfyMessage) error {
	if !n.cfg.Ntfy.Enabled {
		return nil
	}

	url := fmt.Sprintf("%s/%s", strings.TrimRight(n.cfg.Ntfy.Server, "/"), n.cfg.Ntfy.Topic)

	req := n.client.R().
		SetBody(msg.Message).
		SetHeader("Title", msg.Title).
		SetHeader("Priority", fmt.Sprintf("%d", msg.Priority))

	if len(msg.Tags) > 0 {
		req.SetHeader("Tags", strings.Join(msg.Tags, ","))
	}

	// Add action buttons as JSON in header
	if len(msg.Actions) > 0 {
		actionsJSON, err := json.Marshal(msg.Actions)
		if err != nil {
			return fmt.Errorf("failed to encode actions: %w", err)
		}
		req.SetHeader("Actions", string(actionsJSON))
	}

	log.Printf("📤 Sending ntfy notification: %s", msg.Title)

	resp, err := req.Post(url)
	if err != nil {
		return fmt.Errorf("failed to send ntfy notification: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode())
	}

	log.Printf("📱 ntfy notification sent: %s", msg.Title)
	return nil
}
