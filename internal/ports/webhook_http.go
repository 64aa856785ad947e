// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package ports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tkprocat/WreckfestController/internal/ctlerrors"
)

// HTTPWebhook posts activation notices to a configured URL as JSON
// (§6 "Outbound webhook").
type HTTPWebhook struct {
	url    string
	client *http.Client
}

// NewHTTPWebhook creates an HTTPWebhook posting to url.
func NewHTTPWebhook(url string) *HTTPWebhook {
	return &HTTPWebhook{url: url, client: &http.Client{Timeout: 5 * time.Second}}
}

type activationPayload struct {
	EventID   int       `json:"eventId"`
	EventName string    `json:"eventName"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *HTTPWebhook) NotifyActivation(ctx context.Context, notice ActivationNotice) error {
	if h.url == "" {
		return nil
	}
	body, err := json.Marshal(activationPayload{EventID: notice.EventID, EventName: notice.EventName, Timestamp: notice.Timestamp})
	if err != nil {
		return ctlerrors.Wrap(ctlerrors.Fatal, "marshal activation notice", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return ctlerrors.Wrap(ctlerrors.Transient, "build webhook request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return ctlerrors.Wrap(ctlerrors.Transient, "send webhook request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return ctlerrors.New(ctlerrors.Transient, fmt.Sprintf("webhook sink returned status %d", resp.StatusCode))
	}
	return nil
}
