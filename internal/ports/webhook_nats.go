// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package ports

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/tkprocat/WreckfestController/internal/ctlerrors"
)

// NATSWebhook publishes activation notices to a subject instead of an HTTP
// endpoint - a secondary fire-and-forget transport alongside HTTPWebhook,
// for deployments that already run a NATS bus for other event fan-out.
type NATSWebhook struct {
	conn    *nats.Conn
	subject string
}

// NewNATSWebhook creates a NATSWebhook publishing on subject over conn.
func NewNATSWebhook(conn *nats.Conn, subject string) *NATSWebhook {
	return &NATSWebhook{conn: conn, subject: subject}
}

func (n *NATSWebhook) NotifyActivation(ctx context.Context, notice ActivationNotice) error {
	body, err := json.Marshal(activationPayload{EventID: notice.EventID, EventName: notice.EventName, Timestamp: notice.Timestamp})
	if err != nil {
		return ctlerrors.Wrap(ctlerrors.Fatal, "marshal activation notice", err)
	}
	if err := n.conn.Publish(n.subject, body); err != nil {
		return ctlerrors.Wrap(ctlerrors.Transient, "publish activation notice", err)
	}
	return nil
}
