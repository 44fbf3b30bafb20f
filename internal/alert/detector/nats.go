package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Requester is the request/reply subset of *nats.Conn.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// NATSDetector asks a detector service to run over NATS request/reply.
type NATSDetector struct {
	conn    Requester
	subject string
	timeout time.Duration
}

func NewNATSDetector(conn Requester, subject string, timeout time.Duration) *NATSDetector {
	return &NATSDetector{conn: conn, subject: subject, timeout: timeout}
}

type detectRequest struct {
	RequestID   string    `json:"request_id"`
	RequestedAt time.Time `json:"requested_at"`
}

func (d *NATSDetector) RunDetection(ctx context.Context) (*Receipt, error) {
	requestedAt := time.Now().UTC()
	payload, err := json.Marshal(detectRequest{RequestID: uuid.NewString(), RequestedAt: requestedAt})
	if err != nil {
		return nil, fmt.Errorf("marshal detection request: %w", err)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	msg, err := d.conn.RequestWithContext(ctx, d.subject, payload)
	if err != nil {
		return nil, fmt.Errorf("request detection on %s: %w", d.subject, err)
	}

	receipt, err := ParseReceipt(msg.Data, requestedAt)
	if err != nil {
		return nil, err
	}
	if receipt.Status == StatusRejected {
		return nil, fmt.Errorf("detector rejected run: %s", receipt.Message)
	}
	return receipt, nil
}
