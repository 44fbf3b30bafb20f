// Package detector triggers the external anomaly detector. The detector
// writes alert rows on its own; callers only learn whether the run was
// accepted.
package detector

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// Receipt acknowledges a detection run.
type Receipt struct {
	Status        string    `json:"status"`
	RunID         string    `json:"run_id,omitempty"`
	AlertsEmitted *int      `json:"alerts_emitted,omitempty"`
	Message       string    `json:"message,omitempty"`
	RequestedAt   time.Time `json:"requested_at"`
}

const (
	StatusAccepted  = "accepted"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
)

// receiptSchema only checks shape. The content of a run is the detector's business.
const receiptSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["status"],
	"properties": {
		"status": {"type": "string", "enum": ["accepted", "completed", "rejected"]},
		"run_id": {"type": "string"},
		"alerts_emitted": {"type": "integer", "minimum": 0},
		"message": {"type": "string"}
	}
}`

var compiledReceiptSchema = mustCompile(receiptSchema)

func mustCompile(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("compile receipt schema: %v", err))
	}
	return s
}

// ParseReceipt validates a raw detector reply against the receipt schema.
func ParseReceipt(data []byte, requestedAt time.Time) (*Receipt, error) {
	result, err := compiledReceiptSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("detector reply is not valid json: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("detector reply failed schema validation: %s", strings.Join(msgs, "; "))
	}

	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode detector reply: %w", err)
	}
	r.RequestedAt = requestedAt
	return &r, nil
}
