// Package stream mirrors persisted audit records to a compliance topic. The
// ledger table stays the source of truth; the mirror is best-effort and a
// failed publish never fails the execution that produced the record.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"insighthub/internal/audit/models"
)

const (
	defaultQueueSize      = 1024
	defaultPublishTimeout = 10 * time.Second
)

// Producer is the subset of *kgo.Client the worker needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// NewClient builds a franz-go client that produces to topic by default.
func NewClient(brokers []string, topic string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// EnsureTopic creates topic if it does not exist yet.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replication int16) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// message is the wire shape on the compliance topic.
type message struct {
	AuditID      string `json:"audit_id"`
	PlaybookName string `json:"playbook_name"`
	ExecutedBy   string `json:"executed_by"`
	Organization string `json:"organization"`
	Purpose      string `json:"purpose"`
	Timestamp    string `json:"execution_timestamp"`
	Status       string `json:"status"`
}

// Encode turns a record into a Kafka record keyed by audit id.
func Encode(rec *models.ExecutionAttempt) (*kgo.Record, error) {
	payload, err := json.Marshal(message{
		AuditID:      rec.AuditID.String(),
		PlaybookName: rec.PlaybookName,
		ExecutedBy:   rec.ExecutedBy,
		Organization: rec.Organization,
		Purpose:      rec.Purpose,
		Timestamp:    rec.Timestamp.Format(time.RFC3339Nano),
		Status:       string(rec.Status),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal audit record: %w", err)
	}
	return &kgo.Record{
		Key:       []byte(rec.AuditID.String()),
		Value:     payload,
		Timestamp: rec.Timestamp,
		Headers:   []kgo.RecordHeader{{Key: "status", Value: []byte(rec.Status)}},
	}, nil
}
