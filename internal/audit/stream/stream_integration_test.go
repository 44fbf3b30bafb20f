//go:build integration

package stream_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"insighthub/internal/audit/models"
	"insighthub/internal/audit/stream"
	"insighthub/pkg/testutil/containers"
)

func TestMirrorRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	broker := containers.GetManager().GetRedpanda(t)
	const topic = "insighthub.audit.test"

	client, err := stream.NewClient(broker.Brokers, topic)
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, stream.EnsureTopic(ctx, client, topic, 1, 1))
	require.NoError(t, stream.EnsureTopic(ctx, client, topic, 1, 1), "existing topic is not an error")

	w := stream.NewWorker(client)
	runCtx, stop := context.WithCancel(ctx)
	go func() { _ = w.Run(runCtx) }()
	defer stop()

	rec, err := models.NewExecutionAttempt("High Risk", "ana", "Agency", "review", models.StatusSuccess, time.Now())
	require.NoError(t, err)
	w.Enqueue(rec)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	var keys []string
	for len(keys) == 0 && ctx.Err() == nil {
		fetches := consumer.PollFetches(ctx)
		fetches.EachRecord(func(r *kgo.Record) {
			keys = append(keys, string(r.Key))
		})
	}
	require.Contains(t, keys, rec.AuditID.String())
}
