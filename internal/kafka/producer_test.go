package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"rain-check/internal/models"

	"github.com/twmb/franz-go/pkg/kfake"
	"github.com/twmb/franz-go/pkg/kgo"
)

const testTopic = "rain-estimations"

func newCluster(t *testing.T) *kfake.Cluster {
	t.Helper()
	c, err := kfake.NewCluster(kfake.NumBrokers(1), kfake.SeedTopics(1, testTopic))
	if err != nil {
		t.Fatalf("kfake cluster: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNewProducer_DoesNotDial(t *testing.T) {
	p, err := NewProducer([]string{"127.0.0.1:1"}, testTopic)
	if err != nil {
		t.Fatalf("NewProducer: %v", err)
	}
	defer p.Close()

	if p.topic != testTopic {
		t.Errorf("topic = %q", p.topic)
	}
}

func TestProducer_Publish(t *testing.T) {
	cluster := newCluster(t)

	p, err := NewProducer(cluster.ListenAddrs(), testTopic)
	if err != nil {
		t.Fatalf("NewProducer: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ev := models.EstimationEvent{
		ID:         "evt-1",
		Coordinate: models.Coordinate{Latitude: 44.34, Longitude: 10.99},
		Outcome:    models.OutcomeSucceeded,
		Reply:      "70%",
		LastReply:  "70%",
	}
	if err := p.Publish(ctx, ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(cluster.ListenAddrs()...),
		kgo.ConsumeTopics(testTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		t.Fatalf("consumer: %v", err)
	}
	defer consumer.Close()

	var records []*kgo.Record
	for len(records) == 0 {
		fetches := consumer.PollFetches(ctx)
		if err := ctx.Err(); err != nil {
			t.Fatalf("no record consumed: %v", err)
		}
		records = append(records, fetches.Records()...)
	}

	r := records[0]
	if string(r.Key) != "evt-1" {
		t.Errorf("key = %q, want evt-1", r.Key)
	}
	var got models.EstimationEvent
	if err := json.Unmarshal(r.Value, &got); err != nil {
		t.Fatalf("decode value: %v", err)
	}
	if got.ID != "evt-1" || got.Outcome != models.OutcomeSucceeded || got.Reply != "70%" {
		t.Errorf("event = %+v", got)
	}
	if got.Coordinate.Latitude != 44.34 {
		t.Errorf("coordinate = %+v", got.Coordinate)
	}
}

func TestProducer_PublishAfterClose(t *testing.T) {
	cluster := newCluster(t)

	p, err := NewProducer(cluster.ListenAddrs(), testTopic)
	if err != nil {
		t.Fatalf("NewProducer: %v", err)
	}
	p.Close()

	if err := p.Publish(context.Background(), models.EstimationEvent{ID: "late"}); err == nil {
		t.Fatal("expected error publishing on a closed client")
	}
}
