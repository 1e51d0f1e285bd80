package main

import (
	"context"
	"errors"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/oneclickretail/oneclick-backend/pkg/config"
	"github.com/oneclickretail/oneclick-backend/pkg/db/models"
	"github.com/oneclickretail/oneclick-backend/pkg/enums"
	"github.com/oneclickretail/oneclick-backend/pkg/logger"
)

type fakeSource struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	fetchErr  error
}

func (f *fakeSource) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if limit > len(f.events) {
		limit = len(f.events)
	}
	return f.events[:limit], nil
}

func (f *fakeSource) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeSource) MarkFailed(id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakePublisher struct {
	results []publishResult
	calls   int
}

func (f *fakePublisher) Publish(_ context.Context, _ *gcppubsub.Message) publishResult {
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		return fakePublishResult{}
	}
	return f.results[idx]
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "msg-id", nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func newTestService(t *testing.T, source *fakeSource, pub *fakePublisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:    &config.Config{},
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		DB:        okPinger{},
		PubSub:    okPinger{},
		Source:    source,
		Publisher: pub,
	})
	if err != nil {
		t.Fatalf("creating service: %v", err)
	}
	return svc
}

func outboxRow() models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
	}
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	source := &fakeSource{events: []models.OutboxEvent{outboxRow(), outboxRow()}}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			fakePublishResult{},
		},
	}
	svc := newTestService(t, source, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(source.failed) != 1 || source.failed[0] != source.events[0].ID {
		t.Fatalf("unexpected failed rows: %v", source.failed)
	}
	if len(source.published) != 1 || source.published[0] != source.events[1].ID {
		t.Fatalf("unexpected published rows: %v", source.published)
	}
}

func TestProcessBatchEmptyQueue(t *testing.T) {
	source := &fakeSource{}
	svc := newTestService(t, source, &fakePublisher{})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if processed {
		t.Fatalf("expected idle batch")
	}
	if len(source.published) != 0 || len(source.failed) != 0 {
		t.Fatalf("no rows should have been touched")
	}
}

func TestProcessBatchSurfacesFetchError(t *testing.T) {
	source := &fakeSource{fetchErr: errors.New("db down")}
	svc := newTestService(t, source, &fakePublisher{})

	if _, err := svc.processBatch(context.Background()); err == nil {
		t.Fatalf("expected fetch error")
	}
}

func TestNewServiceAppliesDefaults(t *testing.T) {
	svc := newTestService(t, &fakeSource{}, &fakePublisher{})
	if svc.batchSize != defaultBatchSize {
		t.Fatalf("unexpected batch size: %d", svc.batchSize)
	}
	if svc.maxAttempts != defaultMaxAttempts {
		t.Fatalf("unexpected max attempts: %d", svc.maxAttempts)
	}
	if svc.pollInterval.Milliseconds() != defaultPollMs {
		t.Fatalf("unexpected poll interval: %s", svc.pollInterval)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	svc := newTestService(t, &fakeSource{}, &fakePublisher{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
