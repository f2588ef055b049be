package workers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"reelrivals/contexts/battle-arena/battle-engine/adapters/memory"
	"reelrivals/contexts/battle-arena/battle-engine/application/commands"
	"reelrivals/contexts/battle-arena/battle-engine/application/workers"
	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	domainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
	"reelrivals/contexts/battle-arena/battle-engine/ports"
	contractsv1 "reelrivals/contracts/events/v1"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// syncBus delivers events to handlers on the publishing goroutine.
type syncBus struct {
	mu        sync.Mutex
	handlers  map[string][]func(context.Context, ports.EventEnvelope) error
	published []ports.EventEnvelope
}

func newSyncBus() *syncBus {
	return &syncBus{handlers: make(map[string][]func(context.Context, ports.EventEnvelope) error)}
}

func (b *syncBus) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	b.mu.Lock()
	b.published = append(b.published, event)
	handlers := append([]func(context.Context, ports.EventEnvelope) error(nil), b.handlers[topic]...)
	b.mu.Unlock()
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (b *syncBus) Subscribe(_ context.Context, topic string, _ string, handler func(context.Context, ports.EventEnvelope) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, ports.EventEnvelope) error {
	return errors.New("broker unavailable")
}

// recordingPublisher fails the publish call numbered failOn and records the rest.
type recordingPublisher struct {
	failOn int
	calls  int
	topics []string
	ids    []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	p.calls++
	if p.calls == p.failOn {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	p.ids = append(p.ids, event.EventID)
	return nil
}

// flakyVideos fails the first GetVideo call and delegates afterwards.
type flakyVideos struct {
	*memory.Store
	mu    sync.Mutex
	calls int
}

func (f *flakyVideos) GetVideo(ctx context.Context, videoID string) (entities.Video, error) {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	f.mu.Unlock()
	if first {
		return entities.Video{}, context.DeadlineExceeded
	}
	return f.Store.GetVideo(ctx, videoID)
}

func seedVideo(id string, owner string) entities.Video {
	return entities.Video{
		VideoID:    id,
		OwnerID:    owner,
		Title:      "clip " + id,
		Tags:       []string{"comedy"},
		MediaURL:   "memory://media/" + id,
		UploadedAt: now,
		Status:     entities.VideoStatusActive,
	}
}

func matchmaker(store *memory.Store) commands.MatchmakeUseCase {
	return commands.MatchmakeUseCase{Videos: store, Battles: store, Clock: store, IDGen: store, Random: store}
}

func TestUploadEventTriggersMatchmakingThroughRelay(t *testing.T) {
	store := memory.NewStore([]entities.Video{seedVideo("video_x", "user_1")}, nil)
	store.SetNow(now)
	bus := newSyncBus()
	ctx := context.Background()

	consumer := workers.MatchmakingConsumer{Subscriber: bus, Matchmaker: matchmaker(store), Dedup: store, Clock: store}
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("start consumer: %v", err)
	}

	upload := commands.UploadVideoUseCase{Videos: store, Media: memory.NewMediaStore(""), Clock: store, IDGen: store}
	uploaded, err := upload.Execute(ctx, commands.UploadVideoCommand{
		OwnerID:  "user_2",
		Title:    "new clip",
		Tags:     []string{"comedy"},
		FileName: "clip.mp4",
		Body:     bytes.NewReader([]byte("bytes")),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if store.ActiveBattleCount() != 0 {
		t.Fatalf("expected no battle before the relay runs")
	}

	relay := workers.OutboxRelay{Outbox: store, Publisher: bus, Clock: store}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	if store.ActiveBattleCount() != 1 {
		t.Fatalf("expected matchmaking to open a battle, got %d", store.ActiveBattleCount())
	}
	video, err := store.GetVideo(ctx, uploaded.Video.VideoID)
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if video.Status != entities.VideoStatusBattling {
		t.Fatalf("expected uploaded video battling, got %s", video.Status)
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != contractsv1.EventTypeBattleOpened {
		t.Fatalf("expected only the battle.opened row pending, got %+v", pending)
	}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("second relay failed: %v", err)
	}
	pending, err = store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected outbox drained, got %d rows", len(pending))
	}
}

func TestRelayKeepsRowsPendingWhenPublishFails(t *testing.T) {
	store := memory.NewStore(nil, nil)
	store.SetNow(now)
	upload := commands.UploadVideoUseCase{Videos: store, Media: memory.NewMediaStore(""), Clock: store, IDGen: store}
	ctx := context.Background()
	if _, err := upload.Execute(ctx, commands.UploadVideoCommand{
		OwnerID: "user_1",
		Title:   "clip",
		Tags:    []string{"comedy"},
		Body:    bytes.NewReader([]byte("bytes")),
	}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	relay := workers.OutboxRelay{Outbox: store, Publisher: failingPublisher{}, Clock: store}
	if err := relay.RunOnce(ctx); err == nil {
		t.Fatalf("expected relay error")
	}
	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected the row to stay pending, got %d", len(pending))
	}
}

func TestRelayStopsAtFirstFailureAndResumesInOrder(t *testing.T) {
	store := memory.NewStore(nil, nil)
	store.SetNow(now)
	upload := commands.UploadVideoUseCase{Videos: store, Media: memory.NewMediaStore(""), Clock: store, IDGen: store}
	ctx := context.Background()
	for _, title := range []string{"first", "second", "third"} {
		if _, err := upload.Execute(ctx, commands.UploadVideoCommand{
			OwnerID: "user_1",
			Title:   title,
			Tags:    []string{"comedy"},
			Body:    bytes.NewReader([]byte("bytes")),
		}); err != nil {
			t.Fatalf("upload %s failed: %v", title, err)
		}
	}
	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil || len(pending) != 3 {
		t.Fatalf("expected 3 pending rows, got %d (%v)", len(pending), err)
	}

	publisher := &recordingPublisher{failOn: 2}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, Topic: "battle-engine.events"}
	if err := relay.RunOnce(ctx); err == nil {
		t.Fatalf("expected relay error on second row")
	}
	remaining, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(remaining) != 2 || remaining[0].OutboxID != pending[1].OutboxID {
		t.Fatalf("expected rows after the failure to stay pending in order, got %+v", remaining)
	}

	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("second cycle failed: %v", err)
	}
	if len(publisher.ids) != 3 {
		t.Fatalf("expected 3 published events, got %v", publisher.ids)
	}
	for i, message := range pending {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if publisher.ids[i] != envelope.EventID {
			t.Fatalf("expected publish order %d to be %s, got %s", i, envelope.EventID, publisher.ids[i])
		}
		if publisher.topics[i] != "battle-engine.events" {
			t.Fatalf("expected pinned topic, got %s", publisher.topics[i])
		}
	}
}

func TestMatchmakingConsumerSkipsRedeliveredEvent(t *testing.T) {
	store := memory.NewStore([]entities.Video{seedVideo("video_x", "user_1"), seedVideo("video_y", "user_2")}, nil)
	store.SetNow(now)
	ctx := context.Background()
	consumer := workers.MatchmakingConsumer{Matchmaker: matchmaker(store), Dedup: store, Clock: store}

	data, err := json.Marshal(contractsv1.VideoUploadedData{VideoID: "video_y", OwnerID: "user_2", Tags: []string{"comedy"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	event := ports.EventEnvelope{EventID: "evt-1", EventType: contractsv1.EventTypeVideoUploaded, Data: data}

	if err := consumer.Handle(ctx, event); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	battles, err := store.ListActiveBattles(ctx, now)
	if err != nil || len(battles) != 1 {
		t.Fatalf("expected one battle after first delivery, got %d (%v)", len(battles), err)
	}

	concluder := commands.ConcludeBattleUseCase{Battles: store, Clock: store, IDGen: store}
	if _, err := concluder.Execute(ctx, commands.ConcludeBattleCommand{BattleID: battles[0].BattleID}); err != nil {
		t.Fatalf("conclude failed: %v", err)
	}

	if err := consumer.Handle(ctx, event); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if store.ActiveBattleCount() != 0 {
		t.Fatalf("expected redelivered event to be skipped, got %d active battles", store.ActiveBattleCount())
	}

	tampered := event
	tampered.Data = []byte(`{"video_id":"video_x"}`)
	if err := consumer.Handle(ctx, tampered); err == nil {
		t.Fatalf("expected conflict for reused event id with different payload")
	}
}

func TestMatchmakingConsumerRetriesAfterFailedDelivery(t *testing.T) {
	store := memory.NewStore([]entities.Video{seedVideo("video_x", "user_1"), seedVideo("video_y", "user_2")}, nil)
	store.SetNow(now)
	ctx := context.Background()
	videos := &flakyVideos{Store: store}
	consumer := workers.MatchmakingConsumer{
		Matchmaker: commands.MatchmakeUseCase{Videos: videos, Battles: store, Clock: store, IDGen: store, Random: store},
		Dedup:      store,
		Clock:      store,
	}

	data, err := json.Marshal(contractsv1.VideoUploadedData{VideoID: "video_y", OwnerID: "user_2", Tags: []string{"comedy"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	event := ports.EventEnvelope{EventID: "evt-retry", EventType: contractsv1.EventTypeVideoUploaded, Data: data}

	if err := consumer.Handle(ctx, event); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected first delivery to fail with deadline exceeded, got %v", err)
	}
	if store.ActiveBattleCount() != 0 {
		t.Fatalf("expected no battle after failed delivery")
	}

	if err := consumer.Handle(ctx, event); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if videos.calls != 2 {
		t.Fatalf("expected matchmaker to run on redelivery, got %d lookups", videos.calls)
	}
	if store.ActiveBattleCount() != 1 {
		t.Fatalf("expected redelivery to open a battle, got %d", store.ActiveBattleCount())
	}

	duplicate, err := store.ReserveEvent(ctx, "evt-retry", "other-hash", now)
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyConflict) || duplicate {
		t.Fatalf("expected the successful delivery to keep its reservation, got %v %v", duplicate, err)
	}
}

func TestMatchmakingConsumerRejectsBadPayload(t *testing.T) {
	store := memory.NewStore(nil, nil)
	consumer := workers.MatchmakingConsumer{Matchmaker: matchmaker(store), Dedup: store}
	err := consumer.Handle(context.Background(), ports.EventEnvelope{EventID: "evt-bad", Data: []byte(`{}`)})
	if err == nil {
		t.Fatalf("expected missing video_id error")
	}
}

func TestBattleSweeperConcludesExpiredBattles(t *testing.T) {
	store := memory.NewStore([]entities.Video{
		seedVideo("video_a", "user_1"),
		seedVideo("video_b", "user_2"),
		seedVideo("video_c", "user_3"),
		seedVideo("video_d", "user_4"),
	}, nil)
	store.SetNow(now)
	expired, err := entities.NewBattle("battle_expired", "video_a", "video_b", "comedy", now.Add(-10*time.Minute), 5*time.Minute)
	if err != nil {
		t.Fatalf("new battle: %v", err)
	}
	running, err := entities.NewBattle("battle_running", "video_c", "video_d", "comedy", now, 5*time.Minute)
	if err != nil {
		t.Fatalf("new battle: %v", err)
	}
	store.SeedBattle(expired)
	store.SeedBattle(running)
	ctx := context.Background()

	sweeper := workers.BattleSweeper{
		Battles:   store,
		Concluder: commands.ConcludeBattleUseCase{Battles: store, Clock: store, IDGen: store},
		Clock:     store,
	}
	if err := sweeper.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	concluded, err := store.GetBattle(ctx, "battle_expired")
	if err != nil {
		t.Fatalf("get battle: %v", err)
	}
	if concluded.Active || concluded.ConcludedAt == nil {
		t.Fatalf("expected expired battle concluded, got %+v", concluded)
	}
	still, err := store.GetBattle(ctx, "battle_running")
	if err != nil {
		t.Fatalf("get battle: %v", err)
	}
	if !still.Active {
		t.Fatalf("expected running battle untouched")
	}
	video, err := store.GetVideo(ctx, "video_a")
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if video.Status != entities.VideoStatusActive {
		t.Fatalf("expected video_a released, got %s", video.Status)
	}

	if err := sweeper.RunOnce(ctx); err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
}
