package battleengine

import (
	"log/slog"
	"time"

	httpadapter "reelrivals/contexts/battle-arena/battle-engine/adapters/http"
	"reelrivals/contexts/battle-arena/battle-engine/adapters/memory"
	"reelrivals/contexts/battle-arena/battle-engine/application/commands"
	"reelrivals/contexts/battle-arena/battle-engine/application/queries"
	"reelrivals/contexts/battle-arena/battle-engine/application/workers"
	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	"reelrivals/contexts/battle-arena/battle-engine/domain/services"
	"reelrivals/contexts/battle-arena/battle-engine/ports"
)

// Module is the composition surface for the battle engine.
// Runtime wiring consumes Handler and the workers; Store and Media are set
// only by NewInMemoryModule and exposed for tests and inspection.
type Module struct {
	Handler    httpadapter.Handler
	Matchmaker commands.MatchmakeUseCase
	Concluder  commands.ConcludeBattleUseCase
	Relay      workers.OutboxRelay
	Consumer   workers.MatchmakingConsumer
	Sweeper    workers.BattleSweeper
	Store      *memory.Store
	Media      *memory.MediaStore
}

type Dependencies struct {
	Videos                ports.VideoRepository
	Battles               ports.BattleRepository
	Votes                 ports.VoteRepository
	Idempotency           ports.IdempotencyStore
	Outbox                ports.OutboxRepository
	Dedup                 ports.EventDedupStore
	Media                 ports.MediaStore
	Publisher             ports.EventPublisher
	Subscriber            ports.EventSubscriber
	Clock                 ports.Clock
	IDGenerator           ports.IDGenerator
	Random                ports.RandomSource
	Metrics               ports.Metrics
	BattleDuration        time.Duration
	FairnessMarginPercent int
	IdempotencyTTL        time.Duration
	DedupTTL              time.Duration
	WorkerBatchSize       int
	Logger                *slog.Logger
}

// NewModule wires battle engine use cases and workers against explicit ports.
func NewModule(deps Dependencies) Module {
	if deps.BattleDuration <= 0 {
		deps.BattleDuration = entities.DefaultBattleDuration
	}
	if deps.FairnessMarginPercent <= 0 {
		deps.FairnessMarginPercent = services.DefaultFairnessMarginPercent
	}

	matchmaker := commands.MatchmakeUseCase{
		Videos:                deps.Videos,
		Battles:               deps.Battles,
		Clock:                 deps.Clock,
		IDGen:                 deps.IDGenerator,
		Random:                deps.Random,
		FairnessMarginPercent: deps.FairnessMarginPercent,
		BattleDuration:        deps.BattleDuration,
		Metrics:               deps.Metrics,
		Logger:                deps.Logger,
	}
	concluder := commands.ConcludeBattleUseCase{
		Battles: deps.Battles,
		Clock:   deps.Clock,
		IDGen:   deps.IDGenerator,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	}

	handler := httpadapter.Handler{
		UploadVideo: commands.UploadVideoUseCase{
			Videos: deps.Videos,
			Media:  deps.Media,
			Clock:  deps.Clock,
			IDGen:  deps.IDGenerator,
			Logger: deps.Logger,
		},
		RecordView: commands.RecordViewUseCase{
			Videos: deps.Videos,
			Logger: deps.Logger,
		},
		DeleteVideo: commands.DeleteVideoUseCase{
			Videos: deps.Videos,
			Logger: deps.Logger,
		},
		CreateBattle: commands.CreateBattleUseCase{
			Videos:         deps.Videos,
			Battles:        deps.Battles,
			Clock:          deps.Clock,
			IDGen:          deps.IDGenerator,
			BattleDuration: deps.BattleDuration,
			Logger:         deps.Logger,
		},
		CastVote: commands.CastVoteUseCase{
			Battles:        deps.Battles,
			Votes:          deps.Votes,
			Idempotency:    deps.Idempotency,
			Clock:          deps.Clock,
			IDGen:          deps.IDGenerator,
			IdempotencyTTL: deps.IdempotencyTTL,
			Metrics:        deps.Metrics,
			Logger:         deps.Logger,
		},
		ListActive: queries.ListActiveBattlesUseCase{
			Battles: deps.Battles,
			Videos:  deps.Videos,
			Clock:   deps.Clock,
			Logger:  deps.Logger,
		},
		GetBattle: queries.GetBattleUseCase{
			Battles: deps.Battles,
			Videos:  deps.Videos,
			Clock:   deps.Clock,
			Logger:  deps.Logger,
		},
		GetProfile: queries.GetProfileUseCase{
			Videos:  deps.Videos,
			Battles: deps.Battles,
			Votes:   deps.Votes,
			Clock:   deps.Clock,
			Logger:  deps.Logger,
		},
		ListMyVideos: queries.ListMyVideosUseCase{
			Videos: deps.Videos,
			Logger: deps.Logger,
		},
		GetVideo: queries.GetVideoUseCase{
			Videos: deps.Videos,
			Logger: deps.Logger,
		},
		Logger: deps.Logger,
	}

	return Module{
		Handler:    handler,
		Matchmaker: matchmaker,
		Concluder:  concluder,
		Relay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.WorkerBatchSize,
			Logger:    deps.Logger,
		},
		Consumer: workers.MatchmakingConsumer{
			Subscriber: deps.Subscriber,
			Matchmaker: matchmaker,
			Dedup:      deps.Dedup,
			Clock:      deps.Clock,
			DedupTTL:   deps.DedupTTL,
			Logger:     deps.Logger,
		},
		Sweeper: workers.BattleSweeper{
			Battles:   deps.Battles,
			Concluder: concluder,
			Clock:     deps.Clock,
			BatchSize: deps.WorkerBatchSize,
			Logger:    deps.Logger,
		},
	}
}

// EventBus is the publish and subscribe pair the in-memory module relays
// outbox events through.
type EventBus interface {
	ports.EventPublisher
	ports.EventSubscriber
}

// NewInMemoryModule wires the battle engine against in-memory adapters.
// bus may be nil when the caller never starts the workers.
func NewInMemoryModule(seedVideos []entities.Video, bus EventBus, logger *slog.Logger) Module {
	store := memory.NewStore(seedVideos, logger)
	media := memory.NewMediaStore("")
	deps := Dependencies{
		Videos:         store,
		Battles:        store,
		Votes:          store,
		Idempotency:    store,
		Outbox:         store,
		Dedup:          store,
		Media:          media,
		Clock:          store,
		IDGenerator:    store,
		Random:         store,
		BattleDuration: entities.DefaultBattleDuration,
		IdempotencyTTL: 24 * time.Hour,
		DedupTTL:       7 * 24 * time.Hour,
		Logger:         logger,
	}
	if bus != nil {
		deps.Publisher = bus
		deps.Subscriber = bus
	}
	module := NewModule(deps)
	module.Store = store
	module.Media = media
	return module
}
