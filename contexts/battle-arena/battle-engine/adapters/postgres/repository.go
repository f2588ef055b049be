package postgresadapter

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "reelrivals/contexts/battle-arena/battle-engine/application"
	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	domainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
	"reelrivals/contexts/battle-arena/battle-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	uniqueActivePairConstraint = "battles_unique_active_pair"
	uniqueBallotConstraint     = "battle_votes_unique_ballot"
)

//go:embed schema.sql
var schemaSQL string

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

var (
	_ ports.VideoRepository  = (*Repository)(nil)
	_ ports.BattleRepository = (*Repository)(nil)
	_ ports.VoteRepository   = (*Repository)(nil)
	_ ports.IdempotencyStore = (*Repository)(nil)
	_ ports.OutboxRepository = (*Repository)(nil)
	_ ports.EventDedupStore  = (*Repository)(nil)
)

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (r *Repository) Migrate(ctx context.Context) error {
	for _, statement := range strings.Split(schemaSQL, ";") {
		statement = strings.TrimSpace(statement)
		if statement == "" {
			continue
		}
		if err := r.db.WithContext(ctx).Exec(statement).Error; err != nil {
			return fmt.Errorf("apply battle engine schema: %w", err)
		}
	}
	return nil
}

func (r *Repository) CreateVideoWithOutbox(ctx context.Context, video entities.Video, event ports.OutboxMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := videoModelFromEntity(video)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrRepositoryInvariantBroke
			}
			return err
		}
		if len(video.Tags) > 0 {
			tags := make([]videoTagModel, 0, len(video.Tags))
			for _, tag := range video.Tags {
				tags = append(tags, videoTagModel{VideoID: video.VideoID, Tag: tag})
			}
			if err := tx.Create(&tags).Error; err != nil {
				return err
			}
		}
		return createOutbox(tx, event)
	})
}

func (r *Repository) GetVideo(ctx context.Context, videoID string) (entities.Video, error) {
	var row videoModel
	err := r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Video{}, domainerrors.ErrVideoNotFound
		}
		return entities.Video{}, err
	}
	videos, err := r.withTags(ctx, []videoModel{row})
	if err != nil {
		return entities.Video{}, err
	}
	return videos[0], nil
}

func (r *Repository) GetVideos(ctx context.Context, videoIDs []string) (map[string]entities.Video, error) {
	items := make(map[string]entities.Video, len(videoIDs))
	if len(videoIDs) == 0 {
		return items, nil
	}
	var rows []videoModel
	if err := r.db.WithContext(ctx).
		Where("video_id IN ?", videoIDs).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	videos, err := r.withTags(ctx, rows)
	if err != nil {
		return nil, err
	}
	for _, video := range videos {
		items[video.VideoID] = video
	}
	return items, nil
}

func (r *Repository) ListVideosByOwner(ctx context.Context, ownerID string) ([]entities.Video, error) {
	var rows []videoModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("uploaded_at DESC").
		Order("video_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return r.withTags(ctx, rows)
}

func (r *Repository) ListMatchCandidates(ctx context.Context, videoID string, tags []string) ([]entities.Video, error) {
	normalized := entities.NormalizeTags(tags)
	if len(normalized) == 0 {
		return []entities.Video{}, nil
	}
	db := r.db.WithContext(ctx)
	tagged := db.Model(&videoTagModel{}).
		Select("video_id").
		Where("tag IN ?", normalized)

	var rows []videoModel
	if err := db.
		Where("status = ?", string(entities.VideoStatusActive)).
		Where("video_id <> ?", videoID).
		Where("video_id IN (?)", tagged).
		Order("uploaded_at DESC").
		Order("video_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return r.withTags(ctx, rows)
}

func (r *Repository) IncrementViews(ctx context.Context, videoID string) (entities.Video, error) {
	result := r.db.WithContext(ctx).
		Model(&videoModel{}).
		Where("video_id = ? AND status <> ?", videoID, string(entities.VideoStatusDeleted)).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return entities.Video{}, result.Error
	}
	if result.RowsAffected == 0 {
		return entities.Video{}, domainerrors.ErrVideoNotFound
	}
	return r.GetVideo(ctx, videoID)
}

func (r *Repository) SoftDeleteVideo(ctx context.Context, videoID string, ownerID string) (entities.Video, error) {
	var deleted videoModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row videoModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("video_id = ?", videoID).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrVideoNotFound
			}
			return err
		}
		switch {
		case row.Status == string(entities.VideoStatusDeleted):
			return domainerrors.ErrVideoNotFound
		case row.OwnerID != ownerID:
			return domainerrors.ErrForbidden
		case row.Status == string(entities.VideoStatusBattling):
			return domainerrors.ErrVideoUnavailable
		}
		if err := tx.Model(&videoModel{}).
			Where("video_id = ?", videoID).
			Update("status", string(entities.VideoStatusDeleted)).
			Error; err != nil {
			return err
		}
		row.Status = string(entities.VideoStatusDeleted)
		deleted = row
		return nil
	})
	if err != nil {
		return entities.Video{}, err
	}
	videos, err := r.withTags(ctx, []videoModel{deleted})
	if err != nil {
		return entities.Video{}, err
	}
	return videos[0], nil
}

func (r *Repository) OpenBattleWithOutbox(ctx context.Context, battle entities.Battle, event ports.OutboxMessage) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The partial unique index decides pair uniqueness; a concurrent
		// insert for the same pair blocks here until the first commits.
		row := battleModelFromEntity(battle)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				if constraintName(err) == uniqueActivePairConstraint {
					return domainerrors.ErrBattleConflict
				}
				return domainerrors.ErrRepositoryInvariantBroke
			}
			if isForeignKeyViolation(err) {
				return domainerrors.ErrVideoNotFound
			}
			return err
		}

		ids := []string{battle.VideoAID, battle.VideoBID}
		var videos []videoModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("video_id IN ?", ids).
			Order("video_id ASC").
			Find(&videos).
			Error; err != nil {
			return err
		}
		if len(videos) != 2 {
			return domainerrors.ErrVideoNotFound
		}
		for _, video := range videos {
			switch entities.VideoStatus(video.Status) {
			case entities.VideoStatusActive:
			case entities.VideoStatusDeleted:
				return domainerrors.ErrVideoNotFound
			default:
				return domainerrors.ErrVideoUnavailable
			}
		}

		if err := tx.Model(&videoModel{}).
			Where("video_id IN ?", ids).
			Update("status", string(entities.VideoStatusBattling)).
			Error; err != nil {
			return err
		}
		return createOutbox(tx, event)
	})
	if err != nil {
		r.logError("open battle transaction failed", err,
			"battle_id", battle.BattleID,
			"video_a_id", battle.VideoAID,
			"video_b_id", battle.VideoBID,
			"tag", battle.Tag,
		)
	}
	return err
}

func (r *Repository) GetBattle(ctx context.Context, battleID string) (entities.Battle, error) {
	var row battleModel
	err := r.db.WithContext(ctx).
		Where("battle_id = ?", battleID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Battle{}, domainerrors.ErrBattleNotFound
		}
		return entities.Battle{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetBattles(ctx context.Context, battleIDs []string) (map[string]entities.Battle, error) {
	items := make(map[string]entities.Battle, len(battleIDs))
	if len(battleIDs) == 0 {
		return items, nil
	}
	var rows []battleModel
	if err := r.db.WithContext(ctx).
		Where("battle_id IN ?", battleIDs).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		items[row.BattleID] = row.toEntity()
	}
	return items, nil
}

func (r *Repository) ListActiveBattles(ctx context.Context, now time.Time) ([]entities.Battle, error) {
	var rows []battleModel
	if err := r.db.WithContext(ctx).
		Where("active = ? AND ends_at > ?", true, now.UTC()).
		Order("started_at DESC").
		Order("battle_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Battle, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListExpiredBattles(ctx context.Context, now time.Time, limit int) ([]entities.Battle, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []battleModel
	if err := r.db.WithContext(ctx).
		Where("active = ? AND ends_at <= ?", true, now.UTC()).
		Order("ends_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Battle, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ConcludeBattleWithOutbox(ctx context.Context, concluded entities.Battle, event ports.OutboxMessage) (bool, error) {
	stored := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := battleModelFromEntity(concluded)
		result := tx.Model(&battleModel{}).
			Where("battle_id = ? AND active = ? AND video_a_votes = ? AND video_b_votes = ?",
				concluded.BattleID, true, concluded.VideoAVotes, concluded.VideoBVotes).
			Updates(map[string]any{
				"active":       false,
				"winner_id":    row.WinnerID,
				"concluded_at": row.ConcludedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&videoModel{}).
			Where("video_id IN ? AND status = ?",
				[]string{concluded.VideoAID, concluded.VideoBID},
				string(entities.VideoStatusBattling)).
			Update("status", string(entities.VideoStatusActive)).
			Error; err != nil {
			return err
		}
		if err := createOutbox(tx, event); err != nil {
			return err
		}
		stored = true
		return nil
	})
	if err != nil {
		r.logError("conclude battle transaction failed", err, "battle_id", concluded.BattleID)
		return false, err
	}
	return stored, nil
}

func (r *Repository) RecordVote(ctx context.Context, vote entities.Vote, now time.Time, event ports.OutboxMessage) (entities.Battle, error) {
	var updated entities.Battle
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row battleModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("battle_id = ?", vote.BattleID).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrBattleNotFound
			}
			return err
		}
		battle := row.toEntity()
		if !entities.IsVotable(battle, now) {
			return domainerrors.ErrBattleInactive
		}

		voteRow := voteModelFromEntity(vote)
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "battle_id"}, {Name: "voter_id"}},
			DoNothing: true,
		}).Create(&voteRow)
		if insert.Error != nil {
			if isUniqueViolation(insert.Error) && constraintName(insert.Error) == uniqueBallotConstraint {
				return domainerrors.ErrDuplicateVote
			}
			return insert.Error
		}
		if insert.RowsAffected == 0 {
			return domainerrors.ErrDuplicateVote
		}

		if err := battle.ApplyVote(vote); err != nil {
			return err
		}
		column := "video_a_votes"
		if battle.SideOf(vote.VotedForID) == entities.SideB {
			column = "video_b_votes"
		}
		if err := tx.Model(&battleModel{}).
			Where("battle_id = ?", vote.BattleID).
			UpdateColumn(column, gorm.Expr(column+" + ?", 1)).
			Error; err != nil {
			return err
		}

		counter := tx.Model(&videoModel{}).
			Where("video_id = ?", vote.VotedForID).
			UpdateColumn("votes", gorm.Expr("votes + ?", 1))
		if counter.Error != nil {
			return counter.Error
		}
		if counter.RowsAffected == 0 {
			return domainerrors.ErrRepositoryInvariantBroke
		}

		if err := createOutbox(tx, event); err != nil {
			return err
		}
		updated = battle
		return nil
	})
	if err != nil {
		if !errors.Is(err, domainerrors.ErrDuplicateVote) && !errors.Is(err, domainerrors.ErrBattleInactive) {
			r.logError("record vote transaction failed", err,
				"battle_id", vote.BattleID,
				"voter_id", vote.VoterID,
			)
		}
		return entities.Battle{}, err
	}
	return updated, nil
}

func (r *Repository) GetVote(ctx context.Context, voteID string) (entities.Vote, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("vote_id = ?", voteID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, domainerrors.ErrRepositoryInvariantBroke
		}
		return entities.Vote{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListVotesByVoter(ctx context.Context, voterID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("voter_id = ?", voterID).
		Order("voted_at DESC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) withTags(ctx context.Context, rows []videoModel) ([]entities.Video, error) {
	if len(rows) == 0 {
		return []entities.Video{}, nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.VideoID)
	}
	var tagRows []videoTagModel
	if err := r.db.WithContext(ctx).
		Where("video_id IN ?", ids).
		Find(&tagRows).
		Error; err != nil {
		return nil, err
	}
	tagsByVideo := make(map[string][]string, len(rows))
	for _, tag := range tagRows {
		tagsByVideo[tag.VideoID] = append(tagsByVideo[tag.VideoID], tag.Tag)
	}
	items := make([]entities.Video, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity(tagsByVideo[row.VideoID]))
	}
	return items, nil
}

func (r *Repository) logError(message string, err error, attrs ...any) {
	args := append([]any{
		"event", "battle_postgres_error",
		"module", application.ModuleName,
		"layer", "adapter",
		"error", err.Error(),
	}, attrs...)
	r.logger.Error(message, args...)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
