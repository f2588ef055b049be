package errors

import "errors"

var (
	ErrVideoNotFound            = errors.New("video not found")
	ErrBattleNotFound           = errors.New("battle not found")
	ErrUnauthenticated          = errors.New("authentication required")
	ErrForbidden                = errors.New("caller does not own this resource")
	ErrInvalidUpload            = errors.New("invalid upload")
	ErrInvalidVideo             = errors.New("invalid video")
	ErrInvalidBattleRequest     = errors.New("invalid battle request")
	ErrNoSharedTag              = errors.New("videos do not share the requested tag")
	ErrVideoUnavailable         = errors.New("video is not available for a battle")
	ErrBattleConflict           = errors.New("an active battle already exists for this pair and tag")
	ErrInvalidVoteReference     = errors.New("vote targets do not belong to the battle")
	ErrDuplicateVote            = errors.New("You have already voted in this battle")
	ErrBattleInactive           = errors.New("battle is not active")
	ErrIdempotencyKeyConflict   = errors.New("idempotency key reused with different request")
	ErrRepositoryInvariantBroke = errors.New("repository invariant violated")
)
