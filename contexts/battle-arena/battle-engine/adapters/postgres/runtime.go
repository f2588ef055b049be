package postgresadapter

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// SystemClock is the default runtime clock implementation.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator creates UUIDv4 identifiers for videos, battles, votes and events.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// SystemRandom backs opponent tie-breaking.
type SystemRandom struct{}

func (SystemRandom) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return rand.IntN(n)
}
