package claim

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/factorclaim/internal/store"
)

const claimIDPrefix = "CLM-"

// Sequencer mints candidate claim ids. A minted id is not reserved: the
// insert that uses it may still collide and must be retried.
type Sequencer interface {
	Next(ctx context.Context, now time.Time) (string, error)
}

// Prefix returns the claim id prefix for the UTC day of now, e.g.
// "CLM-20250601-".
func Prefix(now time.Time) string {
	return claimIDPrefix + now.UTC().Format("20060102") + "-"
}

// FormatClaimID pads seq to four digits. Larger sequences keep growing.
func FormatClaimID(prefix string, seq uint64) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}

// nextSequence returns the sequence following latest. An empty or
// malformed id starts the day at 1.
func nextSequence(latest string) uint64 {
	if latest == "" {
		return 1
	}
	suffix := latest[strings.LastIndex(latest, "-")+1:]
	n, err := strconv.ParseUint(suffix, 10, 64)
	if err != nil {
		return 1
	}
	return n + 1
}

// NextClaimID derives the next claim id for now's day from the highest
// one already stored.
func NextClaimID(ctx context.Context, db *sql.DB, now time.Time) (string, error) {
	prefix := Prefix(now)
	latest, err := store.LatestClaimID(ctx, db, prefix)
	if err != nil {
		return "", err
	}
	return FormatClaimID(prefix, nextSequence(latest)), nil
}

// StoreSequencer mints ids by reading the latest stored claim id.
type StoreSequencer struct {
	DB *sql.DB
}

func (s StoreSequencer) Next(ctx context.Context, now time.Time) (string, error) {
	return NextClaimID(ctx, s.DB, now)
}
