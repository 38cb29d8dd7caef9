// README: Route cache store backed by Redis. The cached itineraries are
// written by an external routing layer; this engine only invalidates them
// when a technician's schedule changes.
package routecache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix is followed by "{technicianID}:{YYYY-MM-DD}".
	keyPrefix = "route:"
	dayFormat = "2006-01-02"

	// opTimeout bounds cache calls so a stalled Redis cannot hang a booking.
	opTimeout = 5 * time.Second
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// Invalidate deletes the memoized itinerary for one technician and day.
func (s *Store) Invalidate(ctx context.Context, techID int64, day time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.redis.Del(ctx, entryKey(techID, day)).Err()
}

// InvalidateDay deletes every technician's itinerary for a day. Used when a
// schedule-change event does not identify the technician.
func (s *Store) InvalidateDay(ctx context.Context, day time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	pattern := keyPrefix + "*:" + day.UTC().Format(dayFormat)
	iter := s.redis.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.redis.Del(ctx, keys...).Err()
}

func entryKey(techID int64, day time.Time) string {
	return fmt.Sprintf("%s%d:%s", keyPrefix, techID, day.UTC().Format(dayFormat))
}
