package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/feedtape/tts-service/internal/core"
)

// UsageBucket is the KV bucket holding per-user, per-day consumption.
const UsageBucket = "tts-usage"

// casMaxAttempts bounds the optimistic-concurrency retry loop.
const casMaxAttempts = 10

// ErrIncrementContention is returned when the compare-and-swap loop loses the
// revision race more times than casMaxAttempts allows.
var ErrIncrementContention = errors.New("usage increment lost too many revision races")

// UsageStore implements core.UsageStore over a NATS KV bucket. Records are
// JSON-encoded core.UsageRecord values keyed by "<uuid>.<yyyy-mm-dd>", one
// per user per UTC day. Increments use revision-checked writes so concurrent
// updates never lose counts.
type UsageStore struct {
	bucket nats.KeyValue
	now    func() time.Time
}

// NewUsageStore creates the usage bucket if needed and binds to it, using
// the wall clock for day bucketing.
func NewUsageStore(jetstreamContext nats.JetStreamContext) (*UsageStore, error) {
	return NewUsageStoreWithClock(jetstreamContext, time.Now)
}

// NewUsageStoreWithClock creates a usage store with a custom clock.
func NewUsageStoreWithClock(
	jetstreamContext nats.JetStreamContext,
	now func() time.Time,
) (*UsageStore, error) {
	bucket, err := openBucket(jetstreamContext, UsageBucket, "Per-user daily synthesis consumption.")
	if err != nil {
		return nil, err
	}

	return &UsageStore{bucket: bucket, now: now}, nil
}

// TodayUsage returns the current UTC day's record for the user. A user with
// no consumption today gets a zero-valued record.
func (s *UsageStore) TodayUsage(_ context.Context, id uuid.UUID) (core.UsageRecord, error) {
	date := core.UsageDate(s.now())

	entry, err := s.bucket.Get(usageKey(id, date))
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return core.UsageRecord{UserID: id, Date: date}, nil
		}

		return core.UsageRecord{}, fmt.Errorf(
			"%w: failed to get usage for user '%s': %w", core.ErrDependency, id, err)
	}

	var record core.UsageRecord

	err = json.Unmarshal(entry.Value(), &record)
	if err != nil {
		return core.UsageRecord{}, fmt.Errorf(
			"%w: failed to decode usage for user '%s': %w", core.ErrInternal, id, err)
	}

	return record, nil
}

// IncrementUsage adds the character count and one article to today's record
// as an atomic upsert-add. The first writer of the day creates the record;
// later writers update it under the revision they read, retrying on races.
func (s *UsageStore) IncrementUsage(_ context.Context, id uuid.UUID, characters int) error {
	date := core.UsageDate(s.now())
	key := usageKey(id, date)

	for attempt := 0; attempt < casMaxAttempts; attempt++ {
		fresh := core.UsageRecord{
			UserID:              id,
			Date:                date,
			CharactersUsed:      characters,
			ArticlesSynthesized: 1,
		}

		created, err := s.tryCreate(key, fresh)
		if err != nil {
			return err
		}

		if created {
			return nil
		}

		updated, err := s.tryUpdate(key, id, characters)
		if err != nil {
			return err
		}

		if updated {
			return nil
		}
	}

	return fmt.Errorf("%w: user '%s'", ErrIncrementContention, id)
}

// tryCreate attempts the first write of the day. A false return means the
// key already exists and the caller must update instead.
func (s *UsageStore) tryCreate(key string, record core.UsageRecord) (bool, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("failed to encode usage record: %w", err)
	}

	_, err = s.bucket.Create(key, data)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, nats.ErrKeyExists) {
		return false, nil
	}

	return false, fmt.Errorf("%w: failed to create usage record '%s': %w",
		core.ErrDependency, key, err)
}

// tryUpdate reads the current record and writes the incremented value under
// the revision it read. A false return means the revision moved underneath
// us (or the key was deleted) and the caller should retry.
func (s *UsageStore) tryUpdate(key string, id uuid.UUID, characters int) (bool, error) {
	entry, err := s.bucket.Get(key)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("%w: failed to get usage record '%s': %w",
			core.ErrDependency, key, err)
	}

	var record core.UsageRecord

	err = json.Unmarshal(entry.Value(), &record)
	if err != nil {
		return false, fmt.Errorf("%w: failed to decode usage record '%s': %w",
			core.ErrInternal, key, err)
	}

	record.UserID = id
	record.CharactersUsed += characters
	record.ArticlesSynthesized++

	data, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("failed to encode usage record: %w", err)
	}

	_, err = s.bucket.Update(key, data, entry.Revision())
	if err == nil {
		return true, nil
	}

	if isRevisionMismatch(err) {
		return false, nil
	}

	return false, fmt.Errorf("%w: failed to update usage record '%s': %w",
		core.ErrDependency, key, err)
}

// isRevisionMismatch reports whether an Update failed because another writer
// advanced the key's revision first.
func isRevisionMismatch(err error) bool {
	var apiErr *nats.APIError

	return errors.As(err, &apiErr) && apiErr.ErrorCode == nats.JSErrCodeStreamWrongLastSequence
}

// usageKey builds the per-user, per-day bucket key.
func usageKey(id uuid.UUID, date string) string {
	return fmt.Sprintf("%s.%s", id, date)
}
