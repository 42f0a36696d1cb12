// Package store provides NATS JetStream key-value implementations of the
// user and usage stores.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/feedtape/tts-service/internal/core"
)

// UsersBucket is the KV bucket holding account records.
const UsersBucket = "tts-users"

// UserStore implements core.UserStore over a NATS KV bucket. Records are
// JSON-encoded core.User values keyed by the user's UUID string.
type UserStore struct {
	bucket nats.KeyValue
}

// NewUserStore creates the users bucket if needed and binds to it.
func NewUserStore(jetstreamContext nats.JetStreamContext) (*UserStore, error) {
	bucket, err := openBucket(jetstreamContext, UsersBucket, "Account records for quota decisions.")
	if err != nil {
		return nil, err
	}

	return &UserStore{bucket: bucket}, nil
}

// FindByID returns the user record or core.ErrUserNotFound.
func (s *UserStore) FindByID(_ context.Context, id uuid.UUID) (core.User, error) {
	entry, err := s.bucket.Get(id.String())
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return core.User{}, fmt.Errorf("%w: %s", core.ErrUserNotFound, id)
		}

		return core.User{}, fmt.Errorf("%w: failed to get user '%s': %w",
			core.ErrDependency, id, err)
	}

	var user core.User

	err = json.Unmarshal(entry.Value(), &user)
	if err != nil {
		return core.User{}, fmt.Errorf("%w: failed to decode user '%s': %w",
			core.ErrInternal, id, err)
	}

	return user, nil
}

// Save writes the user record, overwriting any previous version.
func (s *UserStore) Save(_ context.Context, user core.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user '%s': %w", user.ID, err)
	}

	_, err = s.bucket.Put(user.ID.String(), data)
	if err != nil {
		return fmt.Errorf("%w: failed to put user '%s': %w",
			core.ErrDependency, user.ID, err)
	}

	return nil
}

// openBucket creates a KV bucket with a create-first approach, binding to it
// when it already exists.
func openBucket(
	jetstreamContext nats.JetStreamContext,
	name string,
	description string,
) (nats.KeyValue, error) {
	bucket, err := jetstreamContext.CreateKeyValue(&nats.KeyValueConfig{
		Bucket:      name,
		Description: description,
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err == nil {
		return bucket, nil
	}

	bucket, bindErr := jetstreamContext.KeyValue(name)
	if bindErr != nil {
		return nil, fmt.Errorf(
			"failed to create KV bucket '%s' (%w) and failed to bind to it: %w",
			name, err, bindErr)
	}

	return bucket, nil
}
