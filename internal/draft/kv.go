package draft

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// KVStore keeps drafts in a JetStream key/value bucket.
type KVStore struct {
	kv jetstream.KeyValue
}

// NewKVStore wraps an existing bucket.
func NewKVStore(kv jetstream.KeyValue) *KVStore {
	return &KVStore{kv: kv}
}

func (s *KVStore) Save(ctx context.Context, key string, blob []byte) error {
	if _, err := s.kv.Put(ctx, key, blob); err != nil {
		return fmt.Errorf("putting draft %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Load(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting draft %s: %w", key, err)
	}
	return entry.Value(), nil
}

func (s *KVStore) Clear(ctx context.Context, key string) error {
	err := s.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("deleting draft %s: %w", key, err)
	}
	return nil
}
