package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// DraftBucketName is the key/value bucket holding wizard drafts.
const DraftBucketName = "runwiz_drafts"

// SetupDraftBucket creates or updates the draft bucket. Only the latest
// revision of a draft is useful, so history is kept at one entry.
func SetupDraftBucket(ctx context.Context, js jetstream.JetStream) (jetstream.KeyValue, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      DraftBucketName,
		Description: "in-progress run wizard drafts",
		History:     1,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("setting up draft bucket: %w", err)
	}
	return kv, nil
}
