package natsclient

import (
	"context"
	stderrors "errors"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/pojeda/infomap/errors"
)

// EnsureKeyValue returns the named JetStream KV bucket, creating it with the
// given config when it does not exist yet.
func (c *Client) EnsureKeyValue(ctx context.Context, cfg jetstream.KeyValueConfig) (jetstream.KeyValue, error) {
	js, err := c.JetStream()
	if err != nil {
		return nil, err
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, cfg)
	if err != nil {
		return nil, errors.WrapTransient(err, "Client", "EnsureKeyValue", "create bucket")
	}
	return kv, nil
}

// KeyValue returns an existing JetStream KV bucket
func (c *Client) KeyValue(ctx context.Context, bucket string) (jetstream.KeyValue, error) {
	js, err := c.JetStream()
	if err != nil {
		return nil, err
	}

	kv, err := js.KeyValue(ctx, bucket)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrBucketNotFound) {
			return nil, errors.WrapInvalid(errors.ErrBucketNotFound, "Client", "KeyValue", "lookup bucket")
		}
		return nil, errors.WrapTransient(err, "Client", "KeyValue", "lookup bucket")
	}
	return kv, nil
}
