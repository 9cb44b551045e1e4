package engine

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/pojeda/infomap/errors"
	"github.com/pojeda/infomap/natsclient"
)

// DefaultResultBucket is the JetStream key-value bucket for finished results
const DefaultResultBucket = "infomap-results"

// ResultStore persists finished job results in a JetStream key-value bucket,
// keyed by job ID
type ResultStore struct {
	kv jetstream.KeyValue
}

// NewResultStore opens (creating if needed) the result bucket
func NewResultStore(ctx context.Context, client *natsclient.Client, bucket string) (*ResultStore, error) {
	if bucket == "" {
		bucket = DefaultResultBucket
	}

	kv, err := client.EnsureKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "finished clustering job results",
	})
	if err != nil {
		return nil, errors.Wrap(err, "ResultStore", "New", "ensure bucket")
	}

	return &ResultStore{kv: kv}, nil
}

func resultKey(jobID uint64) string {
	return fmt.Sprintf("job-%d", jobID)
}

// Put stores a job's result, overwriting any previous value
func (s *ResultStore) Put(ctx context.Context, jobID uint64, result *Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return errors.WrapInvalid(err, "ResultStore", "Put", "marshal result")
	}

	if _, err := s.kv.Put(ctx, resultKey(jobID), data); err != nil {
		return errors.WrapTransient(err, "ResultStore", "Put", "store result")
	}
	return nil
}

// Get retrieves a job's result. A missing job reports errors.ErrJobNotFound.
func (s *ResultStore) Get(ctx context.Context, jobID uint64) (*Result, error) {
	entry, err := s.kv.Get(ctx, resultKey(jobID))
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: job %d", errors.ErrJobNotFound, jobID),
				"ResultStore", "Get", "lookup result")
		}
		return nil, errors.WrapTransient(err, "ResultStore", "Get", "lookup result")
	}

	var result Result
	if err := json.Unmarshal(entry.Value(), &result); err != nil {
		return nil, errors.WrapInvalid(err, "ResultStore", "Get", "unmarshal result")
	}
	return &result, nil
}

// Delete removes a job's result; deleting a missing key is not an error
func (s *ResultStore) Delete(ctx context.Context, jobID uint64) error {
	if err := s.kv.Delete(ctx, resultKey(jobID)); err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return nil
		}
		return errors.WrapTransient(err, "ResultStore", "Delete", "delete result")
	}
	return nil
}
