//go:build integration

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pojeda/infomap/natsclient"
)

func startNATSContainer(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "nats:latest",
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForListeningPort("4222/tcp"),
		Cmd:          []string{"-js"},
	}

	natsContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := natsContainer.Host(ctx)
	require.NoError(t, err)

	port, err := natsContainer.MappedPort(ctx, "4222")
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	return natsContainer, fmt.Sprintf("nats://%s:%s", host, port.Port())
}

func TestIntegration_JobOverWire(t *testing.T) {
	ctx := context.Background()

	natsContainer, natsURL := startNATSContainer(ctx, t)
	defer func() { _ = natsContainer.Terminate(ctx) }()

	client, err := natsclient.New(natsURL)
	require.NoError(t, err)
	require.NoError(t, client.Connect(ctx))
	defer client.Close(ctx)

	runner := RunnerFunc(func(_ context.Context, job *Job, progress func(string)) (*Result, error) {
		progress("parsing " + job.Filename)
		return &Result{Tree: resultTree}, nil
	})

	h, err := NewHost(runner, WithNATS(client), WithWorkers(1, 4))
	require.NoError(t, err)
	require.NoError(t, h.Initialize())
	require.NoError(t, h.Start(ctx))
	defer func() { _ = h.Stop(5 * time.Second) }()

	// Event subjects are per-job; subscribe with a wildcard before submitting
	events := make(chan Event, 16)
	sub, err := client.Subscribe(DefaultSubjectPrefix+".*.events", func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err == nil {
			events <- ev
		}
	})
	require.NoError(t, err)
	defer func() { _ = sub.Unsubscribe() }()

	req, err := json.Marshal(runRequest{Filename: "net.net", Content: "*Vertices 3", Args: "-d"})
	require.NoError(t, err)

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	msg, err := client.Request(reqCtx, DefaultSubjectPrefix+".run", req)
	require.NoError(t, err)

	var rep runReply
	require.NoError(t, json.Unmarshal(msg.Data, &rep))
	assert.Empty(t, rep.Error)
	assert.Equal(t, uint64(1), rep.ID)

	var got []Event
	deadline := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-events:
			got = append(got, ev)
		case <-deadline:
			t.Fatalf("timed out with %d events", len(got))
		}
	}

	assert.Equal(t, EventData, got[0].Type)
	assert.Equal(t, "parsing net.net", got[0].Text)
	assert.Equal(t, EventFinished, got[1].Type)
	require.NotNil(t, got[1].Result)
	assert.Equal(t, resultTree, got[1].Result.Tree)
}

func TestIntegration_ResultStore(t *testing.T) {
	ctx := context.Background()

	natsContainer, natsURL := startNATSContainer(ctx, t)
	defer func() { _ = natsContainer.Terminate(ctx) }()

	client, err := natsclient.New(natsURL)
	require.NoError(t, err)
	require.NoError(t, client.Connect(ctx))
	defer client.Close(ctx)

	store, err := NewResultStore(ctx, client, "")
	require.NoError(t, err)

	res := &Result{Clu: "1 2\n2 2\n3 1\n", Tree: resultTree}
	require.NoError(t, store.Put(ctx, 7, res))

	got, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, res, got)

	// Stored results round-trip through the loader
	cm, err := got.ClusterMap("clu", false, nil)
	require.NoError(t, err)
	assert.Len(t, cm.Clusters, 3)

	_, err = store.Get(ctx, 99)
	require.Error(t, err)

	require.NoError(t, store.Delete(ctx, 7))
	require.NoError(t, store.Delete(ctx, 7))
}
