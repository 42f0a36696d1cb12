// Package objectstore_test tests the NATS audio object store.
package objectstore_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/server"
	natstest "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedtape/tts-service/internal/objectstore"
)

// startTestServer starts an in-memory NATS server with JetStream enabled.
func startTestServer(t *testing.T) nats.JetStreamContext {
	t.Helper()

	opts := natstest.DefaultTestOptions
	opts.Port = -1 // Use a random port
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	natsServer := natstest.RunServer(&opts)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	require.NoError(t, err)

	t.Cleanup(func() {
		natsConnection.Close()
		shutdownServer(natsServer)
	})

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	return jetstreamContext
}

func shutdownServer(natsServer *server.Server) {
	natsServer.Shutdown()
	natsServer.WaitForShutdown()
}

func TestAudioKey(t *testing.T) {
	t.Parallel()

	resultID := uuid.New()
	assert.Equal(t, resultID.String()+".mp3", objectstore.AudioKey(resultID))
}

func TestNatsObjectStore_UploadDownload(t *testing.T) {
	t.Parallel()

	jetstreamContext := startTestServer(t)

	store, err := objectstore.New(jetstreamContext, objectstore.DefaultBucket)
	require.NoError(t, err)

	ctx := context.Background()
	key := objectstore.AudioKey(uuid.New())
	audioData := []byte("mp3-frames-go-here")

	err = store.Upload(ctx, key, audioData)
	require.NoError(t, err)

	downloaded, err := store.Download(ctx, key)
	require.NoError(t, err)
	require.Equal(t, audioData, downloaded)
}

func TestNatsObjectStore_MissingKey(t *testing.T) {
	t.Parallel()

	jetstreamContext := startTestServer(t)

	store, err := objectstore.New(jetstreamContext, objectstore.DefaultBucket)
	require.NoError(t, err)

	_, err = store.Download(context.Background(), objectstore.AudioKey(uuid.New()))
	require.Error(t, err)
}

func TestNatsObjectStore_RebindExistingBucket(t *testing.T) {
	t.Parallel()

	jetstreamContext := startTestServer(t)

	first, err := objectstore.New(jetstreamContext, objectstore.DefaultBucket)
	require.NoError(t, err)

	ctx := context.Background()
	key := objectstore.AudioKey(uuid.New())

	err = first.Upload(ctx, key, []byte("audio"))
	require.NoError(t, err)

	second, err := objectstore.New(jetstreamContext, objectstore.DefaultBucket)
	require.NoError(t, err)

	downloaded, err := second.Download(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio"), downloaded)
}
