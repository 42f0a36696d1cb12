// Package worker provides a NATS worker that serves synthesis requests.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/feedtape/tts-service/internal/core"
	"github.com/feedtape/tts-service/internal/objectstore"
)

// DefaultHandleTimeout bounds one synthesis job end to end, provider calls
// included.
const DefaultHandleTimeout = 120 * time.Second

// Synthesizer runs the synthesis pipeline for one article.
type Synthesizer interface {
	Synthesize(
		ctx context.Context,
		userID uuid.UUID,
		rawText string,
		link string,
	) (core.SynthesisResult, error)
}

// NatsWorker listens for synthesis requests on a NATS subject, runs the
// pipeline, stores the audio, and replies with the outcome event.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	service        Synthesizer
	store          core.ObjectStore
	handleTimeout  time.Duration
	log            *logger.Logger
}

// NewNatsWorker creates a worker over the given connection and subject.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	service Synthesizer,
	store core.ObjectStore,
	log *logger.Logger,
) *NatsWorker {
	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		service:        service,
		store:          store,
		handleTimeout:  DefaultHandleTimeout,
		log:            log,
	}
}

// SetHandleTimeout overrides the per-message deadline. Call before Run.
func (w *NatsWorker) SetHandleTimeout(timeout time.Duration) {
	if timeout > 0 {
		w.handleTimeout = timeout
	}
}

// Run subscribes and serves until the context is cancelled, then drains the
// subscription so in-flight messages finish.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	w.log.Info("Worker listening: subject=%s", w.subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), w.handleTimeout)
	defer cancel()

	event, err := parseRequest(msg)
	if err != nil {
		w.log.Error("Rejected synthesis request: %v", err)
		w.replyFailure(msg, uuid.Nil, fmt.Errorf("%w: %w", core.ErrInvalidInput, err))

		return
	}

	completed, err := w.processRequest(ctx, event)
	if err != nil {
		w.log.Error("Synthesis request %s failed: %v", event.RequestID, err)
		w.replyFailure(msg, event.RequestID, err)

		return
	}

	w.reply(msg, completed)
}

// processRequest runs the pipeline for one request and stores the audio.
func (w *NatsWorker) processRequest(
	ctx context.Context,
	event *SynthesisRequestedEvent,
) (*SynthesisCompletedEvent, error) {
	result, err := w.service.Synthesize(ctx, event.UserID, event.Text, event.Link)
	if err != nil {
		return nil, err
	}

	audioKey := objectstore.AudioKey(event.RequestID)

	err = w.store.Upload(ctx, audioKey, result.Audio)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to upload audio for request %s: %w",
			core.ErrDependency, event.RequestID, err)
	}

	return &SynthesisCompletedEvent{
		RequestID:       event.RequestID,
		AudioKey:        audioKey,
		Language:        result.Language,
		CharCount:       result.CharCount,
		DurationMinutes: result.DurationMinutes,
	}, nil
}

func (w *NatsWorker) reply(msg *nats.Msg, event any) {
	replyData, err := json.Marshal(event)
	if err != nil {
		w.log.Error("Failed to marshal reply event: %v", err)

		return
	}

	err = msg.Respond(replyData)
	if err != nil {
		w.log.Error("Failed to publish reply event: %v", err)
	}
}

func (w *NatsWorker) replyFailure(msg *nats.Msg, requestID uuid.UUID, cause error) {
	w.reply(msg, &SynthesisFailedEvent{
		RequestID:    requestID,
		ErrorKind:    core.ErrorKind(cause),
		ErrorMessage: cause.Error(),
	})
}

func parseRequest(msg *nats.Msg) (*SynthesisRequestedEvent, error) {
	var event SynthesisRequestedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal request event: %w", err)
	}

	validationErr := event.Validate()
	if validationErr != nil {
		return nil, validationErr
	}

	return &event, nil
}
