// main package for the tts-client, a command-line tool that submits one
// synthesis request and writes the resulting MP3.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/feedtape/tts-service/internal/objectstore"
	"github.com/feedtape/tts-service/internal/worker"
)

// Flag descriptions.
const (
	flagUserDesc    = "User UUID the request is billed to"
	flagTextDesc    = "Text to convert to speech"
	flagFileDesc    = "File containing the text to convert (alternative to -text)"
	flagLinkDesc    = "Article URL, used as the cache key"
	flagOutputDesc  = "Output file path (.mp3)"
	flagNatsDesc    = "NATS server URL"
	flagSubjectDesc = "Synthesis request subject"
	flagBucketDesc  = "Audio object store bucket"
	flagTimeoutDesc = "Request timeout"
)

// Defaults.
const (
	defaultOutputFile = "output.mp3"
	defaultSubject    = "tts.synthesize"
	defaultTimeout    = 2 * time.Minute
	outputFileMode    = 0o600
)

// Usage errors.
var (
	errUserRequired       = errors.New("-user must be provided")
	errEitherTextOrFile   = errors.New("either -text or -file must be provided")
	errCannotSpecifyBoth  = errors.New("cannot specify both -text and -file")
	errSynthesisRejected  = errors.New("synthesis rejected")
	errUnrecognizedReply  = errors.New("unrecognized reply payload")
	errEmptyAudioDownload = errors.New("downloaded audio is empty")
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	user    string
	text    string
	file    string
	link    string
	output  string
	natsURL string
	subject string
	bucket  string
	timeout time.Duration
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	userID, text, err := validateFlags(flags)
	if err != nil {
		return err
	}

	natsConnection, err := nats.Connect(flags.natsURL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", flags.natsURL, err)
	}
	defer natsConnection.Close()

	completed, err := submitRequest(natsConnection, flags, userID, text)
	if err != nil {
		return err
	}

	audioData, err := downloadAudio(natsConnection, flags.bucket, completed.AudioKey)
	if err != nil {
		return err
	}

	err = os.WriteFile(flags.output, audioData, outputFileMode)
	if err != nil {
		return fmt.Errorf("failed to write output file '%s': %w", flags.output, err)
	}

	fmt.Printf("Generated: %s (language=%s, %d chars, %.1f minutes)\n",
		flags.output, completed.Language, completed.CharCount, completed.DurationMinutes)

	return nil
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.user, "user", "", flagUserDesc)
	flag.StringVar(&flags.text, "text", "", flagTextDesc)
	flag.StringVar(&flags.file, "file", "", flagFileDesc)
	flag.StringVar(&flags.link, "link", "", flagLinkDesc)
	flag.StringVar(&flags.output, "output", defaultOutputFile, flagOutputDesc)
	flag.StringVar(&flags.natsURL, "nats", nats.DefaultURL, flagNatsDesc)
	flag.StringVar(&flags.subject, "subject", defaultSubject, flagSubjectDesc)
	flag.StringVar(&flags.bucket, "bucket", objectstore.DefaultBucket, flagBucketDesc)
	flag.DurationVar(&flags.timeout, "timeout", defaultTimeout, flagTimeoutDesc)
	flag.Parse()

	return flags
}

// validateFlags resolves the user ID and the text source.
func validateFlags(flags appFlags) (uuid.UUID, string, error) {
	if flags.user == "" {
		return uuid.Nil, "", errUserRequired
	}

	userID, err := uuid.Parse(flags.user)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid -user value '%s': %w", flags.user, err)
	}

	if flags.text == "" && flags.file == "" {
		return uuid.Nil, "", errEitherTextOrFile
	}

	if flags.text != "" && flags.file != "" {
		return uuid.Nil, "", errCannotSpecifyBoth
	}

	text := flags.text
	if flags.file != "" {
		data, readErr := os.ReadFile(flags.file)
		if readErr != nil {
			return uuid.Nil, "", fmt.Errorf(
				"failed to read text file '%s': %w", flags.file, readErr)
		}

		text = string(data)
	}

	return userID, text, nil
}

// submitRequest sends one synthesis request and decodes the reply.
func submitRequest(
	natsConnection *nats.Conn,
	flags appFlags,
	userID uuid.UUID,
	text string,
) (*worker.SynthesisCompletedEvent, error) {
	event := worker.SynthesisRequestedEvent{
		RequestID: uuid.New(),
		UserID:    userID,
		Text:      text,
		Link:      flags.link,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reply, err := natsConnection.Request(flags.subject, payload, flags.timeout)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}

	return parseReply(reply.Data)
}

// parseReply distinguishes the completed and failed reply shapes by the
// error_kind field.
func parseReply(data []byte) (*worker.SynthesisCompletedEvent, error) {
	var failed worker.SynthesisFailedEvent

	err := json.Unmarshal(data, &failed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUnrecognizedReply, err)
	}

	if failed.ErrorKind != "" {
		return nil, fmt.Errorf("%w (%s): %s",
			errSynthesisRejected, failed.ErrorKind, failed.ErrorMessage)
	}

	var completed worker.SynthesisCompletedEvent

	err = json.Unmarshal(data, &completed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUnrecognizedReply, err)
	}

	return &completed, nil
}

// downloadAudio fetches the stored MP3 from the object store bucket.
func downloadAudio(natsConnection *nats.Conn, bucketName, audioKey string) ([]byte, error) {
	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	bucket, err := jetstreamContext.ObjectStore(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to bind to audio bucket: %w", err)
	}

	audioData, err := bucket.GetBytes(audioKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download audio '%s': %w", audioKey, err)
	}

	if len(audioData) == 0 {
		return nil, errEmptyAudioDownload
	}

	return audioData, nil
}
