package bluecast

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// SubmissionState tracks where a submission is in its lifecycle.
type SubmissionState int32

const (
	StateIdle SubmissionState = iota
	StateAssembling
	StateUploading
	StateSubmitting
	StateDone
	StateFailed
)

func (s SubmissionState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAssembling:
		return "Assembling"
	case StateUploading:
		return "Uploading"
	case StateSubmitting:
		return "Submitting"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Notifier receives the user-visible outcomes of a submission: a success
// message, or a failure message with the error flag set. Per-item media
// failures are reported individually through the same channel.
type Notifier interface {
	Notify(text string, isError bool)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(text string, isError bool)

func (f NotifierFunc) Notify(text string, isError bool) {
	f(text, isError)
}

// LogNotifier reports outcomes to a logger. It is the default when the host
// has no visual notification surface.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Notify(text string, isError bool) {
	if isError {
		n.Log.Error().Msg(text)
		return
	}
	n.Log.Info().Msg(text)
}

// Submitter orchestrates one submission per composer event: ensure a valid
// session, assemble the record with its embed, and create it. At most one
// submission is in flight process-wide; a second trigger while one is active
// is dropped, not queued. The capture layer is expected to deliver each
// composer event at most once.
type Submitter struct {
	client   *Client
	settings *Settings
	notifier Notifier
	log      zerolog.Logger

	posting atomic.Bool
	state   atomic.Int32
}

// NewSubmitter wires a Submitter to a client and notifier. A nil notifier
// falls back to logging through the client's logger.
func NewSubmitter(client *Client, notifier Notifier) *Submitter {
	if notifier == nil {
		notifier = LogNotifier{Log: client.log}
	}
	return &Submitter{
		client:   client,
		settings: client.settings,
		notifier: notifier,
		log:      client.log,
	}
}

// State returns the submission state as last observed.
func (s *Submitter) State() SubmissionState {
	return SubmissionState(s.state.Load())
}

func (s *Submitter) setState(state SubmissionState) {
	s.state.Store(int32(state))
	s.log.Debug().Stringer("state", state).Msg("submission state")
}

// Submit runs one submission end to end. It is a no-op when cross-posting is
// disabled or credentials are missing, and returns ErrPostingInProgress when
// another submission holds the single-flight flag. The flag and state always
// reset to Idle on the way out, success or not.
func (s *Submitter) Submit(ctx context.Context, post *CapturedPost) error {
	if !s.settings.CrosspostEnabled || !s.settings.Configured() {
		return nil
	}
	if !s.posting.CompareAndSwap(false, true) {
		s.log.Debug().Msg("submission already in progress, dropping trigger")
		return ErrPostingInProgress
	}
	defer func() {
		s.setState(StateIdle)
		s.posting.Store(false)
	}()

	s.setState(StateAssembling)
	if _, err := s.client.EnsureSession(ctx); err != nil {
		s.setState(StateFailed)
		s.notifier.Notify("Failed: "+userErrorText(err), true)
		return err
	}

	s.setState(StateUploading)
	record, skipped := s.client.BuildRecord(ctx, post)
	for _, err := range skipped {
		s.notifier.Notify(fmt.Sprintf("Media upload failed: %s. Skipping.", userErrorText(err)), true)
	}

	s.setState(StateSubmitting)
	if _, err := s.client.PublishPost(ctx, record); err != nil {
		s.setState(StateFailed)
		s.notifier.Notify("Failed: "+userErrorText(err), true)
		return err
	}

	s.setState(StateDone)
	s.notifier.Notify("Post successfully crossposted to Bluesky.", false)
	return nil
}

// userErrorText turns an upstream error into user-facing failure text. The
// service's "file too large" responses get a friendlier message naming the
// blob size ceiling.
func userErrorText(err error) string {
	message := err.Error()
	if strings.Contains(message, "file too large") {
		return "file size too large (max ~1MB)"
	}
	return message
}
