package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classhub-api/internal/models"
)

// gradedSubject is the NATS subject carrying terminal grading events.
const gradedSubject = "classhub.submissions.graded"

// SubmissionGradedEvent is the payload published when a submission
// reaches a terminal status. Consumers (notifiers, analytics) are
// fire-and-forget; publish failures never affect the submit flow.
type SubmissionGradedEvent struct {
	EventID       string     `json:"event_id"`
	SubmissionID  uint       `json:"submission_id"`
	AssignmentID  uint       `json:"assignment_id"`
	StudentID     uint       `json:"student_id"`
	AttemptNumber int        `json:"attempt_number"`
	Status        string     `json:"status"`
	Score         *float64   `json:"score,omitempty"`
	GradedAt      *time.Time `json:"graded_at,omitempty"`
}

// EventPublisher emits domain events. A nil NATS connection turns the
// publisher into a no-op so the API runs without a broker.
type EventPublisher interface {
	PublishSubmissionGraded(submission models.Submission)
}

type natsEventPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewEventPublisher constructs the NATS-backed publisher.
func NewEventPublisher(conn *nats.Conn, logger zerolog.Logger) EventPublisher {
	return &natsEventPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsEventPublisher) PublishSubmissionGraded(submission models.Submission) {
	if p.conn == nil {
		return
	}

	event := SubmissionGradedEvent{
		EventID:       uuid.NewString(),
		SubmissionID:  submission.ID,
		AssignmentID:  submission.AssignmentID,
		StudentID:     submission.StudentID,
		AttemptNumber: submission.AttemptNumber,
		Status:        submission.Status,
		Score:         submission.EffectiveScore(),
		GradedAt:      submission.GradedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to marshal graded event")
		return
	}

	if err := p.conn.Publish(gradedSubject, payload); err != nil {
		p.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish graded event")
	}
}
