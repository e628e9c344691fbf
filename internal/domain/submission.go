package domain

import (
	"fmt"
	"strings"
	"time"
)

// SubmissionStatus is the processing state of a submission. Legal
// transitions: Pending→Processing, Processing→Completed, Pending→Completed
// (single-shot), any→Failed, and Processing/Failed→Pending (processor
// recovery). Completed is terminal.
type SubmissionStatus string

const (
	SubmissionPending    SubmissionStatus = "pending"
	SubmissionProcessing SubmissionStatus = "processing"
	SubmissionCompleted  SubmissionStatus = "completed"
	SubmissionFailed     SubmissionStatus = "failed"
)

// Submission is the aggregate root owning the answers a respondent gave to
// one questionnaire.
type Submission struct {
	entity
	questionnaireID  string
	respondentUserID string
	submittedAt      time.Time
	status           SubmissionStatus
	failureReason    string
	items            []*SubmissionItem
}

// NewSubmission creates a Pending submission stamped with the current time.
func NewSubmission(questionnaireID, respondentUserID string) (*Submission, error) {
	if questionnaireID == "" {
		return nil, NewValidationError("", "questionnaire id cannot be empty")
	}
	if respondentUserID == "" {
		return nil, NewValidationError("", "respondent user id cannot be empty")
	}
	return &Submission{
		entity:           newEntity(),
		questionnaireID:  questionnaireID,
		respondentUserID: respondentUserID,
		submittedAt:      nowFunc(),
		status:           SubmissionPending,
	}, nil
}

// AddItem records an answer. Each question may be answered at most once per
// submission, and items may only be appended while the submission is Pending.
func (s *Submission) AddItem(questionID, answer, selectedOptionID string) error {
	if s.status != SubmissionPending {
		return NewStateConflictError(s.id,
			fmt.Sprintf("cannot add items to a submission with status %q", s.status))
	}
	if s.HasAnswerForQuestion(questionID) {
		return NewDuplicateError(s.id,
			fmt.Sprintf("question %q has already been answered in this submission", questionID))
	}
	item, err := newSubmissionItem(s.id, questionID, answer, selectedOptionID)
	if err != nil {
		return err
	}
	s.items = append(s.items, item)
	s.touch()
	return nil
}

// StartProcessing moves Pending to Processing.
func (s *Submission) StartProcessing() error {
	if s.status != SubmissionPending {
		return NewStateConflictError(s.id,
			fmt.Sprintf("cannot start processing a submission with status %q", s.status))
	}
	s.status = SubmissionProcessing
	s.touch()
	return nil
}

// Complete marks the submission done. It is legal from Processing, and from
// Pending to support the single-shot path that skips the explicit
// Processing marker. A submission cannot complete without answers.
func (s *Submission) Complete() error {
	if s.status != SubmissionProcessing && s.status != SubmissionPending {
		return NewStateConflictError(s.id,
			fmt.Sprintf("cannot complete a submission with status %q", s.status))
	}
	if len(s.items) == 0 {
		return NewStateConflictError(s.id, "cannot complete a submission without any answers")
	}
	s.status = SubmissionCompleted
	s.touch()
	return nil
}

// Fail records a failure reason. It is settable from any state and
// overwrites a previous reason, so retries can always leave a trace.
func (s *Submission) Fail(reason string) error {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return NewValidationError(s.id, "failure reason cannot be empty")
	}
	s.status = SubmissionFailed
	s.failureReason = trimmed
	s.touch()
	return nil
}

// ResetToPending rewinds a Processing or Failed submission so the processor
// can re-run it cleanly after a crash. Completed submissions cannot be
// reset.
func (s *Submission) ResetToPending() error {
	if s.status != SubmissionProcessing && s.status != SubmissionFailed {
		return NewStateConflictError(s.id,
			fmt.Sprintf("cannot reset a submission with status %q", s.status))
	}
	s.status = SubmissionPending
	s.failureReason = ""
	s.touch()
	return nil
}

func (s *Submission) HasAnswerForQuestion(questionID string) bool {
	for _, item := range s.items {
		if item.questionID == questionID {
			return true
		}
	}
	return false
}

func (s *Submission) AnswerForQuestion(questionID string) (*SubmissionItem, bool) {
	for _, item := range s.items {
		if item.questionID == questionID {
			return item, true
		}
	}
	return nil, false
}

func (s *Submission) QuestionnaireID() string  { return s.questionnaireID }
func (s *Submission) RespondentUserID() string { return s.respondentUserID }
func (s *Submission) SubmittedAt() time.Time   { return s.submittedAt }
func (s *Submission) Status() SubmissionStatus { return s.status }
func (s *Submission) FailureReason() string    { return s.failureReason }

// Items returns the answers in insertion order as a copied slice.
func (s *Submission) Items() []*SubmissionItem {
	return append([]*SubmissionItem(nil), s.items...)
}

// RestoreSubmission rebuilds a stored submission. It bypasses validation
// and exists for persistence code only.
func RestoreSubmission(
	id, questionnaireID, respondentUserID string,
	submittedAt time.Time,
	status SubmissionStatus,
	failureReason string,
	createdAt time.Time,
	updatedAt *time.Time,
	items []*SubmissionItem,
) *Submission {
	return &Submission{
		entity:           entity{id: id, createdAt: createdAt, updatedAt: updatedAt},
		questionnaireID:  questionnaireID,
		respondentUserID: respondentUserID,
		submittedAt:      submittedAt,
		status:           status,
		failureReason:    failureReason,
		items:            items,
	}
}
