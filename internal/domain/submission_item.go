package domain

import (
	"fmt"
	"strings"
)

const answerMaxLength = 5000

// SubmissionItem is a single answered question inside a submission. Only
// Submission code creates items.
type SubmissionItem struct {
	entity
	submissionID     string
	questionID       string
	answer           string
	selectedOptionID string
}

func newSubmissionItem(submissionID, questionID, answer, selectedOptionID string) (*SubmissionItem, error) {
	if questionID == "" {
		return nil, NewValidationError(submissionID, "question id cannot be empty")
	}
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return nil, NewValidationError(questionID, "answer cannot be empty")
	}
	if len(trimmed) > answerMaxLength {
		return nil, NewValidationError(questionID,
			fmt.Sprintf("answer cannot exceed %d characters", answerMaxLength))
	}
	return &SubmissionItem{
		entity:           newEntity(),
		submissionID:     submissionID,
		questionID:       questionID,
		answer:           trimmed,
		selectedOptionID: selectedOptionID,
	}, nil
}

func (i *SubmissionItem) SubmissionID() string { return i.submissionID }
func (i *SubmissionItem) QuestionID() string   { return i.questionID }
func (i *SubmissionItem) Answer() string       { return i.answer }

// SelectedOptionID is empty for free-text answers.
func (i *SubmissionItem) SelectedOptionID() string { return i.selectedOptionID }

// RestoreSubmissionItem rebuilds a stored item. It bypasses validation and
// exists for persistence code only.
func RestoreSubmissionItem(id, submissionID, questionID, answer, selectedOptionID string) *SubmissionItem {
	return &SubmissionItem{
		entity:           entity{id: id},
		submissionID:     submissionID,
		questionID:       questionID,
		answer:           answer,
		selectedOptionID: selectedOptionID,
	}
}
