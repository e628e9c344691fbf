package domain

import (
	"fmt"
	"strings"
	"time"
)

// QuestionnaireStatus is the lifecycle state of a questionnaire. Transitions
// run strictly forward: Draft → Published → Closed.
type QuestionnaireStatus string

const (
	QuestionnaireDraft     QuestionnaireStatus = "draft"
	QuestionnairePublished QuestionnaireStatus = "published"
	QuestionnaireClosed    QuestionnaireStatus = "closed"
)

const (
	titleMinLength       = 3
	titleMaxLength       = 200
	descriptionMaxLength = 1000
)

// Questionnaire is the aggregate root owning questions and their options.
// Structure is mutable only while the status is Draft; Publish freezes it
// and fixes the collection window.
type Questionnaire struct {
	entity
	title           string
	description     string
	status          QuestionnaireStatus
	collectionStart *time.Time
	collectionEnd   *time.Time
	createdByUserID string
	questions       []*Question
}

// NewQuestionnaire creates a Draft questionnaire.
func NewQuestionnaire(title, description, createdByUserID string) (*Questionnaire, error) {
	q := &Questionnaire{
		entity:          newEntity(),
		status:          QuestionnaireDraft,
		createdByUserID: createdByUserID,
	}
	if err := q.setTitle(title); err != nil {
		return nil, err
	}
	if err := q.setDescription(description); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Questionnaire) setTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if len(trimmed) < titleMinLength {
		return NewValidationError(q.id,
			fmt.Sprintf("title must be at least %d characters", titleMinLength))
	}
	if len(trimmed) > titleMaxLength {
		return NewValidationError(q.id,
			fmt.Sprintf("title cannot exceed %d characters", titleMaxLength))
	}
	q.title = trimmed
	return nil
}

func (q *Questionnaire) setDescription(description string) error {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		return NewValidationError(q.id, "description cannot be empty")
	}
	if len(trimmed) > descriptionMaxLength {
		return NewValidationError(q.id,
			fmt.Sprintf("description cannot exceed %d characters", descriptionMaxLength))
	}
	q.description = trimmed
	return nil
}

func (q *Questionnaire) ensureDraft() error {
	if q.status != QuestionnaireDraft {
		return NewStateConflictError(q.id,
			fmt.Sprintf("questionnaire %q cannot be modified once published", q.id))
	}
	return nil
}

// AddQuestion appends a new question and returns its id.
func (q *Questionnaire) AddQuestion(text string, isRequired, isMultipleChoice bool) (string, error) {
	if err := q.ensureDraft(); err != nil {
		return "", err
	}
	question, err := newQuestion(q.id, text, isRequired, isMultipleChoice)
	if err != nil {
		return "", err
	}
	q.questions = append(q.questions, question)
	q.touch()
	return question.id, nil
}

// AddQuestionWithOptions creates a multiple-choice question together with
// its options. The whole operation is atomic: on any failure the aggregate
// is unchanged.
func (q *Questionnaire) AddQuestionWithOptions(text string, isRequired bool, options []OptionInput) (string, error) {
	if err := q.ensureDraft(); err != nil {
		return "", err
	}
	question, err := newQuestion(q.id, text, isRequired, true)
	if err != nil {
		return "", err
	}
	if err := question.addOptions(options); err != nil {
		return "", err
	}
	q.questions = append(q.questions, question)
	q.touch()
	return question.id, nil
}

// AddOptionsToQuestion appends one or more options to an existing question,
// rejecting the whole batch on a duplicate order or text.
func (q *Questionnaire) AddOptionsToQuestion(questionID string, options []OptionInput) error {
	if err := q.ensureDraft(); err != nil {
		return err
	}
	question, err := q.questionByID(questionID)
	if err != nil {
		return err
	}
	if err := question.addOptions(options); err != nil {
		return err
	}
	q.touch()
	return nil
}

// RemoveOptionFromQuestion removes a single option from a question.
func (q *Questionnaire) RemoveOptionFromQuestion(questionID, optionID string) error {
	if err := q.ensureDraft(); err != nil {
		return err
	}
	question, err := q.questionByID(questionID)
	if err != nil {
		return err
	}
	if err := question.removeOption(optionID); err != nil {
		return err
	}
	q.touch()
	return nil
}

// RemoveQuestion removes a question and all of its options.
func (q *Questionnaire) RemoveQuestion(questionID string) error {
	if err := q.ensureDraft(); err != nil {
		return err
	}
	for i, question := range q.questions {
		if question.id == questionID {
			q.questions = append(q.questions[:i], q.questions[i+1:]...)
			q.touch()
			return nil
		}
	}
	return NewNotFoundError(questionID,
		fmt.Sprintf("question %q not found in questionnaire", questionID))
}

// UpdateQuestion replaces a question's text.
func (q *Questionnaire) UpdateQuestion(questionID, text string) error {
	if err := q.ensureDraft(); err != nil {
		return err
	}
	question, err := q.questionByID(questionID)
	if err != nil {
		return err
	}
	if err := question.setText(text); err != nil {
		return err
	}
	q.touch()
	return nil
}

// Update replaces title and description, re-validating both.
func (q *Questionnaire) Update(title, description string) error {
	if err := q.ensureDraft(); err != nil {
		return err
	}
	if err := q.setTitle(title); err != nil {
		return err
	}
	if err := q.setDescription(description); err != nil {
		return err
	}
	q.touch()
	return nil
}

// Publish moves the questionnaire to Published and fixes the collection
// window. It fails without state change when the questionnaire is not a
// Draft, when the window is inverted, or when any question is not ready.
func (q *Questionnaire) Publish(collectionStart, collectionEnd time.Time) error {
	if q.status != QuestionnaireDraft {
		return NewStateConflictError(q.id,
			fmt.Sprintf("questionnaire %q is already published", q.id))
	}
	if !collectionEnd.After(collectionStart) {
		return NewValidationError(q.id, "collection end must be after collection start")
	}
	if len(q.questions) == 0 {
		return NewStateConflictError(q.id, "cannot publish a questionnaire without questions")
	}
	for _, question := range q.questions {
		if err := question.readyForPublication(); err != nil {
			return err
		}
	}
	q.status = QuestionnairePublished
	q.collectionStart = &collectionStart
	q.collectionEnd = &collectionEnd
	q.touch()
	return nil
}

// Close ends collection permanently. Closed is terminal.
func (q *Questionnaire) Close() error {
	if q.status == QuestionnaireClosed {
		return NewStateConflictError(q.id,
			fmt.Sprintf("questionnaire %q is already closed", q.id))
	}
	if q.status != QuestionnairePublished {
		return NewStateConflictError(q.id,
			fmt.Sprintf("questionnaire %q is not published", q.id))
	}
	q.status = QuestionnaireClosed
	q.touch()
	return nil
}

func (q *Questionnaire) IsPublished() bool { return q.status == QuestionnairePublished }
func (q *Questionnaire) IsClosed() bool    { return q.status == QuestionnaireClosed }

// IsWithinCollectionPeriod reports whether the questionnaire accepts
// submissions at the given instant. Both window bounds are inclusive.
func (q *Questionnaire) IsWithinCollectionPeriod(now time.Time) bool {
	if !q.IsPublished() || q.collectionStart == nil || q.collectionEnd == nil {
		return false
	}
	return !now.Before(*q.collectionStart) && !now.After(*q.collectionEnd)
}

func (q *Questionnaire) questionByID(questionID string) (*Question, error) {
	for _, question := range q.questions {
		if question.id == questionID {
			return question, nil
		}
	}
	return nil, NewNotFoundError(questionID,
		fmt.Sprintf("question %q not found in questionnaire", questionID))
}

func (q *Questionnaire) Title() string               { return q.title }
func (q *Questionnaire) Description() string         { return q.description }
func (q *Questionnaire) Status() QuestionnaireStatus { return q.status }
func (q *Questionnaire) CollectionStart() *time.Time { return q.collectionStart }
func (q *Questionnaire) CollectionEnd() *time.Time   { return q.collectionEnd }
func (q *Questionnaire) CreatedByUserID() string     { return q.createdByUserID }

// Questions returns the question list in insertion order as a copied slice.
func (q *Questionnaire) Questions() []*Question {
	return append([]*Question(nil), q.questions...)
}

// QuestionByID exposes a single question for read-only use.
func (q *Questionnaire) QuestionByID(questionID string) (*Question, bool) {
	question, err := q.questionByID(questionID)
	return question, err == nil
}

// RestoreQuestionnaire rebuilds a stored questionnaire. It bypasses
// validation and exists for persistence code only.
func RestoreQuestionnaire(
	id, title, description string,
	status QuestionnaireStatus,
	collectionStart, collectionEnd *time.Time,
	createdByUserID string,
	createdAt time.Time,
	updatedAt *time.Time,
	questions []*Question,
) *Questionnaire {
	return &Questionnaire{
		entity:          entity{id: id, createdAt: createdAt, updatedAt: updatedAt},
		title:           title,
		description:     description,
		status:          status,
		collectionStart: collectionStart,
		collectionEnd:   collectionEnd,
		createdByUserID: createdByUserID,
		questions:       questions,
	}
}
