package domain

import (
	"fmt"
	"strings"
)

const (
	questionTextMinLength = 3
	questionTextMaxLength = 500
	minOptionsForPublish  = 2
)

// Question belongs to exactly one Questionnaire and is mutated only through
// the aggregate root's methods.
type Question struct {
	entity
	questionnaireID  string
	text             string
	isRequired       bool
	isMultipleChoice bool
	options          []*Option
}

func newQuestion(questionnaireID, text string, isRequired, isMultipleChoice bool) (*Question, error) {
	q := &Question{
		entity:           newEntity(),
		questionnaireID:  questionnaireID,
		isRequired:       isRequired,
		isMultipleChoice: isMultipleChoice,
	}
	if err := q.setText(text); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Question) setText(text string) error {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < questionTextMinLength {
		return NewValidationError(q.id,
			fmt.Sprintf("question text must be at least %d characters", questionTextMinLength))
	}
	if len(trimmed) > questionTextMaxLength {
		return NewValidationError(q.id,
			fmt.Sprintf("question text cannot exceed %d characters", questionTextMaxLength))
	}
	q.text = trimmed
	return nil
}

// addOptions appends the given options after validating the whole batch
// against the existing set and against itself. On any failure the option
// set is left unchanged.
func (q *Question) addOptions(inputs []OptionInput) error {
	if !q.isMultipleChoice {
		return NewValidationError(q.id, "cannot add options to a non-multiple-choice question")
	}
	if len(inputs) == 0 {
		return NewValidationError(q.id, "at least one option is required")
	}

	pending := make([]*Option, 0, len(inputs))
	for _, in := range inputs {
		opt, err := newOption(q.id, in.Text, in.Order)
		if err != nil {
			return err
		}
		for _, existing := range append(q.options, pending...) {
			if existing.order == opt.order {
				return NewDuplicateError(q.id,
					fmt.Sprintf("option with order %d already exists", opt.order))
			}
			if strings.EqualFold(existing.text, opt.text) {
				return NewDuplicateError(q.id,
					fmt.Sprintf("option %q already exists", opt.text))
			}
		}
		pending = append(pending, opt)
	}

	q.options = append(q.options, pending...)
	return nil
}

func (q *Question) removeOption(optionID string) error {
	for i, opt := range q.options {
		if opt.id == optionID {
			q.options = append(q.options[:i], q.options[i+1:]...)
			return nil
		}
	}
	return NewNotFoundError(optionID, fmt.Sprintf("option %q not found", optionID))
}

// readyForPublication reports whether the question may be published. The
// returned error names this question.
func (q *Question) readyForPublication() error {
	if q.isMultipleChoice && len(q.options) < minOptionsForPublish {
		return NewStateConflictError(q.id,
			fmt.Sprintf("question %q is a multiple-choice question and needs at least %d options", q.id, minOptionsForPublish))
	}
	return nil
}

func (q *Question) QuestionnaireID() string { return q.questionnaireID }
func (q *Question) Text() string            { return q.text }
func (q *Question) IsRequired() bool        { return q.isRequired }
func (q *Question) IsMultipleChoice() bool  { return q.isMultipleChoice }

// Options returns the option set in insertion order. The slice is a copy;
// options themselves are immutable outside this package.
func (q *Question) Options() []*Option {
	return append([]*Option(nil), q.options...)
}

func (q *Question) OptionByID(optionID string) (*Option, bool) {
	for _, opt := range q.options {
		if opt.id == optionID {
			return opt, true
		}
	}
	return nil, false
}

// RestoreQuestion rebuilds a stored question. It bypasses validation and
// exists for persistence code only.
func RestoreQuestion(id, questionnaireID, text string, isRequired, isMultipleChoice bool, options []*Option) *Question {
	return &Question{
		entity:           entity{id: id},
		questionnaireID:  questionnaireID,
		text:             text,
		isRequired:       isRequired,
		isMultipleChoice: isMultipleChoice,
		options:          options,
	}
}
