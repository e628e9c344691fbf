package domain

import (
	"fmt"
	"strings"
)

const (
	optionTextMinLength = 1
	optionTextMaxLength = 200
	optionOrderMin      = 1
	optionOrderMax      = 100
)

// Option is an answer choice of a multiple-choice question. It has no
// lifecycle of its own: only Question code creates or removes options.
type Option struct {
	entity
	questionID string
	text       string
	order      int
}

// OptionInput carries the caller-supplied fields for a new option.
type OptionInput struct {
	Text  string
	Order int
}

func newOption(questionID, text string, order int) (*Option, error) {
	trimmed, err := validateOptionText(questionID, text)
	if err != nil {
		return nil, err
	}
	if order < optionOrderMin || order > optionOrderMax {
		return nil, NewValidationError(questionID,
			fmt.Sprintf("option order must be between %d and %d", optionOrderMin, optionOrderMax))
	}
	o := &Option{entity: newEntity(), questionID: questionID, text: trimmed, order: order}
	return o, nil
}

func validateOptionText(questionID, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < optionTextMinLength {
		return "", NewValidationError(questionID, "option text cannot be empty")
	}
	if len(trimmed) > optionTextMaxLength {
		return "", NewValidationError(questionID,
			fmt.Sprintf("option text cannot exceed %d characters", optionTextMaxLength))
	}
	return trimmed, nil
}

func (o *Option) QuestionID() string { return o.questionID }
func (o *Option) Text() string       { return o.text }
func (o *Option) Order() int         { return o.order }

// RestoreOption rebuilds a stored option. It bypasses validation and exists
// for persistence code only.
func RestoreOption(id, questionID, text string, order int) *Option {
	return &Option{
		entity:     entity{id: id},
		questionID: questionID,
		text:       text,
		order:      order,
	}
}
