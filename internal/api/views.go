package api

import (
	"time"

	"github.com/surveypipe/surveypipe/internal/domain"
)

// JSON projections of the domain aggregates. Child collections are only
// present when the handler loaded the full aggregate.

type userView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UserType string `json:"userType"`
	IsActive bool   `json:"isActive"`
}

func toUserView(u *domain.User) userView {
	return userView{
		ID:       u.ID(),
		Name:     u.Name(),
		Email:    u.Email(),
		UserType: string(u.Type()),
		IsActive: u.IsActive(),
	}
}

type optionView struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

type questionView struct {
	ID               string       `json:"id"`
	Text             string       `json:"text"`
	IsRequired       bool         `json:"isRequired"`
	IsMultipleChoice bool         `json:"isMultipleChoice"`
	Options          []optionView `json:"options"`
}

type questionnaireView struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Status          string         `json:"status"`
	CollectionStart *time.Time     `json:"collectionStart,omitempty"`
	CollectionEnd   *time.Time     `json:"collectionEnd,omitempty"`
	CreatedByUserID string         `json:"createdByUserId"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       *time.Time     `json:"updatedAt,omitempty"`
	Questions       []questionView `json:"questions,omitempty"`
}

func toQuestionnaireView(q *domain.Questionnaire, withQuestions bool) questionnaireView {
	view := questionnaireView{
		ID:              q.ID(),
		Title:           q.Title(),
		Description:     q.Description(),
		Status:          string(q.Status()),
		CollectionStart: q.CollectionStart(),
		CollectionEnd:   q.CollectionEnd(),
		CreatedByUserID: q.CreatedByUserID(),
		CreatedAt:       q.CreatedAt(),
		UpdatedAt:       q.UpdatedAt(),
	}
	if !withQuestions {
		return view
	}
	view.Questions = make([]questionView, 0, len(q.Questions()))
	for _, question := range q.Questions() {
		options := make([]optionView, 0, len(question.Options()))
		for _, option := range question.Options() {
			options = append(options, optionView{ID: option.ID(), Text: option.Text(), Order: option.Order()})
		}
		view.Questions = append(view.Questions, questionView{
			ID:               question.ID(),
			Text:             question.Text(),
			IsRequired:       question.IsRequired(),
			IsMultipleChoice: question.IsMultipleChoice(),
			Options:          options,
		})
	}
	return view
}

func toQuestionnaireViews(qs []*domain.Questionnaire) []questionnaireView {
	out := make([]questionnaireView, 0, len(qs))
	for _, q := range qs {
		out = append(out, toQuestionnaireView(q, false))
	}
	return out
}

type submissionItemView struct {
	ID               string `json:"id"`
	QuestionID       string `json:"questionId"`
	Answer           string `json:"answer"`
	SelectedOptionID string `json:"selectedOptionId,omitempty"`
}

type submissionView struct {
	ID               string               `json:"id"`
	QuestionnaireID  string               `json:"questionnaireId"`
	RespondentUserID string               `json:"respondentUserId"`
	SubmittedAt      time.Time            `json:"submittedAt"`
	Status           string               `json:"status"`
	FailureReason    string               `json:"failureReason,omitempty"`
	Items            []submissionItemView `json:"items,omitempty"`
}

func toSubmissionView(s *domain.Submission, withItems bool) submissionView {
	view := submissionView{
		ID:               s.ID(),
		QuestionnaireID:  s.QuestionnaireID(),
		RespondentUserID: s.RespondentUserID(),
		SubmittedAt:      s.SubmittedAt(),
		Status:           string(s.Status()),
		FailureReason:    s.FailureReason(),
	}
	if !withItems {
		return view
	}
	view.Items = make([]submissionItemView, 0, len(s.Items()))
	for _, item := range s.Items() {
		view.Items = append(view.Items, submissionItemView{
			ID:               item.ID(),
			QuestionID:       item.QuestionID(),
			Answer:           item.Answer(),
			SelectedOptionID: item.SelectedOptionID(),
		})
	}
	return view
}

func toSubmissionViews(subs []*domain.Submission) []submissionView {
	out := make([]submissionView, 0, len(subs))
	for _, s := range subs {
		out = append(out, toSubmissionView(s, false))
	}
	return out
}
