package services

import (
	"fmt"
	"time"

	"github.com/surveypipe/surveypipe/internal/domain"
)

// QuestionnaireService orchestrates questionnaire management: it resolves
// the caller, enforces the administrator/ownership rules, and delegates
// every structural mutation to the aggregate.
type QuestionnaireService struct {
	questionnaires QuestionnaireStore
	users          UserStore
}

func NewQuestionnaireService(questionnaires QuestionnaireStore, users UserStore) *QuestionnaireService {
	return &QuestionnaireService{questionnaires: questionnaires, users: users}
}

// QuestionInput carries the fields for a new question. Options are only
// consulted when IsMultipleChoice is set.
type QuestionInput struct {
	Text             string
	IsRequired       bool
	IsMultipleChoice bool
	Options          []domain.OptionInput
}

func (s *QuestionnaireService) Create(title, description, userID string) (*domain.Questionnaire, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdministrator() {
		return nil, domain.NewAuthorizationError(userID, "only administrators can create questionnaires")
	}
	questionnaire, err := domain.NewQuestionnaire(title, description, userID)
	if err != nil {
		return nil, err
	}
	if err := s.questionnaires.InsertQuestionnaire(questionnaire); err != nil {
		return nil, err
	}
	return questionnaire, nil
}

func (s *QuestionnaireService) Get(id string) (*domain.Questionnaire, error) {
	return s.loadQuestionnaire(id)
}

func (s *QuestionnaireService) GetWithQuestions(id string) (*domain.Questionnaire, error) {
	return s.loadQuestionnaireWithQuestions(id)
}

func (s *QuestionnaireService) List() ([]*domain.Questionnaire, error) {
	return s.questionnaires.ListQuestionnaires()
}

func (s *QuestionnaireService) ListByCreator(userID string) ([]*domain.Questionnaire, error) {
	return s.questionnaires.ListQuestionnairesByCreator(userID)
}

func (s *QuestionnaireService) ListPublished() ([]*domain.Questionnaire, error) {
	return s.questionnaires.ListPublishedQuestionnaires()
}

func (s *QuestionnaireService) Update(id, title, description, userID string) (*domain.Questionnaire, error) {
	questionnaire, err := s.loadQuestionnaire(id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(questionnaire, userID); err != nil {
		return nil, err
	}
	if err := questionnaire.Update(title, description); err != nil {
		return nil, err
	}
	if err := s.questionnaires.SaveQuestionnaire(questionnaire); err != nil {
		return nil, err
	}
	return questionnaire, nil
}

func (s *QuestionnaireService) Delete(id, userID string) error {
	questionnaire, err := s.loadQuestionnaire(id)
	if err != nil {
		return err
	}
	if err := s.requireOwnership(questionnaire, userID); err != nil {
		return err
	}
	return s.questionnaires.DeleteQuestionnaire(id)
}

func (s *QuestionnaireService) Publish(id string, collectionStart, collectionEnd time.Time, userID string) (*domain.Questionnaire, error) {
	questionnaire, err := s.loadQuestionnaireWithQuestions(id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(questionnaire, userID); err != nil {
		return nil, err
	}
	if err := questionnaire.Publish(collectionStart, collectionEnd); err != nil {
		return nil, err
	}
	if err := s.questionnaires.SaveQuestionnaire(questionnaire); err != nil {
		return nil, err
	}
	return questionnaire, nil
}

func (s *QuestionnaireService) Close(id, userID string) (*domain.Questionnaire, error) {
	questionnaire, err := s.loadQuestionnaire(id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(questionnaire, userID); err != nil {
		return nil, err
	}
	if err := questionnaire.Close(); err != nil {
		return nil, err
	}
	if err := s.questionnaires.SaveQuestionnaire(questionnaire); err != nil {
		return nil, err
	}
	return questionnaire, nil
}

// AddQuestion appends a question, with its options in one atomic step when
// the input is multiple-choice and carries options.
func (s *QuestionnaireService) AddQuestion(questionnaireID string, input QuestionInput, userID string) (string, error) {
	questionnaire, err := s.loadQuestionnaireWithQuestions(questionnaireID)
	if err != nil {
		return "", err
	}
	if err := s.requireOwnership(questionnaire, userID); err != nil {
		return "", err
	}

	var questionID string
	if input.IsMultipleChoice && len(input.Options) > 0 {
		questionID, err = questionnaire.AddQuestionWithOptions(input.Text, input.IsRequired, input.Options)
	} else {
		questionID, err = questionnaire.AddQuestion(input.Text, input.IsRequired, input.IsMultipleChoice)
	}
	if err != nil {
		return "", err
	}
	if err := s.questionnaires.SaveQuestionnaire(questionnaire); err != nil {
		return "", err
	}
	return questionID, nil
}

func (s *QuestionnaireService) UpdateQuestion(questionnaireID, questionID, text, userID string) error {
	return s.mutate(questionnaireID, userID, func(q *domain.Questionnaire) error {
		return q.UpdateQuestion(questionID, text)
	})
}

func (s *QuestionnaireService) RemoveQuestion(questionnaireID, questionID, userID string) error {
	return s.mutate(questionnaireID, userID, func(q *domain.Questionnaire) error {
		return q.RemoveQuestion(questionID)
	})
}

func (s *QuestionnaireService) AddOptionsToQuestion(questionnaireID, questionID string, options []domain.OptionInput, userID string) error {
	return s.mutate(questionnaireID, userID, func(q *domain.Questionnaire) error {
		return q.AddOptionsToQuestion(questionID, options)
	})
}

func (s *QuestionnaireService) RemoveOptionFromQuestion(questionnaireID, questionID, optionID, userID string) error {
	return s.mutate(questionnaireID, userID, func(q *domain.Questionnaire) error {
		return q.RemoveOptionFromQuestion(questionID, optionID)
	})
}

func (s *QuestionnaireService) mutate(questionnaireID, userID string, op func(*domain.Questionnaire) error) error {
	questionnaire, err := s.loadQuestionnaireWithQuestions(questionnaireID)
	if err != nil {
		return err
	}
	if err := s.requireOwnership(questionnaire, userID); err != nil {
		return err
	}
	if err := op(questionnaire); err != nil {
		return err
	}
	return s.questionnaires.SaveQuestionnaire(questionnaire)
}

func (s *QuestionnaireService) loadQuestionnaire(id string) (*domain.Questionnaire, error) {
	questionnaire, err := s.questionnaires.GetQuestionnaire(id)
	if err != nil {
		return nil, err
	}
	if questionnaire == nil {
		return nil, domain.NewNotFoundError(id, fmt.Sprintf("questionnaire %q not found", id))
	}
	return questionnaire, nil
}

func (s *QuestionnaireService) loadQuestionnaireWithQuestions(id string) (*domain.Questionnaire, error) {
	questionnaire, err := s.questionnaires.GetQuestionnaireWithQuestions(id)
	if err != nil {
		return nil, err
	}
	if questionnaire == nil {
		return nil, domain.NewNotFoundError(id, fmt.Sprintf("questionnaire %q not found", id))
	}
	return questionnaire, nil
}

func (s *QuestionnaireService) loadUser(userID string) (*domain.User, error) {
	user, err := s.users.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewAuthorizationError(userID, fmt.Sprintf("user %q not found", userID))
	}
	return user, nil
}

// requireOwnership allows the questionnaire's creator and any administrator.
func (s *QuestionnaireService) requireOwnership(questionnaire *domain.Questionnaire, userID string) error {
	if questionnaire.CreatedByUserID() == userID {
		return nil
	}
	user, err := s.loadUser(userID)
	if err != nil {
		return err
	}
	if !user.IsAdministrator() {
		return domain.NewAuthorizationError(userID, "not authorized to manage this questionnaire")
	}
	return nil
}
