package services

import (
	"fmt"
	"time"

	"github.com/surveypipe/surveypipe/internal/domain"
	"github.com/surveypipe/surveypipe/internal/queue"
)

// AnswerInput is one answer in a create-submission request.
type AnswerInput struct {
	QuestionID       string
	Answer           string
	SelectedOptionID string
}

// SubmissionService runs the synchronous admission path: it gates a
// create-submission request, persists the Pending submission, and enqueues
// the processing message. Item attachment happens later, in the Processor.
type SubmissionService struct {
	submissions    SubmissionStore
	questionnaires QuestionnaireStore
	users          UserStore
	publisher      SubmissionPublisher
	now            func() time.Time
}

func NewSubmissionService(
	submissions SubmissionStore,
	questionnaires QuestionnaireStore,
	users UserStore,
	publisher SubmissionPublisher,
) *SubmissionService {
	return &SubmissionService{
		submissions:    submissions,
		questionnaires: questionnaires,
		users:          users,
		publisher:      publisher,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Create admits a submission. Every check here is a pre-creation gate: any
// failure means no Submission row and no message are ever produced.
func (s *SubmissionService) Create(questionnaireID string, answers []AnswerInput, userID string) (*domain.Submission, error) {
	user, err := s.users.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewAuthorizationError(userID, fmt.Sprintf("user %q not found", userID))
	}
	if !user.IsPublicUser() {
		return nil, domain.NewAuthorizationError(userID, "only public users can submit answers")
	}

	questionnaire, err := s.questionnaires.GetQuestionnaireWithQuestions(questionnaireID)
	if err != nil {
		return nil, err
	}
	if questionnaire == nil {
		return nil, domain.NewNotFoundError(questionnaireID,
			fmt.Sprintf("questionnaire %q not found", questionnaireID))
	}

	if err := s.validateAvailability(questionnaire); err != nil {
		return nil, err
	}

	// Advisory duplicate check; the store's unique constraint on
	// (questionnaire, respondent) is the authoritative guard.
	submitted, err := s.submissions.HasUserSubmitted(questionnaireID, userID)
	if err != nil {
		return nil, err
	}
	if submitted {
		return nil, domain.NewDuplicateError(questionnaireID,
			fmt.Sprintf("user %q has already submitted answers for questionnaire %q", userID, questionnaireID))
	}

	if err := validateAnswers(questionnaire, answers); err != nil {
		return nil, err
	}

	submission, err := domain.NewSubmission(questionnaireID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.submissions.InsertSubmission(submission); err != nil {
		return nil, err
	}

	msg := queue.Message{
		SubmissionID:     submission.ID(),
		QuestionnaireID:  questionnaireID,
		RespondentUserID: userID,
		SubmittedAt:      submission.SubmittedAt(),
		Answers:          make([]queue.Answer, 0, len(answers)),
	}
	for _, a := range answers {
		msg.Answers = append(msg.Answers, queue.Answer{
			QuestionID:       a.QuestionID,
			Answer:           a.Answer,
			SelectedOptionID: a.SelectedOptionID,
		})
	}
	if err := s.publisher.Publish(msg); err != nil {
		return nil, err
	}
	return submission, nil
}

func (s *SubmissionService) Get(id, userID string) (*domain.Submission, error) {
	submission, err := s.submissions.GetSubmission(id)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, domain.NewNotFoundError(id, fmt.Sprintf("submission %q not found", id))
	}
	if err := s.requireSubmissionAccess(submission, userID); err != nil {
		return nil, err
	}
	return submission, nil
}

func (s *SubmissionService) GetWithItems(id, userID string) (*domain.Submission, error) {
	submission, err := s.submissions.GetSubmissionWithItems(id)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, domain.NewNotFoundError(id, fmt.Sprintf("submission %q not found", id))
	}
	if err := s.requireSubmissionAccess(submission, userID); err != nil {
		return nil, err
	}
	return submission, nil
}

func (s *SubmissionService) ListMine(userID string) ([]*domain.Submission, error) {
	return s.submissions.ListSubmissionsByUser(userID)
}

// ListByQuestionnaire returns a questionnaire's submissions to its creator
// or an administrator.
func (s *SubmissionService) ListByQuestionnaire(questionnaireID, userID string) ([]*domain.Submission, error) {
	if err := s.requireQuestionnaireOwnership(questionnaireID, userID); err != nil {
		return nil, err
	}
	return s.submissions.ListSubmissionsByQuestionnaire(questionnaireID)
}

func (s *SubmissionService) CountByQuestionnaire(questionnaireID, userID string) (int, error) {
	if err := s.requireQuestionnaireOwnership(questionnaireID, userID); err != nil {
		return 0, err
	}
	return s.submissions.CountSubmissionsByQuestionnaire(questionnaireID)
}

func (s *SubmissionService) validateAvailability(questionnaire *domain.Questionnaire) error {
	if !questionnaire.IsPublished() {
		return domain.NewUnavailableError(questionnaire.ID(), "questionnaire is not published")
	}
	now := s.now()
	if start := questionnaire.CollectionStart(); start != nil && now.Before(*start) {
		return domain.NewUnavailableError(questionnaire.ID(), "collection period has not started yet")
	}
	if end := questionnaire.CollectionEnd(); end != nil && now.After(*end) {
		return domain.NewUnavailableError(questionnaire.ID(), "collection period has ended")
	}
	return nil
}

// validateAnswers checks the answers against the questionnaire snapshot:
// required coverage, question membership, and option membership for
// multiple-choice answers. Shared with the Processor.
func validateAnswers(questionnaire *domain.Questionnaire, answers []AnswerInput) error {
	answered := make(map[string]AnswerInput, len(answers))
	for _, a := range answers {
		answered[a.QuestionID] = a
	}

	for _, question := range questionnaire.Questions() {
		if question.IsRequired() {
			if _, ok := answered[question.ID()]; !ok {
				return domain.NewValidationError(question.ID(),
					fmt.Sprintf("required question %q was not answered", question.ID()))
			}
		}
	}

	for _, a := range answers {
		question, ok := questionnaire.QuestionByID(a.QuestionID)
		if !ok {
			return domain.NewValidationError(a.QuestionID,
				fmt.Sprintf("question %q not found in questionnaire", a.QuestionID))
		}
		if question.IsMultipleChoice() {
			if a.SelectedOptionID == "" {
				return domain.NewValidationError(question.ID(),
					fmt.Sprintf("question %q requires a selected option", question.ID()))
			}
			if _, ok := question.OptionByID(a.SelectedOptionID); !ok {
				return domain.NewValidationError(question.ID(),
					fmt.Sprintf("option %q is not valid for question %q", a.SelectedOptionID, question.ID()))
			}
		}
	}
	return nil
}

func (s *SubmissionService) requireSubmissionAccess(submission *domain.Submission, userID string) error {
	if submission.RespondentUserID() == userID {
		return nil
	}
	user, err := s.users.GetUser(userID)
	if err != nil {
		return err
	}
	if user == nil || !user.IsAdministrator() {
		return domain.NewAuthorizationError(userID, "not authorized to view this submission")
	}
	return nil
}

func (s *SubmissionService) requireQuestionnaireOwnership(questionnaireID, userID string) error {
	questionnaire, err := s.questionnaires.GetQuestionnaire(questionnaireID)
	if err != nil {
		return err
	}
	if questionnaire == nil {
		return domain.NewNotFoundError(questionnaireID,
			fmt.Sprintf("questionnaire %q not found", questionnaireID))
	}
	if questionnaire.CreatedByUserID() == userID {
		return nil
	}
	user, err := s.users.GetUser(userID)
	if err != nil {
		return err
	}
	if user == nil || !user.IsAdministrator() {
		return domain.NewAuthorizationError(userID, "not authorized to view submissions of this questionnaire")
	}
	return nil
}
