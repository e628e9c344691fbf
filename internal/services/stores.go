package services

import (
	"github.com/surveypipe/surveypipe/internal/domain"
	"github.com/surveypipe/surveypipe/internal/queue"
)

// Store interfaces are declared here, at the consumer site. Lookups return
// (nil, nil) when the row does not exist; services turn that into typed
// not-found errors.

// QuestionnaireStore persists the questionnaire aggregate.
type QuestionnaireStore interface {
	InsertQuestionnaire(q *domain.Questionnaire) error
	// GetQuestionnaire loads the root without its questions.
	GetQuestionnaire(id string) (*domain.Questionnaire, error)
	// GetQuestionnaireWithQuestions loads the full aggregate.
	GetQuestionnaireWithQuestions(id string) (*domain.Questionnaire, error)
	// SaveQuestionnaire persists the root together with its questions and
	// options in one unit; a failure means none of the mutation is visible.
	SaveQuestionnaire(q *domain.Questionnaire) error
	DeleteQuestionnaire(id string) error
	ListQuestionnaires() ([]*domain.Questionnaire, error)
	ListQuestionnairesByCreator(userID string) ([]*domain.Questionnaire, error)
	ListPublishedQuestionnaires() ([]*domain.Questionnaire, error)
}

// SubmissionStore persists the submission aggregate. InsertSubmission must
// enforce the one-submission-per-(questionnaire, respondent) rule
// atomically and return a Duplicate domain error on violation; the
// HasUserSubmitted check is advisory.
type SubmissionStore interface {
	InsertSubmission(s *domain.Submission) error
	GetSubmission(id string) (*domain.Submission, error)
	GetSubmissionWithItems(id string) (*domain.Submission, error)
	// SaveSubmission persists the root together with its items in one unit.
	SaveSubmission(s *domain.Submission) error
	HasUserSubmitted(questionnaireID, userID string) (bool, error)
	ListSubmissionsByUser(userID string) ([]*domain.Submission, error)
	ListSubmissionsByQuestionnaire(questionnaireID string) ([]*domain.Submission, error)
	CountSubmissionsByQuestionnaire(questionnaireID string) (int, error)
}

// UserStore persists users and their credentials. InsertUser returns a
// Duplicate domain error when the email is already registered.
type UserStore interface {
	InsertUser(u *domain.User, passHash []byte) error
	GetUser(id string) (*domain.User, error)
	FindUserByEmail(email string) (*domain.User, []byte, error)
	UpdateUser(u *domain.User) error
	ListUsers() ([]*domain.User, error)
}

// SubmissionPublisher hands an accepted submission to the processing queue.
type SubmissionPublisher interface {
	Publish(msg queue.Message) error
}
