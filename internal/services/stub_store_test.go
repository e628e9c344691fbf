package services

import (
	"github.com/surveypipe/surveypipe/internal/domain"
	"github.com/surveypipe/surveypipe/internal/queue"
)

// stubStore is an in-memory implementation of the store interfaces for
// tests. It hands out the stored aggregates directly and counts writes,
// which is enough to observe what a service persisted.
type stubStore struct {
	questionnaires map[string]*domain.Questionnaire
	submissions    map[string]*domain.Submission
	users          map[string]*domain.User
	passHashes     map[string][]byte

	saveSubmissionCalls int
	insertSubmissionErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		questionnaires: make(map[string]*domain.Questionnaire),
		submissions:    make(map[string]*domain.Submission),
		users:          make(map[string]*domain.User),
		passHashes:     make(map[string][]byte),
	}
}

func (s *stubStore) InsertQuestionnaire(q *domain.Questionnaire) error {
	s.questionnaires[q.ID()] = q
	return nil
}

func (s *stubStore) SaveQuestionnaire(q *domain.Questionnaire) error {
	s.questionnaires[q.ID()] = q
	return nil
}

func (s *stubStore) GetQuestionnaire(id string) (*domain.Questionnaire, error) {
	return s.questionnaires[id], nil
}

func (s *stubStore) GetQuestionnaireWithQuestions(id string) (*domain.Questionnaire, error) {
	return s.questionnaires[id], nil
}

func (s *stubStore) DeleteQuestionnaire(id string) error {
	delete(s.questionnaires, id)
	return nil
}

func (s *stubStore) ListQuestionnaires() ([]*domain.Questionnaire, error) {
	var out []*domain.Questionnaire
	for _, q := range s.questionnaires {
		out = append(out, q)
	}
	return out, nil
}

func (s *stubStore) ListQuestionnairesByCreator(userID string) ([]*domain.Questionnaire, error) {
	var out []*domain.Questionnaire
	for _, q := range s.questionnaires {
		if q.CreatedByUserID() == userID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *stubStore) ListPublishedQuestionnaires() ([]*domain.Questionnaire, error) {
	var out []*domain.Questionnaire
	for _, q := range s.questionnaires {
		if q.Status() == domain.QuestionnairePublished {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *stubStore) InsertSubmission(sub *domain.Submission) error {
	if s.insertSubmissionErr != nil {
		return s.insertSubmissionErr
	}
	s.submissions[sub.ID()] = sub
	return nil
}

func (s *stubStore) SaveSubmission(sub *domain.Submission) error {
	s.saveSubmissionCalls++
	s.submissions[sub.ID()] = sub
	return nil
}

func (s *stubStore) GetSubmission(id string) (*domain.Submission, error) {
	return s.submissions[id], nil
}

func (s *stubStore) GetSubmissionWithItems(id string) (*domain.Submission, error) {
	return s.submissions[id], nil
}

func (s *stubStore) HasUserSubmitted(questionnaireID, userID string) (bool, error) {
	for _, sub := range s.submissions {
		if sub.QuestionnaireID() == questionnaireID && sub.RespondentUserID() == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) ListSubmissionsByUser(userID string) ([]*domain.Submission, error) {
	var out []*domain.Submission
	for _, sub := range s.submissions {
		if sub.RespondentUserID() == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *stubStore) ListSubmissionsByQuestionnaire(questionnaireID string) ([]*domain.Submission, error) {
	var out []*domain.Submission
	for _, sub := range s.submissions {
		if sub.QuestionnaireID() == questionnaireID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *stubStore) CountSubmissionsByQuestionnaire(questionnaireID string) (int, error) {
	subs, _ := s.ListSubmissionsByQuestionnaire(questionnaireID)
	return len(subs), nil
}

func (s *stubStore) InsertUser(u *domain.User, passHash []byte) error {
	s.users[u.ID()] = u
	s.passHashes[u.ID()] = passHash
	return nil
}

func (s *stubStore) GetUser(id string) (*domain.User, error) {
	return s.users[id], nil
}

func (s *stubStore) FindUserByEmail(email string) (*domain.User, []byte, error) {
	for _, u := range s.users {
		if u.Email() == email {
			return u, s.passHashes[u.ID()], nil
		}
	}
	return nil, nil, nil
}

func (s *stubStore) UpdateUser(u *domain.User) error {
	s.users[u.ID()] = u
	return nil
}

func (s *stubStore) ListUsers() ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

// stubPublisher captures enqueued messages.
type stubPublisher struct {
	published  []queue.Message
	publishErr error
}

func (p *stubPublisher) Publish(msg queue.Message) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	p.published = append(p.published, msg)
	return nil
}
