package db

import (
	"fmt"
	"sort"
	"sync"

	"github.com/surveypipe/surveypipe/internal/domain"
	"github.com/surveypipe/surveypipe/internal/services"
)

// MemoryStore is an in-memory implementation of the store interfaces,
// used for tests and for running the server without a database file.
// Aggregates are deep-copied on the way in and out so callers can never
// mutate stored state through a shared pointer.
type MemoryStore struct {
	mu             sync.RWMutex
	questionnaires map[string]*domain.Questionnaire
	submissions    map[string]*domain.Submission
	users          map[string]*domain.User
	passHashes     map[string][]byte
}

var (
	_ services.QuestionnaireStore = (*MemoryStore)(nil)
	_ services.SubmissionStore    = (*MemoryStore)(nil)
	_ services.UserStore          = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		questionnaires: make(map[string]*domain.Questionnaire),
		submissions:    make(map[string]*domain.Submission),
		users:          make(map[string]*domain.User),
		passHashes:     make(map[string][]byte),
	}
}

func cloneQuestionnaire(q *domain.Questionnaire, withQuestions bool) *domain.Questionnaire {
	var questions []*domain.Question
	if withQuestions {
		for _, question := range q.Questions() {
			var options []*domain.Option
			for _, option := range question.Options() {
				options = append(options, domain.RestoreOption(
					option.ID(), question.ID(), option.Text(), option.Order()))
			}
			questions = append(questions, domain.RestoreQuestion(
				question.ID(), q.ID(), question.Text(),
				question.IsRequired(), question.IsMultipleChoice(), options))
		}
	}
	return domain.RestoreQuestionnaire(
		q.ID(), q.Title(), q.Description(), q.Status(),
		q.CollectionStart(), q.CollectionEnd(),
		q.CreatedByUserID(), q.CreatedAt(), q.UpdatedAt(), questions)
}

func cloneSubmission(s *domain.Submission, withItems bool) *domain.Submission {
	var items []*domain.SubmissionItem
	if withItems {
		for _, item := range s.Items() {
			items = append(items, domain.RestoreSubmissionItem(
				item.ID(), s.ID(), item.QuestionID(), item.Answer(), item.SelectedOptionID()))
		}
	}
	return domain.RestoreSubmission(
		s.ID(), s.QuestionnaireID(), s.RespondentUserID(), s.SubmittedAt(),
		s.Status(), s.FailureReason(), s.CreatedAt(), s.UpdatedAt(), items)
}

func cloneUser(u *domain.User) *domain.User {
	return domain.RestoreUser(u.ID(), u.Name(), u.Email(), u.Type(), u.IsActive())
}

// ==================== questionnaires ====================

func (m *MemoryStore) InsertQuestionnaire(q *domain.Questionnaire) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questionnaires[q.ID()] = cloneQuestionnaire(q, true)
	return nil
}

func (m *MemoryStore) SaveQuestionnaire(q *domain.Questionnaire) error {
	return m.InsertQuestionnaire(q)
}

func (m *MemoryStore) GetQuestionnaire(id string) (*domain.Questionnaire, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questionnaires[id]
	if !ok {
		return nil, nil
	}
	return cloneQuestionnaire(q, false), nil
}

func (m *MemoryStore) GetQuestionnaireWithQuestions(id string) (*domain.Questionnaire, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questionnaires[id]
	if !ok {
		return nil, nil
	}
	return cloneQuestionnaire(q, true), nil
}

func (m *MemoryStore) DeleteQuestionnaire(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.questionnaires, id)
	return nil
}

func (m *MemoryStore) ListQuestionnaires() ([]*domain.Questionnaire, error) {
	return m.listQuestionnaires(func(*domain.Questionnaire) bool { return true })
}

func (m *MemoryStore) ListQuestionnairesByCreator(userID string) ([]*domain.Questionnaire, error) {
	return m.listQuestionnaires(func(q *domain.Questionnaire) bool {
		return q.CreatedByUserID() == userID
	})
}

func (m *MemoryStore) ListPublishedQuestionnaires() ([]*domain.Questionnaire, error) {
	return m.listQuestionnaires(func(q *domain.Questionnaire) bool {
		return q.Status() == domain.QuestionnairePublished
	})
}

func (m *MemoryStore) listQuestionnaires(keep func(*domain.Questionnaire) bool) ([]*domain.Questionnaire, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Questionnaire
	for _, q := range m.questionnaires {
		if keep(q) {
			out = append(out, cloneQuestionnaire(q, false))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out, nil
}

// ==================== submissions ====================

func (m *MemoryStore) InsertSubmission(s *domain.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Uniqueness check and insert under one lock, mirroring the unique
	// index the SQLite store relies on.
	for _, existing := range m.submissions {
		if existing.QuestionnaireID() == s.QuestionnaireID() &&
			existing.RespondentUserID() == s.RespondentUserID() {
			return domain.NewDuplicateError(s.QuestionnaireID(),
				fmt.Sprintf("user %q has already submitted answers for questionnaire %q",
					s.RespondentUserID(), s.QuestionnaireID()))
		}
	}
	m.submissions[s.ID()] = cloneSubmission(s, true)
	return nil
}

func (m *MemoryStore) SaveSubmission(s *domain.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[s.ID()] = cloneSubmission(s, true)
	return nil
}

func (m *MemoryStore) GetSubmission(id string) (*domain.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.submissions[id]
	if !ok {
		return nil, nil
	}
	return cloneSubmission(s, false), nil
}

func (m *MemoryStore) GetSubmissionWithItems(id string) (*domain.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.submissions[id]
	if !ok {
		return nil, nil
	}
	return cloneSubmission(s, true), nil
}

func (m *MemoryStore) HasUserSubmitted(questionnaireID, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.submissions {
		if s.QuestionnaireID() == questionnaireID && s.RespondentUserID() == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ListSubmissionsByUser(userID string) ([]*domain.Submission, error) {
	return m.listSubmissions(func(s *domain.Submission) bool {
		return s.RespondentUserID() == userID
	})
}

func (m *MemoryStore) ListSubmissionsByQuestionnaire(questionnaireID string) ([]*domain.Submission, error) {
	return m.listSubmissions(func(s *domain.Submission) bool {
		return s.QuestionnaireID() == questionnaireID
	})
}

func (m *MemoryStore) listSubmissions(keep func(*domain.Submission) bool) ([]*domain.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Submission
	for _, s := range m.submissions {
		if keep(s) {
			out = append(out, cloneSubmission(s, false))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt().Before(out[j].SubmittedAt()) })
	return out, nil
}

func (m *MemoryStore) CountSubmissionsByQuestionnaire(questionnaireID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.submissions {
		if s.QuestionnaireID() == questionnaireID {
			n++
		}
	}
	return n, nil
}

// ==================== users ====================

func (m *MemoryStore) InsertUser(u *domain.User, passHash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email() == u.Email() {
			return domain.NewDuplicateError(u.Email(),
				fmt.Sprintf("user with email %q already exists", u.Email()))
		}
	}
	m.users[u.ID()] = cloneUser(u)
	m.passHashes[u.ID()] = append([]byte(nil), passHash...)
	return nil
}

func (m *MemoryStore) GetUser(id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (m *MemoryStore) FindUserByEmail(email string) (*domain.User, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email() == email {
			return cloneUser(u), append([]byte(nil), m.passHashes[u.ID()]...), nil
		}
	}
	return nil, nil, nil
}

func (m *MemoryStore) UpdateUser(u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.users {
		if id != u.ID() && existing.Email() == u.Email() {
			return domain.NewDuplicateError(u.Email(),
				fmt.Sprintf("user with email %q already exists", u.Email()))
		}
	}
	m.users[u.ID()] = cloneUser(u)
	return nil
}

func (m *MemoryStore) ListUsers() ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.User
	for _, u := range m.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email() < out[j].Email() })
	return out, nil
}
