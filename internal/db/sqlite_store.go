package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/surveypipe/surveypipe/internal/domain"
	"github.com/surveypipe/surveypipe/internal/services"
)

// SQLiteStore persists all three aggregates in SQLite. Aggregates are
// written as a whole: root row plus a full rewrite of the child rows, so
// the in-memory aggregate stays the single source of truth.
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ services.QuestionnaireStore = (*SQLiteStore)(nil)
	_ services.SubmissionStore    = (*SQLiteStore)(nil)
	_ services.UserStore          = (*SQLiteStore)(nil)
)

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func int64ToBool(v int64) bool { return v != 0 }

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
		se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// ==================== questionnaires ====================

func (s *SQLiteStore) InsertQuestionnaire(q *domain.Questionnaire) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`INSERT INTO questionnaires
		(id, title, description, status, collection_start, collection_end, created_by_user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID(), q.Title(), q.Description(), string(q.Status()),
		toNullTime(q.CollectionStart()), toNullTime(q.CollectionEnd()),
		q.CreatedByUserID(), q.CreatedAt(), toNullTime(q.UpdatedAt()))
	if err != nil {
		return fmt.Errorf("insert questionnaire: %w", err)
	}
	if err := insertQuestions(tx, q); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) SaveQuestionnaire(q *domain.Questionnaire) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`UPDATE questionnaires
		SET title = ?, description = ?, status = ?, collection_start = ?, collection_end = ?, updated_at = ?
		WHERE id = ?`,
		q.Title(), q.Description(), string(q.Status()),
		toNullTime(q.CollectionStart()), toNullTime(q.CollectionEnd()),
		toNullTime(q.UpdatedAt()), q.ID())
	if err != nil {
		return fmt.Errorf("update questionnaire: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM questions WHERE questionnaire_id = ?`, q.ID()); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}
	if err := insertQuestions(tx, q); err != nil {
		return err
	}
	return tx.Commit()
}

func insertQuestions(tx *sql.Tx, q *domain.Questionnaire) error {
	for pos, question := range q.Questions() {
		_, err := tx.Exec(`INSERT INTO questions
			(id, questionnaire_id, text, is_required, is_multiple_choice, position)
			VALUES (?, ?, ?, ?, ?, ?)`,
			question.ID(), q.ID(), question.Text(),
			boolToInt64(question.IsRequired()), boolToInt64(question.IsMultipleChoice()), pos)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
		for _, option := range question.Options() {
			_, err := tx.Exec(`INSERT INTO options (id, question_id, text, ord) VALUES (?, ?, ?, ?)`,
				option.ID(), question.ID(), option.Text(), option.Order())
			if err != nil {
				return fmt.Errorf("insert option: %w", err)
			}
		}
	}
	return nil
}

func (s *SQLiteStore) GetQuestionnaire(id string) (*domain.Questionnaire, error) {
	row := s.db.QueryRow(`SELECT id, title, description, status, collection_start, collection_end,
		created_by_user_id, created_at, updated_at FROM questionnaires WHERE id = ?`, id)
	return scanQuestionnaire(row, nil)
}

func (s *SQLiteStore) GetQuestionnaireWithQuestions(id string) (*domain.Questionnaire, error) {
	questions, err := s.loadQuestions(id)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRow(`SELECT id, title, description, status, collection_start, collection_end,
		created_by_user_id, created_at, updated_at FROM questionnaires WHERE id = ?`, id)
	return scanQuestionnaire(row, questions)
}

func (s *SQLiteStore) loadQuestions(questionnaireID string) ([]*domain.Question, error) {
	rows, err := s.db.Query(`SELECT id, text, is_required, is_multiple_choice
		FROM questions WHERE questionnaire_id = ? ORDER BY position`, questionnaireID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []*domain.Question
	for rows.Next() {
		var (
			id, text             string
			required, multchoice int64
		)
		if err := rows.Scan(&id, &text, &required, &multchoice); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		options, err := s.loadOptions(id)
		if err != nil {
			return nil, err
		}
		questions = append(questions, domain.RestoreQuestion(
			id, questionnaireID, text, int64ToBool(required), int64ToBool(multchoice), options))
	}
	return questions, rows.Err()
}

func (s *SQLiteStore) loadOptions(questionID string) ([]*domain.Option, error) {
	rows, err := s.db.Query(`SELECT id, text, ord FROM options WHERE question_id = ? ORDER BY ord`, questionID)
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}
	defer rows.Close()

	var options []*domain.Option
	for rows.Next() {
		var (
			id, text string
			ord      int
		)
		if err := rows.Scan(&id, &text, &ord); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		options = append(options, domain.RestoreOption(id, questionID, text, ord))
	}
	return options, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestionnaire(row rowScanner, questions []*domain.Question) (*domain.Questionnaire, error) {
	var (
		id, title, description, status, createdBy string
		start, end, updatedAt                     sql.NullTime
		createdAt                                 time.Time
	)
	err := row.Scan(&id, &title, &description, &status, &start, &end, &createdBy, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan questionnaire: %w", err)
	}
	return domain.RestoreQuestionnaire(
		id, title, description, domain.QuestionnaireStatus(status),
		fromNullTime(start), fromNullTime(end),
		createdBy, createdAt, fromNullTime(updatedAt), questions), nil
}

func (s *SQLiteStore) DeleteQuestionnaire(id string) error {
	_, err := s.db.Exec(`DELETE FROM questionnaires WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) ListQuestionnaires() ([]*domain.Questionnaire, error) {
	return s.listQuestionnaires(`SELECT id, title, description, status, collection_start, collection_end,
		created_by_user_id, created_at, updated_at FROM questionnaires ORDER BY created_at`)
}

func (s *SQLiteStore) ListQuestionnairesByCreator(userID string) ([]*domain.Questionnaire, error) {
	return s.listQuestionnaires(`SELECT id, title, description, status, collection_start, collection_end,
		created_by_user_id, created_at, updated_at FROM questionnaires
		WHERE created_by_user_id = ? ORDER BY created_at`, userID)
}

func (s *SQLiteStore) ListPublishedQuestionnaires() ([]*domain.Questionnaire, error) {
	return s.listQuestionnaires(`SELECT id, title, description, status, collection_start, collection_end,
		created_by_user_id, created_at, updated_at FROM questionnaires
		WHERE status = ? ORDER BY created_at`, string(domain.QuestionnairePublished))
}

func (s *SQLiteStore) listQuestionnaires(query string, args ...any) ([]*domain.Questionnaire, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questionnaires: %w", err)
	}
	defer rows.Close()

	var out []*domain.Questionnaire
	for rows.Next() {
		q, err := scanQuestionnaire(rows, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// ==================== submissions ====================

func (s *SQLiteStore) InsertSubmission(sub *domain.Submission) error {
	_, err := s.db.Exec(`INSERT INTO submissions
		(id, questionnaire_id, respondent_user_id, submitted_at, status, failure_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID(), sub.QuestionnaireID(), sub.RespondentUserID(), sub.SubmittedAt(),
		string(sub.Status()), toNullString(sub.FailureReason()),
		sub.CreatedAt(), toNullTime(sub.UpdatedAt()))
	if isUniqueViolation(err) {
		return domain.NewDuplicateError(sub.QuestionnaireID(),
			fmt.Sprintf("user %q has already submitted answers for questionnaire %q",
				sub.RespondentUserID(), sub.QuestionnaireID()))
	}
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveSubmission(sub *domain.Submission) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`UPDATE submissions
		SET status = ?, failure_reason = ?, updated_at = ? WHERE id = ?`,
		string(sub.Status()), toNullString(sub.FailureReason()),
		toNullTime(sub.UpdatedAt()), sub.ID())
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM submission_items WHERE submission_id = ?`, sub.ID()); err != nil {
		return fmt.Errorf("clear submission items: %w", err)
	}
	for pos, item := range sub.Items() {
		_, err := tx.Exec(`INSERT INTO submission_items
			(id, submission_id, question_id, answer, selected_option_id, position)
			VALUES (?, ?, ?, ?, ?, ?)`,
			item.ID(), sub.ID(), item.QuestionID(), item.Answer(),
			toNullString(item.SelectedOptionID()), pos)
		if err != nil {
			return fmt.Errorf("insert submission item: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetSubmission(id string) (*domain.Submission, error) {
	row := s.db.QueryRow(`SELECT id, questionnaire_id, respondent_user_id, submitted_at, status,
		failure_reason, created_at, updated_at FROM submissions WHERE id = ?`, id)
	return scanSubmission(row, nil)
}

func (s *SQLiteStore) GetSubmissionWithItems(id string) (*domain.Submission, error) {
	items, err := s.loadItems(id)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRow(`SELECT id, questionnaire_id, respondent_user_id, submitted_at, status,
		failure_reason, created_at, updated_at FROM submissions WHERE id = ?`, id)
	return scanSubmission(row, items)
}

func (s *SQLiteStore) loadItems(submissionID string) ([]*domain.SubmissionItem, error) {
	rows, err := s.db.Query(`SELECT id, question_id, answer, selected_option_id
		FROM submission_items WHERE submission_id = ? ORDER BY position`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("load submission items: %w", err)
	}
	defer rows.Close()

	var items []*domain.SubmissionItem
	for rows.Next() {
		var (
			id, questionID, answer string
			selectedOption         sql.NullString
		)
		if err := rows.Scan(&id, &questionID, &answer, &selectedOption); err != nil {
			return nil, fmt.Errorf("scan submission item: %w", err)
		}
		items = append(items, domain.RestoreSubmissionItem(
			id, submissionID, questionID, answer, selectedOption.String))
	}
	return items, rows.Err()
}

func scanSubmission(row rowScanner, items []*domain.SubmissionItem) (*domain.Submission, error) {
	var (
		id, questionnaireID, respondent, status string
		failureReason                           sql.NullString
		submittedAt, createdAt                  time.Time
		updatedAt                               sql.NullTime
	)
	err := row.Scan(&id, &questionnaireID, &respondent, &submittedAt, &status,
		&failureReason, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan submission: %w", err)
	}
	return domain.RestoreSubmission(
		id, questionnaireID, respondent, submittedAt,
		domain.SubmissionStatus(status), failureReason.String,
		createdAt, fromNullTime(updatedAt), items), nil
}

func (s *SQLiteStore) HasUserSubmitted(questionnaireID, userID string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM submissions
		WHERE questionnaire_id = ? AND respondent_user_id = ?`, questionnaireID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("duplicate check: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListSubmissionsByUser(userID string) ([]*domain.Submission, error) {
	return s.listSubmissions(`SELECT id, questionnaire_id, respondent_user_id, submitted_at, status,
		failure_reason, created_at, updated_at FROM submissions
		WHERE respondent_user_id = ? ORDER BY submitted_at`, userID)
}

func (s *SQLiteStore) ListSubmissionsByQuestionnaire(questionnaireID string) ([]*domain.Submission, error) {
	return s.listSubmissions(`SELECT id, questionnaire_id, respondent_user_id, submitted_at, status,
		failure_reason, created_at, updated_at FROM submissions
		WHERE questionnaire_id = ? ORDER BY submitted_at`, questionnaireID)
}

func (s *SQLiteStore) listSubmissions(query string, args ...any) ([]*domain.Submission, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CountSubmissionsByQuestionnaire(questionnaireID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM submissions WHERE questionnaire_id = ?`, questionnaireID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

// ==================== users ====================

func (s *SQLiteStore) InsertUser(u *domain.User, passHash []byte) error {
	_, err := s.db.Exec(`INSERT INTO users (id, name, email, user_type, is_active, pass_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID(), u.Name(), u.Email(), string(u.Type()), boolToInt64(u.IsActive()),
		passHash, u.CreatedAt(), toNullTime(u.UpdatedAt()))
	if isUniqueViolation(err) {
		return domain.NewDuplicateError(u.Email(),
			fmt.Sprintf("user with email %q already exists", u.Email()))
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUser(id string) (*domain.User, error) {
	row := s.db.QueryRow(`SELECT id, name, email, user_type, is_active FROM users WHERE id = ?`, id)
	u, _, err := scanUser(row, false)
	return u, err
}

func (s *SQLiteStore) FindUserByEmail(email string) (*domain.User, []byte, error) {
	row := s.db.QueryRow(`SELECT id, name, email, user_type, is_active, pass_hash FROM users WHERE email = ?`, email)
	return scanUser(row, true)
}

func scanUser(row rowScanner, withHash bool) (*domain.User, []byte, error) {
	var (
		id, name, email, userType string
		active                    int64
		hash                      []byte
	)
	dest := []any{&id, &name, &email, &userType, &active}
	if withHash {
		dest = append(dest, &hash)
	}
	err := row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("scan user: %w", err)
	}
	return domain.RestoreUser(id, name, email, domain.UserType(userType), int64ToBool(active)), hash, nil
}

func (s *SQLiteStore) UpdateUser(u *domain.User) error {
	_, err := s.db.Exec(`UPDATE users SET name = ?, email = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		u.Name(), u.Email(), boolToInt64(u.IsActive()), toNullTime(u.UpdatedAt()), u.ID())
	if isUniqueViolation(err) {
		return domain.NewDuplicateError(u.Email(),
			fmt.Sprintf("user with email %q already exists", u.Email()))
	}
	return err
}

func (s *SQLiteStore) ListUsers() ([]*domain.User, error) {
	rows, err := s.db.Query(`SELECT id, name, email, user_type, is_active FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		u, _, err := scanUser(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
