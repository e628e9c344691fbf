package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveypipe/surveypipe/internal/domain"
)

var (
	collectionStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	collectionEnd   = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	duringWindow    = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
)

// submissionFixture is a store populated with an admin-owned published
// questionnaire (one required free-text question, one multiple-choice
// question) and a public respondent.
type submissionFixture struct {
	store      *stubStore
	publisher  *stubPublisher
	service    *SubmissionService
	admin      *domain.User
	respondent *domain.User
	qnr        *domain.Questionnaire
	textQID    string
	choiceQID  string
	optionID   string
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	store := newStubStore()
	publisher := &stubPublisher{}

	admin, err := domain.NewAdministrator("Morgan Admin", "morgan@example.com")
	require.NoError(t, err)
	respondent, err := domain.NewPublicUser("Jordan Respondent", "jordan@example.com")
	require.NoError(t, err)
	store.users[admin.ID()] = admin
	store.users[respondent.ID()] = respondent

	qnr, err := domain.NewQuestionnaire("Customer Feedback", "How did we do?", admin.ID())
	require.NoError(t, err)
	textQID, err := qnr.AddQuestion("What went well?", true, false)
	require.NoError(t, err)
	choiceQID, err := qnr.AddQuestionWithOptions("Overall rating", false, []domain.OptionInput{
		{Text: "Good", Order: 1},
		{Text: "Bad", Order: 2},
	})
	require.NoError(t, err)
	require.NoError(t, qnr.Publish(collectionStart, collectionEnd))
	store.questionnaires[qnr.ID()] = qnr

	question, ok := qnr.QuestionByID(choiceQID)
	require.True(t, ok)
	optionID := question.Options()[0].ID()

	service := NewSubmissionService(store, store, store, publisher)
	service.now = func() time.Time { return duringWindow }

	return &submissionFixture{
		store:      store,
		publisher:  publisher,
		service:    service,
		admin:      admin,
		respondent: respondent,
		qnr:        qnr,
		textQID:    textQID,
		choiceQID:  choiceQID,
		optionID:   optionID,
	}
}

func (f *submissionFixture) validAnswers() []AnswerInput {
	return []AnswerInput{
		{QuestionID: f.textQID, Answer: "The response time"},
		{QuestionID: f.choiceQID, Answer: "Good", SelectedOptionID: f.optionID},
	}
}

func TestCreateSubmission(t *testing.T) {
	f := newSubmissionFixture(t)

	submission, err := f.service.Create(f.qnr.ID(), f.validAnswers(), f.respondent.ID())
	require.NoError(t, err)

	assert.Equal(t, domain.SubmissionPending, submission.Status())
	assert.Empty(t, submission.Items(), "items are attached by the processor, not at admission")
	assert.Contains(t, f.store.submissions, submission.ID())

	require.Len(t, f.publisher.published, 1)
	msg := f.publisher.published[0]
	assert.Equal(t, submission.ID(), msg.SubmissionID)
	assert.Equal(t, f.qnr.ID(), msg.QuestionnaireID)
	assert.Equal(t, f.respondent.ID(), msg.RespondentUserID)
	require.Len(t, msg.Answers, 2)
	assert.Equal(t, f.optionID, msg.Answers[1].SelectedOptionID)
}

func TestCreateSubmissionAdmissionGates(t *testing.T) {
	t.Run("administrators cannot respond", func(t *testing.T) {
		f := newSubmissionFixture(t)
		_, err := f.service.Create(f.qnr.ID(), f.validAnswers(), f.admin.ID())
		assert.True(t, domain.IsKind(err, domain.KindAuthorization), "%v", err)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newSubmissionFixture(t)
		_, err := f.service.Create(f.qnr.ID(), f.validAnswers(), "ghost")
		assert.True(t, domain.IsKind(err, domain.KindAuthorization), "%v", err)
	})

	t.Run("unknown questionnaire", func(t *testing.T) {
		f := newSubmissionFixture(t)
		_, err := f.service.Create("missing", f.validAnswers(), f.respondent.ID())
		assert.True(t, domain.IsKind(err, domain.KindNotFound), "%v", err)
	})

	t.Run("draft questionnaire", func(t *testing.T) {
		f := newSubmissionFixture(t)
		draft, err := domain.NewQuestionnaire("Draft Survey", "Not yet open", f.admin.ID())
		require.NoError(t, err)
		f.store.questionnaires[draft.ID()] = draft
		_, err = f.service.Create(draft.ID(), nil, f.respondent.ID())
		assert.True(t, domain.IsKind(err, domain.KindUnavailable), "%v", err)
	})

	t.Run("before collection window", func(t *testing.T) {
		f := newSubmissionFixture(t)
		f.service.now = func() time.Time { return collectionStart.Add(-time.Hour) }
		_, err := f.service.Create(f.qnr.ID(), f.validAnswers(), f.respondent.ID())
		assert.True(t, domain.IsKind(err, domain.KindUnavailable), "%v", err)
	})

	t.Run("after collection window", func(t *testing.T) {
		f := newSubmissionFixture(t)
		f.service.now = func() time.Time { return collectionEnd.Add(time.Hour) }
		_, err := f.service.Create(f.qnr.ID(), f.validAnswers(), f.respondent.ID())
		assert.True(t, domain.IsKind(err, domain.KindUnavailable), "%v", err)
	})

	t.Run("duplicate submission", func(t *testing.T) {
		f := newSubmissionFixture(t)
		_, err := f.service.Create(f.qnr.ID(), f.validAnswers(), f.respondent.ID())
		require.NoError(t, err)
		_, err = f.service.Create(f.qnr.ID(), f.validAnswers(), f.respondent.ID())
		assert.True(t, domain.IsKind(err, domain.KindDuplicate), "%v", err)
		assert.Len(t, f.store.submissions, 1)
		assert.Len(t, f.publisher.published, 1)
	})

	t.Run("missing required answer", func(t *testing.T) {
		f := newSubmissionFixture(t)
		answers := []AnswerInput{{QuestionID: f.choiceQID, Answer: "Good", SelectedOptionID: f.optionID}}
		_, err := f.service.Create(f.qnr.ID(), answers, f.respondent.ID())
		assert.True(t, domain.IsKind(err, domain.KindValidation), "%v", err)
		assert.Empty(t, f.store.submissions, "a failed gate must not persist anything")
		assert.Empty(t, f.publisher.published)
	})

	t.Run("answer for unknown question", func(t *testing.T) {
		f := newSubmissionFixture(t)
		answers := append(f.validAnswers(), AnswerInput{QuestionID: "stray", Answer: "x"})
		_, err := f.service.Create(f.qnr.ID(), answers, f.respondent.ID())
		assert.True(t, domain.IsKind(err, domain.KindValidation), "%v", err)
	})

	t.Run("multiple choice without option", func(t *testing.T) {
		f := newSubmissionFixture(t)
		answers := []AnswerInput{
			{QuestionID: f.textQID, Answer: "Fine"},
			{QuestionID: f.choiceQID, Answer: "Good"},
		}
		_, err := f.service.Create(f.qnr.ID(), answers, f.respondent.ID())
		assert.True(t, domain.IsKind(err, domain.KindValidation), "%v", err)
	})

	t.Run("multiple choice with foreign option", func(t *testing.T) {
		f := newSubmissionFixture(t)
		answers := []AnswerInput{
			{QuestionID: f.textQID, Answer: "Fine"},
			{QuestionID: f.choiceQID, Answer: "Good", SelectedOptionID: "not-an-option"},
		}
		_, err := f.service.Create(f.qnr.ID(), answers, f.respondent.ID())
		assert.True(t, domain.IsKind(err, domain.KindValidation), "%v", err)
	})
}

func TestGetSubmissionAccess(t *testing.T) {
	f := newSubmissionFixture(t)
	submission, err := f.service.Create(f.qnr.ID(), f.validAnswers(), f.respondent.ID())
	require.NoError(t, err)

	_, err = f.service.Get(submission.ID(), f.respondent.ID())
	assert.NoError(t, err, "respondent can read their own submission")

	_, err = f.service.Get(submission.ID(), f.admin.ID())
	assert.NoError(t, err, "administrators can read any submission")

	other, err := domain.NewPublicUser("Sam Other", "sam@example.com")
	require.NoError(t, err)
	f.store.users[other.ID()] = other
	_, err = f.service.Get(submission.ID(), other.ID())
	assert.True(t, domain.IsKind(err, domain.KindAuthorization), "%v", err)

	_, err = f.service.Get("missing", f.respondent.ID())
	assert.True(t, domain.IsKind(err, domain.KindNotFound), "%v", err)
}

func TestListByQuestionnaireOwnership(t *testing.T) {
	f := newSubmissionFixture(t)
	_, err := f.service.Create(f.qnr.ID(), f.validAnswers(), f.respondent.ID())
	require.NoError(t, err)

	subs, err := f.service.ListByQuestionnaire(f.qnr.ID(), f.admin.ID())
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	count, err := f.service.CountByQuestionnaire(f.qnr.ID(), f.admin.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = f.service.ListByQuestionnaire(f.qnr.ID(), f.respondent.ID())
	assert.True(t, domain.IsKind(err, domain.KindAuthorization), "%v", err)

	_, err = f.service.CountByQuestionnaire(f.qnr.ID(), f.respondent.ID())
	assert.True(t, domain.IsKind(err, domain.KindAuthorization), "%v", err)
}
