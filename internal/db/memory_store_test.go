package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveypipe/surveypipe/internal/domain"
)

func storedQuestionnaire(t *testing.T, store *MemoryStore) (*domain.Questionnaire, string) {
	t.Helper()
	qnr, err := domain.NewQuestionnaire("Customer Feedback", "How did we do?", "admin-1")
	require.NoError(t, err)
	questionID, err := qnr.AddQuestionWithOptions("Overall rating", true, []domain.OptionInput{
		{Text: "Good", Order: 1},
		{Text: "Bad", Order: 2},
	})
	require.NoError(t, err)
	require.NoError(t, store.InsertQuestionnaire(qnr))
	return qnr, questionID
}

func TestMemoryStoreQuestionnaireRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	qnr, questionID := storedQuestionnaire(t, store)

	got, err := store.GetQuestionnaireWithQuestions(qnr.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, qnr.Title(), got.Title())
	question, ok := got.QuestionByID(questionID)
	require.True(t, ok)
	assert.Len(t, question.Options(), 2)

	root, err := store.GetQuestionnaire(qnr.ID())
	require.NoError(t, err)
	assert.Empty(t, root.Questions(), "root load carries no questions")

	missing, err := store.GetQuestionnaire("missing")
	require.NoError(t, err)
	assert.Nil(t, missing, "missing rows come back as nil, not an error")
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore()
	qnr, _ := storedQuestionnaire(t, store)

	// Mutating a loaded copy must not leak into the stored state.
	loaded, err := store.GetQuestionnaireWithQuestions(qnr.ID())
	require.NoError(t, err)
	_, err = loaded.AddQuestion("Sneaky extra question", false, false)
	require.NoError(t, err)

	fresh, err := store.GetQuestionnaireWithQuestions(qnr.ID())
	require.NoError(t, err)
	assert.Len(t, fresh.Questions(), 1)
}

func TestMemoryStoreDuplicateSubmissionGuard(t *testing.T) {
	store := NewMemoryStore()

	first, err := domain.NewSubmission("questionnaire-1", "user-1")
	require.NoError(t, err)
	require.NoError(t, store.InsertSubmission(first))

	second, err := domain.NewSubmission("questionnaire-1", "user-1")
	require.NoError(t, err)
	err = store.InsertSubmission(second)
	assert.True(t, domain.IsKind(err, domain.KindDuplicate), "%v", err)

	other, err := domain.NewSubmission("questionnaire-1", "user-2")
	require.NoError(t, err)
	assert.NoError(t, store.InsertSubmission(other))

	submitted, err := store.HasUserSubmitted("questionnaire-1", "user-1")
	require.NoError(t, err)
	assert.True(t, submitted)
}

func TestMemoryStoreSaveSubmissionRewritesItems(t *testing.T) {
	store := NewMemoryStore()
	sub, err := domain.NewSubmission("questionnaire-1", "user-1")
	require.NoError(t, err)
	require.NoError(t, store.InsertSubmission(sub))

	require.NoError(t, sub.AddItem("question-1", "answer one", ""))
	require.NoError(t, sub.AddItem("question-2", "answer two", "option-1"))
	require.NoError(t, sub.StartProcessing())
	require.NoError(t, store.SaveSubmission(sub))

	got, err := store.GetSubmissionWithItems(sub.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionProcessing, got.Status())
	require.Len(t, got.Items(), 2)
	assert.Equal(t, "option-1", got.Items()[1].SelectedOptionID())

	root, err := store.GetSubmission(sub.ID())
	require.NoError(t, err)
	assert.Empty(t, root.Items())
}

func TestMemoryStoreDuplicateUserEmail(t *testing.T) {
	store := NewMemoryStore()
	u, err := domain.NewPublicUser("Jordan", "jordan@example.com")
	require.NoError(t, err)
	require.NoError(t, store.InsertUser(u, []byte("hash")))

	dup, err := domain.NewPublicUser("Other Jordan", "jordan@example.com")
	require.NoError(t, err)
	err = store.InsertUser(dup, []byte("hash"))
	assert.True(t, domain.IsKind(err, domain.KindDuplicate), "%v", err)

	got, hash, err := store.FindUserByEmail("jordan@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID(), got.ID())
	assert.Equal(t, []byte("hash"), hash)
}

func TestMemoryStoreListSubmissionsOrder(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	for i, user := range []string{"user-b", "user-a", "user-c"} {
		sub := domain.RestoreSubmission(
			"sub-"+user, "questionnaire-1", user,
			base.Add(time.Duration(i)*time.Hour),
			domain.SubmissionPending, "", base, nil, nil)
		require.NoError(t, store.SaveSubmission(sub))
	}

	subs, err := store.ListSubmissionsByQuestionnaire("questionnaire-1")
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, "user-b", subs[0].RespondentUserID(), "sorted by submission time")
	assert.Equal(t, "user-c", subs[2].RespondentUserID())

	count, err := store.CountSubmissionsByQuestionnaire("questionnaire-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
