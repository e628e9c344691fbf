package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveypipe/surveypipe/internal/db"
	"github.com/surveypipe/surveypipe/internal/middleware"
	"github.com/surveypipe/surveypipe/internal/queue"
	"github.com/surveypipe/surveypipe/internal/services"
)

type testServer struct {
	*httptest.Server
	queue *queue.Queue
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := db.NewMemoryStore()
	auth := middleware.NewAuth("test-secret")

	userService := services.NewUserService(store, auth.SignToken, 0)
	questionnaireService := services.NewQuestionnaireService(store, store)
	q := queue.New(16, 3)
	submissionService := services.NewSubmissionService(store, store, store, q)
	processor := services.NewProcessor(store, store)

	ctx, cancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		q.Run(ctx, processor.Handle)
	}()
	t.Cleanup(func() {
		cancel()
		<-workerDone
	})

	mux := http.NewServeMux()
	NewRouter(userService, questionnaireService, submissionService).Register(mux)
	server := httptest.NewServer(auth.WithAuth(mux))
	t.Cleanup(server.Close)

	return &testServer{Server: server, queue: q}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, status, "login failed: %v", body)
	return body["token"].(string)
}

func TestSubmissionEndToEnd(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.do(t, http.MethodPost, "/api/users/admins", "", map[string]string{
		"name": "Morgan Admin", "email": "morgan@example.com", "password": "pw",
	})
	require.Equal(t, http.StatusCreated, status)
	adminToken := ts.login(t, "morgan@example.com", "pw")

	status, body := ts.do(t, http.MethodPost, "/api/questionnaires", adminToken, map[string]string{
		"title": "Customer Feedback", "description": "How did we do?",
	})
	require.Equal(t, http.StatusCreated, status, "%v", body)
	questionnaireID := body["id"].(string)

	status, body = ts.do(t, http.MethodPost,
		"/api/questionnaires/"+questionnaireID+"/questions", adminToken, map[string]any{
			"text": "What went well?", "isRequired": true,
		})
	require.Equal(t, http.StatusCreated, status, "%v", body)
	questionID := body["questionId"].(string)

	now := time.Now().UTC()
	status, body = ts.do(t, http.MethodPost,
		"/api/questionnaires/"+questionnaireID+"/publish", adminToken, map[string]any{
			"collectionStart": now.Add(-time.Hour),
			"collectionEnd":   now.Add(time.Hour),
		})
	require.Equal(t, http.StatusOK, status, "%v", body)
	assert.Equal(t, "published", body["status"])

	status, _ = ts.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name": "Jordan Respondent", "email": "jordan@example.com", "password": "pw",
	})
	require.Equal(t, http.StatusCreated, status)
	userToken := ts.login(t, "jordan@example.com", "pw")

	status, body = ts.do(t, http.MethodPost, "/api/submissions", userToken, map[string]any{
		"questionnaireId": questionnaireID,
		"answers": []map[string]string{
			{"questionId": questionID, "answer": "The response time"},
		},
	})
	require.Equal(t, http.StatusAccepted, status, "%v", body)
	assert.Equal(t, "pending", body["status"])
	submissionID := body["id"].(string)

	// The worker completes the submission asynchronously.
	require.Eventually(t, func() bool {
		_, got := ts.do(t, http.MethodGet, "/api/submissions/"+submissionID, userToken, nil)
		return got["status"] == "completed"
	}, 5*time.Second, 20*time.Millisecond, "submission was not processed")

	status, body = ts.do(t, http.MethodGet, "/api/submissions/"+submissionID+"?items=true", userToken, nil)
	require.Equal(t, http.StatusOK, status)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "The response time", items[0].(map[string]any)["answer"])

	// Second submission by the same respondent is rejected.
	status, body = ts.do(t, http.MethodPost, "/api/submissions", userToken, map[string]any{
		"questionnaireId": questionnaireID,
		"answers": []map[string]string{
			{"questionId": questionID, "answer": "Trying again"},
		},
	})
	assert.Equal(t, http.StatusConflict, status, "%v", body)

	// The owner sees the processed submission.
	status, body = ts.do(t, http.MethodGet,
		"/api/questionnaires/"+questionnaireID+"/submissions/count", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.do(t, http.MethodPost, "/api/questionnaires", "", map[string]string{
		"title": "No Token", "description": "should fail",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.do(t, http.MethodGet, "/api/submissions/mine", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPublicUserCannotCreateQuestionnaire(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name": "Jordan Respondent", "email": "jordan@example.com", "password": "pw",
	})
	require.Equal(t, http.StatusCreated, status)
	token := ts.login(t, "jordan@example.com", "pw")

	status, body := ts.do(t, http.MethodPost, "/api/questionnaires", token, map[string]string{
		"title": "Not Allowed", "description": "public users cannot author",
	})
	assert.Equal(t, http.StatusForbidden, status, "%v", body)
}

func TestPublishedListIsPublic(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodGet, "/api/questionnaires/published", "", nil)
	assert.Equal(t, http.StatusOK, status, "%v", body)
}

func TestUnknownQuestionnaire(t *testing.T) {
	ts := newTestServer(t)
	status, _ := ts.do(t, http.MethodGet, fmt.Sprintf("/api/questionnaires/%s", "missing"), "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
