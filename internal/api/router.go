package api

import (
	"net/http"

	"github.com/surveypipe/surveypipe/internal/middleware"
	"github.com/surveypipe/surveypipe/internal/services"
)

// Router wires the HTTP surface to the services. Method and path-variable
// routing is done with net/http patterns.
type Router struct {
	users          *services.UserService
	questionnaires *services.QuestionnaireService
	submissions    *services.SubmissionService
}

func NewRouter(
	users *services.UserService,
	questionnaires *services.QuestionnaireService,
	submissions *services.SubmissionService,
) *Router {
	return &Router{
		users:          users,
		questionnaires: questionnaires,
		submissions:    submissions,
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	authed := middleware.RequireAuth

	// Identity.
	mux.HandleFunc("POST /api/users", rt.handleRegisterPublicUser)
	mux.HandleFunc("POST /api/users/admins", rt.handleRegisterAdministrator)
	mux.HandleFunc("POST /api/login", rt.handleLogin)
	mux.Handle("GET /api/users", authed(http.HandlerFunc(rt.handleListUsers)))
	mux.Handle("GET /api/users/{id}", authed(http.HandlerFunc(rt.handleGetUser)))
	mux.Handle("PUT /api/users/{id}", authed(http.HandlerFunc(rt.handleUpdateUser)))
	mux.Handle("POST /api/users/{id}/activate", authed(http.HandlerFunc(rt.handleActivateUser)))
	mux.Handle("POST /api/users/{id}/deactivate", authed(http.HandlerFunc(rt.handleDeactivateUser)))

	// Questionnaire authoring and lifecycle.
	mux.Handle("POST /api/questionnaires", authed(http.HandlerFunc(rt.handleCreateQuestionnaire)))
	mux.Handle("GET /api/questionnaires", authed(http.HandlerFunc(rt.handleListQuestionnaires)))
	mux.HandleFunc("GET /api/questionnaires/published", rt.handleListPublished)
	mux.HandleFunc("GET /api/questionnaires/{id}", rt.handleGetQuestionnaire)
	mux.Handle("PUT /api/questionnaires/{id}", authed(http.HandlerFunc(rt.handleUpdateQuestionnaire)))
	mux.Handle("DELETE /api/questionnaires/{id}", authed(http.HandlerFunc(rt.handleDeleteQuestionnaire)))
	mux.Handle("POST /api/questionnaires/{id}/publish", authed(http.HandlerFunc(rt.handlePublishQuestionnaire)))
	mux.Handle("POST /api/questionnaires/{id}/close", authed(http.HandlerFunc(rt.handleCloseQuestionnaire)))
	mux.Handle("POST /api/questionnaires/{id}/questions", authed(http.HandlerFunc(rt.handleAddQuestion)))
	mux.Handle("PUT /api/questionnaires/{id}/questions/{questionID}", authed(http.HandlerFunc(rt.handleUpdateQuestion)))
	mux.Handle("DELETE /api/questionnaires/{id}/questions/{questionID}", authed(http.HandlerFunc(rt.handleRemoveQuestion)))
	mux.Handle("POST /api/questionnaires/{id}/questions/{questionID}/options", authed(http.HandlerFunc(rt.handleAddOptions)))
	mux.Handle("DELETE /api/questionnaires/{id}/questions/{questionID}/options/{optionID}", authed(http.HandlerFunc(rt.handleRemoveOption)))

	// Submission intake and inspection.
	mux.Handle("POST /api/submissions", authed(http.HandlerFunc(rt.handleCreateSubmission)))
	mux.Handle("GET /api/submissions/mine", authed(http.HandlerFunc(rt.handleListMySubmissions)))
	mux.Handle("GET /api/submissions/{id}", authed(http.HandlerFunc(rt.handleGetSubmission)))
	mux.Handle("GET /api/questionnaires/{id}/submissions", authed(http.HandlerFunc(rt.handleListQuestionnaireSubmissions)))
	mux.Handle("GET /api/questionnaires/{id}/submissions/count", authed(http.HandlerFunc(rt.handleCountQuestionnaireSubmissions)))
}

// callerID returns the authenticated user id. RequireAuth guards the
// routes that reach this, so a miss means a wiring bug.
func callerID(r *http.Request) string {
	uid, _ := middleware.UserIDFromContext(r.Context())
	return uid
}
