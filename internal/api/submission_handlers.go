package api

import (
	"net/http"

	"github.com/surveypipe/surveypipe/internal/services"
)

// handleCreateSubmission accepts a submission for asynchronous processing.
// The response is 202: the submission is persisted as Pending and the
// answers travel to the worker on the queue.
func (rt *Router) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionnaireID string `json:"questionnaireId"`
		Answers         []struct {
			QuestionID       string `json:"questionId"`
			Answer           string `json:"answer"`
			SelectedOptionID string `json:"selectedOptionId"`
		} `json:"answers"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	answers := make([]services.AnswerInput, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, services.AnswerInput{
			QuestionID:       a.QuestionID,
			Answer:           a.Answer,
			SelectedOptionID: a.SelectedOptionID,
		})
	}
	submission, err := rt.submissions.Create(req.QuestionnaireID, answers, callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toSubmissionView(submission, false))
}

func (rt *Router) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	withItems := r.URL.Query().Get("items") == "true"
	get := rt.submissions.Get
	if withItems {
		get = rt.submissions.GetWithItems
	}
	submission, err := get(r.PathValue("id"), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionView(submission, withItems))
}

func (rt *Router) handleListMySubmissions(w http.ResponseWriter, r *http.Request) {
	submissions, err := rt.submissions.ListMine(callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionViews(submissions))
}

func (rt *Router) handleListQuestionnaireSubmissions(w http.ResponseWriter, r *http.Request) {
	submissions, err := rt.submissions.ListByQuestionnaire(r.PathValue("id"), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionViews(submissions))
}

func (rt *Router) handleCountQuestionnaireSubmissions(w http.ResponseWriter, r *http.Request) {
	count, err := rt.submissions.CountByQuestionnaire(r.PathValue("id"), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}
