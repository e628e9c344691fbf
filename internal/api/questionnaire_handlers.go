package api

import (
	"net/http"
	"time"

	"github.com/surveypipe/surveypipe/internal/domain"
	"github.com/surveypipe/surveypipe/internal/services"
)

func (rt *Router) handleCreateQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	questionnaire, err := rt.questionnaires.Create(req.Title, req.Description, callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuestionnaireView(questionnaire, false))
}

// handleListQuestionnaires lists the caller's questionnaires, or all of
// them with ?all=true.
func (rt *Router) handleListQuestionnaires(w http.ResponseWriter, r *http.Request) {
	var (
		questionnaires []*domain.Questionnaire
		err            error
	)
	if r.URL.Query().Get("all") == "true" {
		questionnaires, err = rt.questionnaires.List()
	} else {
		questionnaires, err = rt.questionnaires.ListByCreator(callerID(r))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuestionnaireViews(questionnaires))
}

func (rt *Router) handleListPublished(w http.ResponseWriter, r *http.Request) {
	questionnaires, err := rt.questionnaires.ListPublished()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuestionnaireViews(questionnaires))
}

func (rt *Router) handleGetQuestionnaire(w http.ResponseWriter, r *http.Request) {
	questionnaire, err := rt.questionnaires.GetWithQuestions(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuestionnaireView(questionnaire, true))
}

func (rt *Router) handleUpdateQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	questionnaire, err := rt.questionnaires.Update(r.PathValue("id"), req.Title, req.Description, callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuestionnaireView(questionnaire, false))
}

func (rt *Router) handleDeleteQuestionnaire(w http.ResponseWriter, r *http.Request) {
	if err := rt.questionnaires.Delete(r.PathValue("id"), callerID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handlePublishQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CollectionStart time.Time `json:"collectionStart"`
		CollectionEnd   time.Time `json:"collectionEnd"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	questionnaire, err := rt.questionnaires.Publish(r.PathValue("id"), req.CollectionStart, req.CollectionEnd, callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuestionnaireView(questionnaire, false))
}

func (rt *Router) handleCloseQuestionnaire(w http.ResponseWriter, r *http.Request) {
	questionnaire, err := rt.questionnaires.Close(r.PathValue("id"), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuestionnaireView(questionnaire, false))
}

func (rt *Router) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text             string `json:"text"`
		IsRequired       bool   `json:"isRequired"`
		IsMultipleChoice bool   `json:"isMultipleChoice"`
		Options          []struct {
			Text  string `json:"text"`
			Order int    `json:"order"`
		} `json:"options"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	input := services.QuestionInput{
		Text:             req.Text,
		IsRequired:       req.IsRequired,
		IsMultipleChoice: req.IsMultipleChoice,
	}
	for _, o := range req.Options {
		input.Options = append(input.Options, domain.OptionInput{Text: o.Text, Order: o.Order})
	}
	questionID, err := rt.questionnaires.AddQuestion(r.PathValue("id"), input, callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"questionId": questionID})
}

func (rt *Router) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	err := rt.questionnaires.UpdateQuestion(r.PathValue("id"), r.PathValue("questionID"), req.Text, callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handleRemoveQuestion(w http.ResponseWriter, r *http.Request) {
	err := rt.questionnaires.RemoveQuestion(r.PathValue("id"), r.PathValue("questionID"), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handleAddOptions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Options []struct {
			Text  string `json:"text"`
			Order int    `json:"order"`
		} `json:"options"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	options := make([]domain.OptionInput, 0, len(req.Options))
	for _, o := range req.Options {
		options = append(options, domain.OptionInput{Text: o.Text, Order: o.Order})
	}
	err := rt.questionnaires.AddOptionsToQuestion(r.PathValue("id"), r.PathValue("questionID"), options, callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handleRemoveOption(w http.ResponseWriter, r *http.Request) {
	err := rt.questionnaires.RemoveOptionFromQuestion(
		r.PathValue("id"), r.PathValue("questionID"), r.PathValue("optionID"), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
