package services

import (
	"context"
	"fmt"
	"log"

	"github.com/surveypipe/surveypipe/internal/domain"
	"github.com/surveypipe/surveypipe/internal/queue"
)

// Processor drives a submission through its state machine from queue
// messages. Delivery is at-least-once, so Handle must be safe to invoke any
// number of times for the same message: a prior attempt may have written
// items and died before marking completion, or failed outright.
type Processor struct {
	submissions    SubmissionStore
	questionnaires QuestionnaireStore
}

func NewProcessor(submissions SubmissionStore, questionnaires QuestionnaireStore) *Processor {
	return &Processor{submissions: submissions, questionnaires: questionnaires}
}

// Handle reconciles the submission named by the message with whatever a
// previous attempt left behind, then finishes it. On error the submission
// is marked Failed (unless it already is) and the error is returned so the
// queue redelivers.
func (p *Processor) Handle(ctx context.Context, msg queue.Message) error {
	if err := p.process(msg); err != nil {
		p.markFailed(msg.SubmissionID, err)
		return err
	}
	return nil
}

func (p *Processor) process(msg queue.Message) error {
	submission, err := p.submissions.GetSubmissionWithItems(msg.SubmissionID)
	if err != nil {
		return err
	}
	if submission == nil {
		return domain.NewNotFoundError(msg.SubmissionID,
			fmt.Sprintf("submission %q not found", msg.SubmissionID))
	}

	// Idempotence short-circuit: a completed submission is done, reprocessing
	// must not touch it.
	if submission.Status() == domain.SubmissionCompleted {
		return nil
	}

	// A Processing submission that already has items wrote its answers and
	// died before completing. Finish it without re-appending.
	if submission.Status() == domain.SubmissionProcessing && len(submission.Items()) > 0 {
		if err := submission.Complete(); err != nil {
			return err
		}
		return p.submissions.SaveSubmission(submission)
	}

	// Processing with zero items, or Failed: rewind for a clean re-run.
	if submission.Status() == domain.SubmissionProcessing || submission.Status() == domain.SubmissionFailed {
		if err := submission.ResetToPending(); err != nil {
			return err
		}
		if err := p.submissions.SaveSubmission(submission); err != nil {
			return err
		}
	}

	if err := p.validateAgainstQuestionnaire(submission, msg); err != nil {
		return err
	}

	for _, answer := range msg.Answers {
		if err := submission.AddItem(answer.QuestionID, answer.Answer, answer.SelectedOptionID); err != nil {
			return err
		}
	}
	if err := submission.StartProcessing(); err != nil {
		return err
	}
	if err := p.submissions.SaveSubmission(submission); err != nil {
		return err
	}

	if err := submission.Complete(); err != nil {
		return err
	}
	return p.submissions.SaveSubmission(submission)
}

// validateAgainstQuestionnaire re-checks the message answers against the
// published questionnaire snapshot before the first-run append.
func (p *Processor) validateAgainstQuestionnaire(submission *domain.Submission, msg queue.Message) error {
	questionnaire, err := p.questionnaires.GetQuestionnaireWithQuestions(submission.QuestionnaireID())
	if err != nil {
		return err
	}
	if questionnaire == nil {
		return domain.NewNotFoundError(submission.QuestionnaireID(),
			fmt.Sprintf("questionnaire %q not found", submission.QuestionnaireID()))
	}
	answers := make([]AnswerInput, 0, len(msg.Answers))
	for _, a := range msg.Answers {
		answers = append(answers, AnswerInput{
			QuestionID:       a.QuestionID,
			Answer:           a.Answer,
			SelectedOptionID: a.SelectedOptionID,
		})
	}
	return validateAnswers(questionnaire, answers)
}

// markFailed records the failure on the submission, best effort: the
// original error still propagates to the queue either way.
func (p *Processor) markFailed(submissionID string, cause error) {
	// Loaded with items because SaveSubmission rewrites the item set from
	// the aggregate.
	submission, err := p.submissions.GetSubmissionWithItems(submissionID)
	if err != nil || submission == nil {
		return
	}
	if submission.Status() == domain.SubmissionFailed {
		return
	}
	if err := submission.Fail(cause.Error()); err != nil {
		return
	}
	if err := p.submissions.SaveSubmission(submission); err != nil {
		log.Printf("processor: persist failure state for submission %s: %v", submissionID, err)
	}
}
