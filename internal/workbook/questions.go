package workbook

import (
	"context"
	"fmt"
	"strings"

	"github.com/obyrned/LLM-workbookAutomation/internal/extract"
	"github.com/obyrned/LLM-workbookAutomation/internal/llm"
)

// MCQuestion is a multiple-choice question with exactly four labeled
// options and the label of the correct one.
type MCQuestion struct {
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
	Correct  string            `json:"correct"`
}

// TFQuestion is a true/false statement with its answer.
type TFQuestion struct {
	Question string `json:"question"`
	Correct  string `json:"correct"`
}

// QuestionResult is the outcome of a comprehension-question run.
type QuestionResult struct {
	MC          []MCQuestion
	TF          []TFQuestion
	RequestedMC int
	RequestedTF int
	Stats       RunStats
}

// Empty reports whether the run produced no questions of either kind.
func (r *QuestionResult) Empty() bool { return len(r.MC) == 0 && len(r.TF) == 0 }

// Degraded reports whether either quota ended unmet.
func (r *QuestionResult) Degraded() bool {
	return len(r.MC) < r.RequestedMC || len(r.TF) < r.RequestedTF
}

var mcOptionLabels = []string{"A", "B", "C", "D"}

// checkMCShape enforces the A-D option set and a correct label that
// names one of the options.
func checkMCShape(c extract.Candidate) error {
	opts, ok := c["options"].(map[string]any)
	if !ok {
		return fmt.Errorf("options is not an object")
	}
	for _, label := range mcOptionLabels {
		text, ok := opts[label].(string)
		if !ok || strings.TrimSpace(text) == "" {
			return fmt.Errorf("missing option %q", label)
		}
	}
	correct := strings.ToUpper(c.String("correct"))
	if _, ok := opts[correct]; !ok {
		return fmt.Errorf("correct answer %q is not an option label", c.String("correct"))
	}
	return nil
}

func checkTFAnswer(c extract.Candidate) error {
	switch strings.ToLower(c.String("correct")) {
	case "true", "false":
		return nil
	}
	return fmt.Errorf("correct must be True or False, got %q", c.String("correct"))
}

func mcSchema(target int) extract.Schema {
	return extract.Schema{
		Kind:     KindMultipleChoice,
		Required: []string{"question", "options", "correct"},
		Identity: "question",
		Target:   target,
		Check:    checkMCShape,
	}
}

func tfSchema(target int) extract.Schema {
	return extract.Schema{
		Kind:     KindTrueFalse,
		Required: []string{"question", "correct"},
		Identity: "question",
		Target:   target,
		Check:    checkTFAnswer,
	}
}

// questionExtractor issues one envelope prompt covering both question
// kinds and splits the reply into per-kind candidate batches.
type questionExtractor struct {
	provider llm.Provider
}

func (e questionExtractor) Extract(ctx context.Context, source string, needs map[string]int) (map[string][]extract.Candidate, error) {
	mcN := needs[KindMultipleChoice]
	tfN := needs[KindTrueFalse]
	if mcN <= 0 && tfN <= 0 {
		return nil, nil
	}
	raw, err := e.provider.Complete(ctx, questionsPrompt(source, mcN, tfN), llm.CompletionOpts{
		Format: "json",
	})
	if err != nil {
		return nil, err
	}
	parsed := extract.ParseCandidates(raw)
	if len(parsed) == 0 {
		return nil, nil
	}
	envelope := parsed[0]
	return map[string][]extract.Candidate{
		KindMultipleChoice: extract.CandidateList(envelope["mc_questions"]),
		KindTrueFalse:      extract.CandidateList(envelope["tf_questions"]),
	}, nil
}

// Questions collects multiple-choice and true/false questions about
// text, both kinds tracked against their own quotas within one run.
func (g *Generator) Questions(ctx context.Context, text string) (*QuestionResult, error) {
	p := g.pipeline(
		[]extract.Schema{mcSchema(g.opts.MCTarget), tfSchema(g.opts.TFTarget)},
		questionExtractor{provider: g.provider},
	)
	res, err := p.Run(ctx, text)
	out := &QuestionResult{
		RequestedMC: g.opts.MCTarget,
		RequestedTF: g.opts.TFTarget,
		MC:          mcQuestions(res.Records(KindMultipleChoice)),
		TF:          tfQuestions(res.Records(KindTrueFalse)),
		Stats: RunStats{
			Outcome:       res.Outcome,
			Segments:      res.Segments,
			FinalAttempts: res.FinalAttempts,
		},
	}
	return out, err
}

func mcQuestions(records []extract.Candidate) []MCQuestion {
	questions := make([]MCQuestion, 0, len(records))
	for _, rec := range records {
		opts, _ := rec["options"].(map[string]any)
		labeled := make(map[string]string, len(mcOptionLabels))
		for _, label := range mcOptionLabels {
			text, _ := opts[label].(string)
			labeled[label] = strings.TrimSpace(text)
		}
		questions = append(questions, MCQuestion{
			Question: rec.String("question"),
			Options:  labeled,
			Correct:  strings.ToUpper(rec.String("correct")),
		})
	}
	return questions
}

func tfQuestions(records []extract.Candidate) []TFQuestion {
	questions := make([]TFQuestion, 0, len(records))
	for _, rec := range records {
		correct := "False"
		if strings.EqualFold(rec.String("correct"), "true") {
			correct = "True"
		}
		questions = append(questions, TFQuestion{
			Question: rec.String("question"),
			Correct:  correct,
		})
	}
	return questions
}
