package workbook

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/obyrned/LLM-workbookAutomation/internal/extract"
	"github.com/obyrned/LLM-workbookAutomation/internal/llm"
)

type fakeProvider struct {
	fn      func(prompt string, opts llm.CompletionOpts) (string, error)
	prompts []string
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string, opts llm.CompletionOpts) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.fn(prompt, opts)
}

func (f *fakeProvider) Name() string { return "fake" }

func TestVocabularyCollectsRequestedWords(t *testing.T) {
	source := "The speaker was loquacious beyond measure. Her ephemeral joy faded. A serendipitous meeting followed."
	provider := &fakeProvider{fn: func(prompt string, opts llm.CompletionOpts) (string, error) {
		return `[
			{"word": "loquacious", "quote": "The speaker was **loquacious** beyond measure."},
			{"word": "ephemeral", "quote": "Her **ephemeral** joy faded."},
			{"word": "serendipitous", "quote": "A **serendipitous** meeting followed."}
		]`, nil
	}}
	g := NewGenerator(provider, Options{VocabTarget: 3})

	res, err := g.Vocabulary(context.Background(), source)
	if err != nil {
		t.Fatalf("Vocabulary: %v", err)
	}
	if res.Stats.Outcome != extract.Satisfied {
		t.Fatalf("outcome = %v, want Satisfied", res.Stats.Outcome)
	}
	if got := len(res.Entries); got != 3 {
		t.Fatalf("entries = %d, want 3", got)
	}
	if res.Entries[0].Word != "loquacious" {
		t.Errorf("first word = %q", res.Entries[0].Word)
	}
	if res.Degraded() {
		t.Error("Degraded() = true for a satisfied run")
	}
	if len(provider.prompts) != 1 {
		t.Fatalf("backend calls = %d, want 1", len(provider.prompts))
	}
	if !strings.Contains(provider.prompts[0], source) {
		t.Error("prompt does not embed the source text")
	}
}

func TestVocabularyToleratesProseWrappedReply(t *testing.T) {
	source := "Their perfidy was complete."
	provider := &fakeProvider{fn: func(string, llm.CompletionOpts) (string, error) {
		return "Sure! Here you go:\n[{\"word\": \"perfidy\", \"quote\": \"Their **perfidy** was complete.\"}]\nHope that helps.", nil
	}}
	g := NewGenerator(provider, Options{VocabTarget: 1})

	res, err := g.Vocabulary(context.Background(), source)
	if err != nil {
		t.Fatalf("Vocabulary: %v", err)
	}
	if len(res.Entries) != 1 || res.Entries[0].Word != "perfidy" {
		t.Fatalf("entries = %+v, want perfidy", res.Entries)
	}
}

func TestVocabularyDropsFabricatedWords(t *testing.T) {
	source := "An austere room with nothing on the walls."
	provider := &fakeProvider{fn: func(string, llm.CompletionOpts) (string, error) {
		return `[
			{"word": "austere", "quote": "An **austere** room with nothing on the walls."},
			{"word": "mellifluous", "quote": "A **mellifluous** voice."}
		]`, nil
	}}
	g := NewGenerator(provider, Options{VocabTarget: 2, MaxFinalAttempts: 1})

	res, err := g.Vocabulary(context.Background(), source)
	if err != nil {
		t.Fatalf("Vocabulary: %v", err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("entries = %d, want 1 (fabricated word dropped)", len(res.Entries))
	}
	if res.Entries[0].Word != "austere" {
		t.Errorf("kept word = %q, want austere", res.Entries[0].Word)
	}
	if res.Stats.Outcome != extract.Exhausted {
		t.Errorf("outcome = %v, want Exhausted", res.Stats.Outcome)
	}
}

func TestVocabularyDegradedOnRepeatedDuplicates(t *testing.T) {
	source := "A quixotic plan hatched by a laconic man."
	provider := &fakeProvider{fn: func(string, llm.CompletionOpts) (string, error) {
		return `[
			{"word": "quixotic", "quote": "A **quixotic** plan."},
			{"word": "laconic", "quote": "A **laconic** man."}
		]`, nil
	}}
	g := NewGenerator(provider, Options{VocabTarget: 5})

	res, err := g.Vocabulary(context.Background(), source)
	if err != nil {
		t.Fatalf("Vocabulary: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(res.Entries))
	}
	if !res.Degraded() || res.Empty() {
		t.Errorf("Degraded() = %v, Empty() = %v", res.Degraded(), res.Empty())
	}
	// One segment plus the default three whole-document retries.
	if len(provider.prompts) != 4 {
		t.Errorf("backend calls = %d, want 4", len(provider.prompts))
	}
}

func TestVocabularyBackendErrorsDoNotAbort(t *testing.T) {
	provider := &fakeProvider{fn: func(string, llm.CompletionOpts) (string, error) {
		return "", llm.ErrUnavailable
	}}
	g := NewGenerator(provider, Options{VocabTarget: 2, MaxFinalAttempts: 2})

	res, err := g.Vocabulary(context.Background(), "Some text.")
	if err != nil {
		t.Fatalf("Vocabulary: %v", err)
	}
	if !res.Empty() {
		t.Errorf("entries = %d, want 0", len(res.Entries))
	}
	if res.Stats.Outcome != extract.Exhausted {
		t.Errorf("outcome = %v, want Exhausted", res.Stats.Outcome)
	}
}

const questionEnvelope = `{
  "mc_questions": [
    {
      "question": "What does the captain order?",
      "options": {"A": "Retreat", "B": "Advance", "C": "Hold position", "D": "Surrender"},
      "correct": "b"
    },
    {
      "question": "Broken entry with a bad answer.",
      "options": {"A": "One", "B": "Two", "C": "Three", "D": "Four"},
      "correct": "E"
    }
  ],
  "tf_questions": [
    {"question": "The captain hesitates before the charge.", "correct": "TRUE"},
    {"question": "Entry with a useless answer.", "correct": "maybe"}
  ]
}`

func TestQuestionsParsesEnvelopeAndValidates(t *testing.T) {
	provider := &fakeProvider{fn: func(string, llm.CompletionOpts) (string, error) {
		return questionEnvelope, nil
	}}
	g := NewGenerator(provider, Options{MCTarget: 1, TFTarget: 1})

	res, err := g.Questions(context.Background(), "The captain orders an advance.")
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if res.Stats.Outcome != extract.Satisfied {
		t.Fatalf("outcome = %v, want Satisfied", res.Stats.Outcome)
	}
	if len(res.MC) != 1 || len(res.TF) != 1 {
		t.Fatalf("mc = %d, tf = %d, want 1 each", len(res.MC), len(res.TF))
	}
	if res.MC[0].Correct != "B" {
		t.Errorf("mc correct = %q, want normalized B", res.MC[0].Correct)
	}
	if res.MC[0].Options["D"] != "Surrender" {
		t.Errorf("option D = %q", res.MC[0].Options["D"])
	}
	if res.TF[0].Correct != "True" {
		t.Errorf("tf correct = %q, want True", res.TF[0].Correct)
	}
}

func TestQuestionsRejectsMalformedRecords(t *testing.T) {
	provider := &fakeProvider{fn: func(string, llm.CompletionOpts) (string, error) {
		return `{
			"mc_questions": [
				{"question": "Only three options.", "options": {"A": "x", "B": "y", "C": "z"}, "correct": "A"}
			],
			"tf_questions": [
				{"question": "Answer outside the domain.", "correct": "yes"}
			]
		}`, nil
	}}
	g := NewGenerator(provider, Options{MCTarget: 1, TFTarget: 1, MaxFinalAttempts: 1})

	res, err := g.Questions(context.Background(), "text")
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if !res.Empty() {
		t.Fatalf("mc = %d, tf = %d, want both rejected", len(res.MC), len(res.TF))
	}
	if !res.Degraded() {
		t.Error("Degraded() = false for an empty run")
	}
}

func TestQuestionsDeduplicatesByQuestionText(t *testing.T) {
	provider := &fakeProvider{fn: func(string, llm.CompletionOpts) (string, error) {
		return `{
			"mc_questions": [],
			"tf_questions": [
				{"question": "The hero survives.", "correct": "True"},
				{"question": "  the hero SURVIVES. ", "correct": "False"}
			]
		}`, nil
	}}
	g := NewGenerator(provider, Options{MCTarget: 1, TFTarget: 2, MaxFinalAttempts: 1})

	res, err := g.Questions(context.Background(), "text")
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(res.TF) != 1 {
		t.Fatalf("tf = %d, want 1 after dedup", len(res.TF))
	}
	if res.TF[0].Correct != "True" {
		t.Errorf("kept answer = %q, want first-seen True", res.TF[0].Correct)
	}
}

func TestQuestionsUnparseableReplyYieldsEmptyResult(t *testing.T) {
	provider := &fakeProvider{fn: func(string, llm.CompletionOpts) (string, error) {
		return "I'm sorry, I can't produce questions for this text.", nil
	}}
	g := NewGenerator(provider, Options{MCTarget: 2, TFTarget: 2, MaxFinalAttempts: 1})

	res, err := g.Questions(context.Background(), "text")
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if !res.Empty() {
		t.Fatal("expected an empty result for an unparseable reply")
	}
	if res.Stats.Outcome != extract.Exhausted {
		t.Errorf("outcome = %v, want Exhausted", res.Stats.Outcome)
	}
}

func TestSynonymsExactCountRequired(t *testing.T) {
	replies := map[string]string{
		"happy": "**glad, joyful, content, cheerful**",
		"sad":   "unhappy, sorrowful",
		"fast":  "quick, rapid, swift, speedy, brisk",
	}
	provider := &fakeProvider{fn: func(prompt string, _ llm.CompletionOpts) (string, error) {
		for word, reply := range replies {
			if strings.Contains(prompt, "'"+word+"'") {
				return reply, nil
			}
		}
		return "", errors.New("unexpected prompt")
	}}
	g := NewGenerator(provider, Options{})

	entries := g.Synonyms(context.Background(), []VocabEntry{
		{Word: "happy"}, {Word: "sad"}, {Word: "fast"},
	})
	if got := entries[0].Synonyms; len(got) != 4 || got[0] != "glad" || got[3] != "cheerful" {
		t.Errorf("happy synonyms = %v", got)
	}
	for _, i := range []int{1, 2} {
		for _, syn := range entries[i].Synonyms {
			if syn != synonymBlank {
				t.Errorf("%s synonyms = %v, want blanks for wrong count", entries[i].Word, entries[i].Synonyms)
				break
			}
		}
		if len(entries[i].Synonyms) != 4 {
			t.Errorf("%s synonyms = %d placeholders, want 4", entries[i].Word, len(entries[i].Synonyms))
		}
	}
}

func TestSynonymsBackendErrorYieldsBlanks(t *testing.T) {
	provider := &fakeProvider{fn: func(string, llm.CompletionOpts) (string, error) {
		return "", llm.ErrUnavailable
	}}
	g := NewGenerator(provider, Options{})

	entries := g.Synonyms(context.Background(), []VocabEntry{{Word: "gloaming", Quote: "q"}})
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	for _, syn := range entries[0].Synonyms {
		if syn != synonymBlank {
			t.Fatalf("synonyms = %v, want four blanks", entries[0].Synonyms)
		}
	}
	if entries[0].Quote != "q" {
		t.Error("enrichment must preserve the original entry fields")
	}
}
