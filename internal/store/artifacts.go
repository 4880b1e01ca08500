package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/obyrned/LLM-workbookAutomation/internal/workbook"
)

const txtRule = "---------------------------------------------------\n"

// ArtifactWriter saves workbook output as paired JSON and TXT files in
// a single directory, named after the source file:
//
//	vocab10_<base>.json / .txt   vocabulary words with quotes
//	vocab20_<base>.json / .txt   the same words with synonyms
//	tfmc-<base>.json / .txt      comprehension questions
type ArtifactWriter struct {
	Dir string
}

// NewArtifactWriter creates the output directory if needed.
func NewArtifactWriter(dir string) (*ArtifactWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &ArtifactWriter{Dir: dir}, nil
}

// baseName strips the directory and extension from a source filename.
func baseName(sourceName string) string {
	base := filepath.Base(sourceName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WriteVocab saves vocab10 artifacts and returns the JSON path.
func (w *ArtifactWriter) WriteVocab(sourceName string, entries []workbook.VocabEntry) (string, error) {
	base := baseName(sourceName)
	jsonPath := filepath.Join(w.Dir, "vocab10_"+base+".json")
	txtPath := filepath.Join(w.Dir, "vocab10_"+base+".txt")

	if err := writeJSON(jsonPath, entries); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Vocabulary words extracted from %s\n", sourceName)
	b.WriteString(txtRule)
	for i, entry := range entries {
		fmt.Fprintf(&b, "%d. WORD: %s\n", i+1, entry.Word)
		fmt.Fprintf(&b, "   QUOTE: %s\n", entry.Quote)
		b.WriteString(txtRule)
	}
	if err := os.WriteFile(txtPath, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", txtPath, err)
	}
	return jsonPath, nil
}

// WriteVocabWithSynonyms saves vocab20 artifacts and returns the JSON
// path.
func (w *ArtifactWriter) WriteVocabWithSynonyms(sourceName string, entries []workbook.VocabEntry) (string, error) {
	base := baseName(sourceName)
	jsonPath := filepath.Join(w.Dir, "vocab20_"+base+".json")
	txtPath := filepath.Join(w.Dir, "vocab20_"+base+".txt")

	if err := writeJSON(jsonPath, entries); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Vocabulary words and synonyms from %s\n", sourceName)
	b.WriteString(txtRule)
	for i, entry := range entries {
		fmt.Fprintf(&b, "%d. WORD: %s\n", i+1, entry.Word)
		fmt.Fprintf(&b, "   QUOTE: %s\n", entry.Quote)
		fmt.Fprintf(&b, "   SYNONYMS: %s\n", strings.Join(entry.Synonyms, ", "))
		b.WriteString(txtRule)
	}
	if err := os.WriteFile(txtPath, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", txtPath, err)
	}
	return jsonPath, nil
}

// questionsEnvelope is the JSON artifact shape for question workbooks.
type questionsEnvelope struct {
	MCQuestions []workbook.MCQuestion `json:"mc_questions"`
	TFQuestions []workbook.TFQuestion `json:"tf_questions"`
}

// WriteQuestions saves tfmc artifacts and returns the JSON path.
func (w *ArtifactWriter) WriteQuestions(sourceName string, res *workbook.QuestionResult) (string, error) {
	base := baseName(sourceName)
	jsonPath := filepath.Join(w.Dir, "tfmc-"+base+".json")
	txtPath := filepath.Join(w.Dir, "tfmc-"+base+".txt")

	envelope := questionsEnvelope{MCQuestions: res.MC, TFQuestions: res.TF}
	if envelope.MCQuestions == nil {
		envelope.MCQuestions = []workbook.MCQuestion{}
	}
	if envelope.TFQuestions == nil {
		envelope.TFQuestions = []workbook.TFQuestion{}
	}
	if err := writeJSON(jsonPath, envelope); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Questions extracted from %s\n", sourceName)
	b.WriteString(txtRule)
	b.WriteString("Multiple-Choice Questions:\n")
	for i, q := range res.MC {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.Question)
		for _, label := range []string{"A", "B", "C", "D"} {
			fmt.Fprintf(&b, "   %s: %s\n", label, q.Options[label])
		}
		fmt.Fprintf(&b, "   Correct Answer: %s\n", q.Correct)
		b.WriteString(txtRule)
	}
	b.WriteString("\nTrue/False Questions:\n")
	for i, q := range res.TF {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.Question)
		fmt.Fprintf(&b, "   Correct Answer: %s\n", q.Correct)
		b.WriteString(txtRule)
	}
	if err := os.WriteFile(txtPath, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", txtPath, err)
	}
	return jsonPath, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
