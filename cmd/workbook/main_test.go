package main

import (
	"testing"
)

// ==================== parseFlags ====================

func TestParseFlags_ValuesAndPositionals(t *testing.T) {
	f, err := parseFlags([]string{"chapter1.txt", "--llm", "ollama/llama3", "--count", "7", "--out", "out", "--synonyms"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if f.llm != "ollama/llama3" {
		t.Errorf("llm = %q", f.llm)
	}
	if f.count != 7 {
		t.Errorf("count = %d, want 7", f.count)
	}
	if f.out != "out" {
		t.Errorf("out = %q", f.out)
	}
	if !f.synonyms {
		t.Error("synonyms flag not set")
	}
	if len(f.args) != 1 || f.args[0] != "chapter1.txt" {
		t.Errorf("args = %v, want [chapter1.txt]", f.args)
	}
}

func TestParseFlags_MissingValue(t *testing.T) {
	if _, err := parseFlags([]string{"--llm"}); err == nil {
		t.Error("expected error for --llm without a value")
	}
	if _, err := parseFlags([]string{"--count", "abc"}); err == nil {
		t.Error("expected error for non-numeric --count")
	}
	if _, err := parseFlags([]string{"--count", "-3"}); err == nil {
		t.Error("expected error for negative --count")
	}
}

func TestParseFlags_UnknownFlag(t *testing.T) {
	if _, err := parseFlags([]string{"--bogus"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestParseFlags_QuestionCounts(t *testing.T) {
	f, err := parseFlags([]string{"story.txt", "--mc", "3", "--tf", "4"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if f.mc != 3 || f.tf != 4 {
		t.Errorf("mc/tf = %d/%d, want 3/4", f.mc, f.tf)
	}
}

func TestFormatNeeds(t *testing.T) {
	if got := formatNeeds(nil); got != "none" {
		t.Errorf("formatNeeds(nil) = %q, want none", got)
	}
	if got := formatNeeds(map[string]int{"vocabulary": 3}); got != "vocabulary=3" {
		t.Errorf("formatNeeds = %q", got)
	}
}
