package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubGenerator struct {
	response     string
	err          error
	jsonErr      error
	lastPrompt   string
	contentCalls int
}

func (s *stubGenerator) GenerateJSON(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.jsonErr != nil {
		return "", s.jsonErr
	}
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	s.contentCalls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestExtractorExtract(t *testing.T) {
	stub := &stubGenerator{response: `{"Name": "Jane Roe", "Skills": ["Go"], "Suggested Job Titles": ["Golang Developer"]}`}
	core, observed := observer.New(zapcore.DebugLevel)

	extractor := NewExtractor(stub, zap.New(core), 20)

	extraction, err := extractor.Extract(context.Background(), "  Jane Roe SKILLS Go  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if extraction.Details.Name != "Jane Roe" {
		t.Fatalf("unexpected name: %q", extraction.Details.Name)
	}
	if titles := extraction.Details.JobTitles(); len(titles) != 1 || titles[0] != "Golang Developer" {
		t.Fatalf("unexpected job titles: %v", titles)
	}
	if extraction.Raw != stub.response {
		t.Fatalf("expected raw response to be kept")
	}

	if !strings.Contains(stub.lastPrompt, "---\nJane Roe SKILLS Go\n---") {
		t.Fatalf("expected resume text in prompt, got: %s", stub.lastPrompt)
	}
	if strings.Contains(stub.lastPrompt, "{{RESUME_TEXT}}") {
		t.Fatalf("expected placeholder to be replaced")
	}

	entries := observed.All()
	if len(entries) != 2 {
		t.Fatalf("expected request and response logs, got %d", len(entries))
	}
	preview, _ := entries[0].ContextMap()["prompt_preview"].(string)
	if len([]rune(preview)) != 23 {
		t.Fatalf("expected truncated preview, got %q", preview)
	}
}

func TestExtractorFallsBackToPlainText(t *testing.T) {
	stub := &stubGenerator{
		response: "```json\n{\"name\": \"Jane Roe\", \"job_titles\": [\"SRE\"]}\n```",
		jsonErr:  fmt.Errorf("%w: model says no", ErrJSONModeUnsupported),
	}
	core, observed := observer.New(zapcore.WarnLevel)

	extraction, err := NewExtractor(stub, zap.New(core), 0).Extract(context.Background(), "Jane Roe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.contentCalls != 1 {
		t.Fatalf("expected one plain text call, got %d", stub.contentCalls)
	}
	if titles := extraction.Details.JobTitles(); len(titles) != 1 || titles[0] != "SRE" {
		t.Fatalf("unexpected job titles: %v", titles)
	}
	if observed.FilterMessage("json mode rejected, asking for plain text").Len() != 1 {
		t.Fatalf("expected fallback warning, got %v", observed.All())
	}
}

func TestExtractorDoesNotFallBackOnOtherErrors(t *testing.T) {
	stub := &stubGenerator{err: errors.New("quota exhausted")}

	if _, err := NewExtractor(stub, nil, 0).Extract(context.Background(), "Jane Roe"); err == nil {
		t.Fatal("expected error")
	}
	if stub.contentCalls != 0 {
		t.Fatalf("expected no plain text call, got %d", stub.contentCalls)
	}
}

func TestExtractorErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stub   *stubGenerator
		resume string
	}{
		{name: "empty resume", stub: &stubGenerator{response: "{}"}, resume: "  "},
		{name: "generator error", stub: &stubGenerator{err: errors.New("boom")}, resume: "Go"},
		{name: "no json", stub: &stubGenerator{response: "Sorry, I can't help."}, resume: "Go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			extractor := NewExtractor(tt.stub, nil, 0)
			if _, err := extractor.Extract(context.Background(), tt.resume); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("Resume body")

	if !strings.Contains(prompt, "Resume body") {
		t.Fatalf("expected resume text in prompt")
	}
	if !strings.Contains(prompt, "suggested_job_titles") {
		t.Fatalf("expected job title instruction in prompt")
	}
}
