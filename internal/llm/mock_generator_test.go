package llm

import (
	"context"
	"errors"
	"testing"
)

func TestMockGeneratorDefaultEcho(t *testing.T) {
	g := NewMock("mock")
	out, err := g.Generate(context.Background(), "sys", "what is consideration?", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == "" {
		t.Fatalf("expected non-empty output")
	}
}

func TestMockGeneratorCustomFn(t *testing.T) {
	g := NewMock("mock")
	g.Fn = func(systemPrompt, userPrompt string) (string, error) {
		return "fixed", nil
	}
	out, err := g.Generate(context.Background(), "", "anything", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "fixed" {
		t.Fatalf("expected fixed output, got %q", out)
	}
}

func TestMockGeneratorPropagatesError(t *testing.T) {
	g := NewMock("mock")
	wantErr := errors.New("boom")
	g.Fn = func(systemPrompt, userPrompt string) (string, error) {
		return "", wantErr
	}
	_, err := g.Generate(context.Background(), "", "x", 0)
	if err != wantErr {
		t.Fatalf("expected propagated error, got %v", err)
	}
}
