package assistant

import (
	"context"
	"strings"
	"testing"

	"github.com/perchapp/perch/internal/log"
)

func TestBuildPrompt_WithContext(t *testing.T) {
	prompt := BuildPrompt("when is rent due?", []string{"Rent is due on the 1st.", "Budget notes."})

	if !strings.Contains(prompt, "when is rent due?") {
		t.Error("prompt missing query")
	}
	if !strings.Contains(prompt, "Rent is due on the 1st.") {
		t.Error("prompt missing first context block")
	}
	if !strings.Contains(prompt, "\n---\n") {
		t.Error("context blocks should be separated")
	}
	if strings.Contains(prompt, noContextPlaceholder) {
		t.Error("placeholder should not appear when context exists")
	}
}

func TestBuildPrompt_WithoutContext(t *testing.T) {
	prompt := BuildPrompt("hello", nil)

	if !strings.Contains(prompt, noContextPlaceholder) {
		t.Error("prompt should carry the no-context placeholder")
	}
}

func TestSimulatedClient_Answer(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	c, err := New(context.Background(), Config{ModelName: "gemini-2.5-flash", MaxTokens: 128}, log.NewNop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if !c.Simulated() {
		t.Fatal("client without API key should be simulated")
	}

	reply, err := c.Answer(context.Background(), "groceries", []string{"Buy milk and eggs."})
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if !strings.Contains(reply, "Buy milk and eggs.") {
		t.Errorf("simulated reply should quote the context, got %q", reply)
	}

	// Deterministic across calls.
	again, err := c.Answer(context.Background(), "groceries", []string{"Buy milk and eggs."})
	if err != nil {
		t.Fatalf("Answer() second call error: %v", err)
	}
	if reply != again {
		t.Error("simulated replies should be deterministic")
	}
}

func TestSimulatedClient_AnswerNoContext(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	c, err := New(context.Background(), Config{ModelName: "gemini-2.5-flash", MaxTokens: 128}, log.NewNop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	reply, err := c.Answer(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if reply == "" {
		t.Error("simulated reply should not be empty with no context")
	}
}
