package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestBuildPrompt_Strict(t *testing.T) {
	hits := []domain.SearchHit{
		{Text: "first passage", DocumentID: "doc-1"},
		{Text: "second passage", DocumentID: "doc-2"},
	}

	prompt := buildPrompt(domain.GroundingStrict, nil, hits, "the question?")

	assert.Contains(t, prompt, "ONLY using the context")
	assert.Contains(t, prompt, "Source 1:\nfirst passage")
	assert.Contains(t, prompt, "Source 2:\nsecond passage")
	assert.True(t, strings.HasSuffix(prompt, "Question:\nthe question?\n"))
	assert.NotContains(t, prompt, "Conversation:")
}

func TestBuildPrompt_WithHistory(t *testing.T) {
	history := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hello"},
		{Role: domain.RoleAssistant, Content: "hi there"},
	}
	hits := []domain.SearchHit{{Text: "context passage"}}

	prompt := buildPrompt(domain.GroundingStrict, history, hits, "next question")

	assert.Contains(t, prompt, "Conversation:\nuser: hello\nassistant: hi there\n")
	// transcript comes before the context block
	assert.Less(t,
		strings.Index(prompt, "Conversation:"),
		strings.Index(prompt, "Context:"))
}

func TestBuildPrompt_Modes(t *testing.T) {
	hits := []domain.SearchHit{{Text: "p"}}

	strict := buildPrompt(domain.GroundingStrict, nil, hits, "q")
	prefer := buildPrompt(domain.GroundingPreferContext, nil, hits, "q")
	tagged := buildPrompt(domain.GroundingSourceTagged, nil, hits, "q")

	assert.Contains(t, strict, "ONLY using the context")
	assert.Contains(t, prefer, "general knowledge")
	assert.Contains(t, tagged, "[Source N]")
	assert.NotEqual(t, strict, prefer)
	assert.NotEqual(t, strict, tagged)
}
