package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Per-mode grounding instructions. The mode is fixed per deployment;
// the prompt is never assembled from ad hoc policy strings.
const (
	strictInstruction = `You are an AI assistant.
Answer the question ONLY using the context below.
If the answer is not present, say "I don't know".`

	preferContextInstruction = `You are an AI assistant.
Prefer the context below when answering the question.
If the context is insufficient you may answer from general knowledge,
but say explicitly that the answer is not from the documents.`

	sourceTaggedInstruction = `You are an AI assistant.
Answer the question ONLY using the context below, citing the passages
you used inline as [Source N].
If the answer is not present, say "I don't know".`
)

// buildPrompt assembles the grounding prompt: instruction, optional
// conversation transcript, retrieved context labelled by source index,
// and the question.
func buildPrompt(mode domain.GroundingMode, history []domain.ChatMessage, hits []domain.SearchHit, question string) string {
	var b strings.Builder

	switch mode {
	case domain.GroundingPreferContext:
		b.WriteString(preferContextInstruction)
	case domain.GroundingSourceTagged:
		b.WriteString(sourceTaggedInstruction)
	default:
		b.WriteString(strictInstruction)
	}
	b.WriteString("\n\n")

	if len(history) > 0 {
		b.WriteString("Conversation:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString("Context:\n")
	for i, hit := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Source %d:\n%s", i+1, hit.Text)
	}

	fmt.Fprintf(&b, "\n\nQuestion:\n%s\n", question)

	return b.String()
}
