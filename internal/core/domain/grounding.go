package domain

// GroundingMode selects how strongly a generated answer is constrained
// to the retrieved context. It is chosen once per deployment rather than
// assembled ad hoc at each call site.
type GroundingMode string

const (
	// GroundingStrict instructs the model to answer ONLY from the
	// retrieved context and to say "I don't know" otherwise. This is
	// the default.
	GroundingStrict GroundingMode = "strict"

	// GroundingPreferContext instructs the model to prefer the retrieved
	// context but allows falling back to general knowledge, saying so
	// explicitly when it does.
	GroundingPreferContext GroundingMode = "prefer-context"

	// GroundingSourceTagged behaves like GroundingStrict but additionally
	// asks the model to cite sources inline as [Source N].
	GroundingSourceTagged GroundingMode = "source-tagged"
)

// Valid reports whether m is a known grounding mode.
func (m GroundingMode) Valid() bool {
	switch m {
	case GroundingStrict, GroundingPreferContext, GroundingSourceTagged:
		return true
	}
	return false
}
