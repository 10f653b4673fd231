package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptClassify is the system prompt for classification.
	// The template expects a %s placeholder for the comma-joined category names.
	PromptClassify = "classify"

	// PromptAnswer is the system prompt for grounded answers.
	// The template expects a %s placeholder for the assembled context.
	PromptAnswer = "answer"
)
