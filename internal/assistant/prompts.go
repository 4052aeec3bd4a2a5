package assistant

import "fmt"

const draftPromptTemplate = `Generate a professional code snippet for: "%s".
Answer strictly with a single JSON object and nothing else, using exactly the keys: title, language, code, tags (array of strings), description.`

const explainPromptTemplate = "Explain this code technically and concisely for a senior developer:\n\n%s"

// FallbackExplanation is cached when the endpoint answers with empty text.
const FallbackExplanation = "Unable to generate an explanation."

func draftPrompt(userPrompt string) string {
	return fmt.Sprintf(draftPromptTemplate, userPrompt)
}

func explainPrompt(code string) string {
	return fmt.Sprintf(explainPromptTemplate, code)
}
