package ollama

const entityPromptSnippet = 4000

func buildEntityPrompt(text string) string {
	snippet := text
	if len(snippet) > entityPromptSnippet {
		snippet = snippet[:entityPromptSnippet]
	}

	return `You are a named-entity tagger for business documents.
Return a strict JSON object with one key "entities": an array of objects with
keys text (string) and category (one of: organization, person, place, date, money).
No markdown, no extra keys.

Document:
` + snippet
}
