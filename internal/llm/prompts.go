package llm

import (
	_ "embed"
	"strings"
)

var (
	//go:embed prompts/facts.txt
	factsPrompt string
	//go:embed prompts/research.txt
	researchPrompt string
	//go:embed prompts/letter.txt
	letterPrompt string
)

const (
	systemJSON   = "You are a precise information extraction engine. Respond with JSON only. No markdown."
	systemLetter = "You are an experienced writer of formal recommendation letters."
)

func render(template string, pairs ...string) string {
	return strings.NewReplacer(pairs...).Replace(template)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return strings.TrimSpace(s)
}
