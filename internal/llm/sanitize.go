package llm

import (
	"regexp"
	"strings"
	"unicode"
)

// Known prompt-override phrasings stripped from untrusted text before it is
// embedded in an inference request. Matching is case-insensitive.
var overridePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore (all |any )?(previous|prior|above) (instructions|prompts|rules)`),
	regexp.MustCompile(`(?i)disregard (all |any )?(previous|prior|above) (instructions|prompts|rules)`),
	regexp.MustCompile(`(?i)you are now [^.\n]*`),
	regexp.MustCompile(`(?i)system prompt\s*:`),
	regexp.MustCompile(`(?i)new instructions\s*:`),
	regexp.MustCompile(`(?i)respond only with [^.\n]*`),
	regexp.MustCompile(`(?i)act as (if you are |an? )?[^.\n]*`),
}

var codeFencePattern = regexp.MustCompile("(?s)```.*?```|```")

// SanitizeUntrusted strips control characters, code fences, and known
// prompt-override phrasings from user-authored text. Every component must
// pass content text through here before embedding it in a prompt.
func SanitizeUntrusted(text string) string {
	// Drop code fences first so fenced override text does not survive
	text = codeFencePattern.ReplaceAllString(text, " ")

	for _, p := range overridePatterns {
		text = p.ReplaceAllString(text, " ")
	}

	// Strip control characters, keeping ordinary whitespace
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}

	return strings.TrimSpace(collapseSpaces(b.String()))
}

var multiSpacePattern = regexp.MustCompile(`[ \t]{2,}`)

func collapseSpaces(s string) string {
	return multiSpacePattern.ReplaceAllString(s, " ")
}

// Truncate cuts s to at most n runes, used to bound prompt sizes
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

var jsonBlockPattern = regexp.MustCompile(`(?s)\{.*\}|\[.*\]`)

// ExtractJSON pulls the first JSON object or array out of raw model output,
// tolerating prose or markdown around it. Returns "" if none is found.
func ExtractJSON(raw string) string {
	// Prefer fenced JSON if the model wrapped it
	if idx := strings.Index(raw, "```json"); idx >= 0 {
		rest := raw[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	return strings.TrimSpace(jsonBlockPattern.FindString(raw))
}
