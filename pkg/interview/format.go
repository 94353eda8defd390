package interview

import (
	"regexp"
	"strings"
)

// Agent output arrives with stage directions and markdown the voice channel
// cannot speak. Clean strips the theatrics; ValidateAndTruncate enforces the
// product's output shape (at most 3 sentences, exactly one question).

var (
	asteriskDirectionRe = regexp.MustCompile(`\*[^*]+\*`)
	toneParenRe         = regexp.MustCompile(`(?i)\([^)]*tone[^)]*\)`)
	smilingParenRe      = regexp.MustCompile(`(?i)\([^)]*smiling[^)]*\)`)
	warmlyParenRe       = regexp.MustCompile(`(?i)\([^)]*warmly[^)]*\)`)

	stageDirectionPhrases = []*regexp.Regexp{
		regexp.MustCompile(`(?i)in a \w+ tone,?\s*`),
		regexp.MustCompile(`(?i)with a \w+ voice,?\s*`),
		regexp.MustCompile(`(?i)warmly,?\s*`),
		regexp.MustCompile(`(?i)friendly,?\s*`),
		regexp.MustCompile(`(?i)professionally,?\s*`),
	}

	whitespaceRe   = regexp.MustCompile(`\s+`)
	leadingPunctRe = regexp.MustCompile(`^[,\s]+`)

	bulletLineRe = regexp.MustCompile(`^[\-\*•\d]+[\.\)]\s`)

	sentenceEndRe    = regexp.MustCompile(`[.!?]\s+`)
	streamBoundaryRe = regexp.MustCompile(`[.!?]\s*`)
)

// Clean removes stage directions and tone annotations from agent text.
// Idempotent: cleaning already-clean text is a no-op.
func Clean(text string) string {
	if text == "" {
		return text
	}

	cleaned := asteriskDirectionRe.ReplaceAllString(text, "")
	cleaned = toneParenRe.ReplaceAllString(cleaned, "")
	cleaned = smilingParenRe.ReplaceAllString(cleaned, "")
	cleaned = warmlyParenRe.ReplaceAllString(cleaned, "")

	for _, re := range stageDirectionPhrases {
		cleaned = re.ReplaceAllString(cleaned, "")
	}

	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = leadingPunctRe.ReplaceAllString(cleaned, "")

	return cleaned
}

// ValidateAndTruncate enforces the response shape contract: no bullet or
// bold-marker lines, at most 3 sentences, and truncation immediately after
// the first question mark so the candidate is asked exactly one question.
func ValidateAndTruncate(text string) string {
	if text == "" {
		return text
	}

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if bulletLineRe.MatchString(stripped) {
			continue
		}
		if strings.HasPrefix(stripped, "**") {
			continue
		}
		kept = append(kept, stripped)
	}
	joined := strings.Join(kept, " ")

	sentences := splitSentences(joined)
	if len(sentences) > 3 {
		sentences = sentences[:3]
	}

	result := strings.Join(sentences, " ")
	if idx := strings.IndexByte(result, '?'); idx >= 0 {
		result = strings.TrimSpace(result[:idx+1])
	}
	return result
}

// splitSentences splits on sentence-ending punctuation followed by
// whitespace, keeping the punctuation with its sentence. A trailing fragment
// without terminal punctuation is kept as its own sentence.
func splitSentences(text string) []string {
	var out []string
	prev := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		// loc[0] is the punctuation byte; keep it, drop the whitespace run.
		sentence := strings.TrimSpace(text[prev : loc[0]+1])
		if sentence != "" {
			out = append(out, sentence)
		}
		prev = loc[1]
	}
	if rest := strings.TrimSpace(text[prev:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// SentenceSegments splits a streaming text buffer at sentence boundaries.
// It returns every complete segment (boundary punctuation consumed) and the
// trailing, possibly-incomplete remainder to carry into the next chunk.
func SentenceSegments(buffer string) (complete []string, rest string) {
	parts := streamBoundaryRe.Split(buffer, -1)
	if len(parts) == 0 {
		return nil, ""
	}
	for _, p := range parts[:len(parts)-1] {
		complete = append(complete, p)
	}
	return complete, parts[len(parts)-1]
}
