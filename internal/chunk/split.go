package chunk

import (
	"strings"
	"unicode"
)

// SplitSentences breaks text at positions immediately after sentence-ending
// punctuation followed by whitespace, where the next non-space rune is an
// uppercase letter or an opening bracket. Fragments are trimmed; empty ones
// are dropped. Abbreviations before a period are not special-cased, a known
// false-negative source.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	var out []string
	start := 0
	i := 0
	for i < len(runes) {
		if isSentenceEnd(runes[i]) {
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j > i+1 && j < len(runes) && startsSentence(runes[j]) {
				if frag := strings.TrimSpace(string(runes[start : i+1])); frag != "" {
					out = append(out, frag)
				}
				start, i = j, j
				continue
			}
		}
		i++
	}
	if frag := strings.TrimSpace(string(runes[start:])); frag != "" {
		out = append(out, frag)
	}
	return out
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func startsSentence(r rune) bool {
	return unicode.IsUpper(r) || r == '(' || r == '['
}

// SplitByLength splits text into segments of at most maxChars bytes,
// preferring sentence boundaries. Text without any sentence punctuation is
// sliced at fixed size, which may cut mid-word but never drops characters.
// A single sentence that alone exceeds the budget is emitted whole rather
// than truncated.
func SplitByLength(text string, maxChars int) []string {
	if maxChars <= 0 || len(text) <= maxChars {
		return []string{text}
	}

	if !strings.ContainsAny(text, ".!?") {
		return sliceFixed(text, maxChars)
	}

	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return sliceFixed(text, maxChars)
	}

	var out []string
	var cur string
	for _, s := range sentences {
		switch {
		case cur == "":
			cur = s
		case len(cur)+1+len(s) <= maxChars:
			cur += " " + s
		default:
			out = append(out, cur)
			cur = s
		}
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

// sliceFixed cuts text into maxChars-byte slices on rune boundaries.
func sliceFixed(text string, maxChars int) []string {
	var out []string
	var b strings.Builder
	for _, r := range text {
		if b.Len()+len(string(r)) > maxChars && b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
