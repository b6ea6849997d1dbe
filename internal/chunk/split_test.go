package chunk

import (
	"strings"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "empty",
			text: "",
			want: nil,
		},
		{
			name: "whitespace only",
			text: "   \n\t ",
			want: nil,
		},
		{
			name: "single sentence",
			text: "Hello world.",
			want: []string{"Hello world."},
		},
		{
			name: "two sentences",
			text: "Sentence one. Sentence two.",
			want: []string{"Sentence one.", "Sentence two."},
		},
		{
			name: "question and exclamation",
			text: "Really? Yes! Good.",
			want: []string{"Really?", "Yes!", "Good."},
		},
		{
			name: "lowercase continuation does not split",
			text: "approx. values are fine.",
			want: []string{"approx. values are fine."},
		},
		{
			name: "opening paren starts sentence",
			text: "See below. (Details follow.)",
			want: []string{"See below.", "(Details follow.)"},
		},
		{
			name: "opening bracket starts sentence",
			text: "Cited here. [12] covers it.",
			want: []string{"Cited here.", "[12] covers it."},
		},
		{
			name: "no trailing punctuation keeps tail",
			text: "First part. second part without end",
			want: []string{"First part. second part without end"},
		},
		{
			name: "multiple spaces between sentences",
			text: "One.   Two.",
			want: []string{"One.", "Two."},
		},
		{
			name: "punctuation without whitespace does not split",
			text: "v1.2.Release notes",
			want: []string{"v1.2.Release notes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitSentences(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("fragment %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitByLength_ShortTextUnchanged(t *testing.T) {
	text := "Short enough."
	got := SplitByLength(text, 100)
	if len(got) != 1 || got[0] != text {
		t.Errorf("SplitByLength = %v, want [%q]", got, text)
	}
}

func TestSplitByLength_GreedyPacking(t *testing.T) {
	// Four 10-char sentences; budget fits two plus the joining space.
	text := "Aaaa bbb1. Aaaa bbb2. Aaaa bbb3. Aaaa bbb4."
	got := SplitByLength(text, 21)
	want := []string{"Aaaa bbb1. Aaaa bbb2.", "Aaaa bbb3. Aaaa bbb4."}
	if len(got) != len(want) {
		t.Fatalf("SplitByLength = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("segment %d = %q, want %q", i, got[i], want[i])
		}
		if len(got[i]) > 21 {
			t.Errorf("segment %d length %d exceeds budget", i, len(got[i]))
		}
	}
}

func TestSplitByLength_OversizedSentenceEmittedWhole(t *testing.T) {
	long := strings.Repeat("word ", 20) + "end."
	text := "Tiny one. " + long + " Tiny two."
	got := SplitByLength(text, 30)

	found := false
	for _, seg := range got {
		if seg == strings.TrimSpace(long) {
			found = true
		}
	}
	if !found {
		t.Fatalf("oversized sentence was not emitted whole: %v", got)
	}
	// Nothing lost: rejoining reproduces the input up to whitespace.
	joined := strings.Join(got, " ")
	if strings.Join(strings.Fields(joined), " ") != strings.Join(strings.Fields(text), " ") {
		t.Errorf("content lost: %q != %q", joined, text)
	}
}

func TestSplitByLength_NoPunctuationSlicesFixed(t *testing.T) {
	text := strings.Repeat("a", 25)
	got := SplitByLength(text, 10)
	want := []string{strings.Repeat("a", 10), strings.Repeat("a", 10), strings.Repeat("a", 5)}
	if len(got) != len(want) {
		t.Fatalf("SplitByLength = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("slice %d = %q, want %q", i, got[i], want[i])
		}
	}
	if strings.Join(got, "") != text {
		t.Error("fixed slicing dropped characters")
	}
}

func TestSplitByLength_FixedSlicingKeepsRunesIntact(t *testing.T) {
	text := strings.Repeat("é", 20) // 2 bytes per rune, no punctuation
	got := SplitByLength(text, 9)
	var rejoined strings.Builder
	for _, seg := range got {
		if len(seg) > 9 {
			t.Errorf("slice %q exceeds byte budget", seg)
		}
		for _, r := range seg {
			if r != 'é' {
				t.Fatalf("rune split across slices: %q", seg)
			}
		}
		rejoined.WriteString(seg)
	}
	if rejoined.String() != text {
		t.Error("slicing dropped characters")
	}
}
