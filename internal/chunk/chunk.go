// Package chunk implements layout-aware document segmentation. It folds a
// flat, partially populated sequence of positioned elements into reading
// order, groups them into blocks at likely section boundaries using several
// noisy geometric and typographic signals, and splits the result into
// length-bounded chunks without losing or duplicating content.
package chunk

import (
	"strings"

	"github.com/ebrodie/domainqa/internal/element"
)

// Categories that always stand alone: they flush any open text block and are
// emitted as singleton blocks, never merging with neighbors.
var boundaryCategories = map[string]bool{
	"table":     true,
	"image":     true,
	"figure":    true,
	"pagebreak": true,
}

// Categories that signal the start of a new section.
var headingCategories = map[string]bool{
	"title":    true,
	"subtitle": true,
	"header":   true,
}

const fontRatioEpsilon = 1e-6

// Config carries the segmentation tunables. The zero value gets defaults.
//
// The font-jump heuristic combines an absolute and a relative threshold with
// OR. Both constants are deliberately exposed as tunables; neither alone is a
// reliable section-break signal.
type Config struct {
	// NarrativeMaxChars bounds the length of emitted text chunks.
	NarrativeMaxChars int

	// GapThreshold is the vertical whitespace, in layout units, above which
	// two same-page elements are considered separate blocks.
	GapThreshold float64

	// FontJumpAbs starts a new block when the font size grows by at least
	// this many points relative to the previous element.
	FontJumpAbs float64

	// FontJumpRatio starts a new block when the font size grows by at least
	// this factor relative to the previous element.
	FontJumpRatio float64
}

// Defaults for Config fields left at zero.
const (
	DefaultNarrativeMaxChars = 1600
	DefaultGapThreshold      = 30.0
	DefaultFontJumpAbs       = 2.0
	DefaultFontJumpRatio     = 1.2

	// TableMaxCharsFloor is the minimum split budget for table chunks.
	TableMaxCharsFloor = 800
)

func (c Config) withDefaults() Config {
	if c.NarrativeMaxChars <= 0 {
		c.NarrativeMaxChars = DefaultNarrativeMaxChars
	}
	if c.GapThreshold <= 0 {
		c.GapThreshold = DefaultGapThreshold
	}
	if c.FontJumpAbs <= 0 {
		c.FontJumpAbs = DefaultFontJumpAbs
	}
	if c.FontJumpRatio <= 0 {
		c.FontJumpRatio = DefaultFontJumpRatio
	}
	return c
}

// TableMaxChars returns the split budget for table chunks, which is smaller
// than the narrative budget but never below the floor.
func (c Config) TableMaxChars() int {
	c = c.withDefaults()
	budget := int(0.6 * float64(c.NarrativeMaxChars))
	if budget < TableMaxCharsFloor {
		budget = TableMaxCharsFloor
	}
	return budget
}

// Metadata is the positional snapshot of the element that opened a block.
// Nil fields are unknown, which is distinct from zero.
type Metadata struct {
	Page     *int     `json:"page_number,omitempty"`
	X0       *float64 `json:"x0,omitempty"`
	Y0       *float64 `json:"y0,omitempty"`
	X1       *float64 `json:"x1,omitempty"`
	Y1       *float64 `json:"y1,omitempty"`
	FontSize *float64 `json:"font_size,omitempty"`
}

// Block is an intermediate grouping of one or more elements believed to share
// a layout section. A "text" block's text is the space-joined, trimmed
// concatenation of its constituent elements; boundary blocks are singletons.
type Block struct {
	Text     string   `json:"text"`
	Category string   `json:"category"`
	Meta     Metadata `json:"metadata"`
}

// Chunk is the final length-bounded unit handed to the caller. A single
// text or table Block may expand into several consecutive Chunks.
type Chunk struct {
	Text     string   `json:"text"`
	Category string   `json:"category"`
	Meta     Metadata `json:"metadata"`
}

// ChunkElements segments elements into ordered, length-bounded chunks.
// When the block builder produces nothing (for example, no usable geometry at
// all) and src is non-nil, page-level text regions from src are used instead.
// Empty input yields empty output; this is a valid terminal state, not an
// error.
func ChunkElements(elements []element.Element, src PageSource, path string, cfg Config) []Chunk {
	if len(elements) == 0 {
		return nil
	}
	cfg = cfg.withDefaults()

	blocks := BuildBlocks(elements, cfg)
	if len(blocks) == 0 {
		blocks = FallbackBlocks(src, path)
	}

	var out []Chunk
	for _, b := range blocks {
		switch {
		case b.Category == "table":
			text := strings.TrimSpace(b.Text)
			if text == "" {
				continue
			}
			for _, seg := range SplitByLength(text, cfg.TableMaxChars()) {
				out = append(out, Chunk{Text: seg, Category: "table", Meta: b.Meta})
			}
		case boundaryCategories[b.Category] || b.Category == "element":
			// Image, figure and pagebreak blocks carry no indexable text;
			// persisting their payloads is the ingestion layer's job.
			continue
		default:
			text := strings.TrimSpace(b.Text)
			if text == "" {
				continue
			}
			for _, seg := range SplitByLength(text, cfg.NarrativeMaxChars) {
				out = append(out, Chunk{Text: seg, Category: "text", Meta: b.Meta})
			}
		}
	}
	return out
}
