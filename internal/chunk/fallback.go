package chunk

import (
	"errors"
	"strings"

	"github.com/ebrodie/domainqa/internal/element"
)

// ErrNoPageSource is returned by NopSource.Open.
var ErrNoPageSource = errors.New("no page source available")

// TextRegion is one positioned run of page-level text.
type TextRegion struct {
	Box  element.BBox
	Text string
}

// PageDoc exposes the page-level text regions of an opened document.
type PageDoc interface {
	// NumPages returns the page count.
	NumPages() int

	// TextRegions returns the text regions of the given 1-based page, in
	// source order. Unreadable pages yield nil.
	TextRegions(page int) []TextRegion

	// Close releases the underlying resources.
	Close() error
}

// PageSource opens a raw document for coarse geometry-only extraction. It is
// consulted only when the block builder produced nothing at all.
type PageSource interface {
	Open(path string) (PageDoc, error)
}

// NopSource is the null PageSource for callers without a raw document.
type NopSource struct{}

func (NopSource) Open(string) (PageDoc, error) { return nil, ErrNoPageSource }

// FallbackBlocks extracts one "text" block per non-blank page text region.
// The source is opened, read and released entirely within this call. Any
// failure, including a nil or unusable source, degrades to an empty result;
// it never raises and never partially populates.
func FallbackBlocks(src PageSource, path string) []Block {
	if src == nil || path == "" {
		return nil
	}
	doc, err := src.Open(path)
	if err != nil || doc == nil {
		return nil
	}
	defer doc.Close()

	var blocks []Block
	for page := 1; page <= doc.NumPages(); page++ {
		for _, region := range doc.TextRegions(page) {
			text := strings.TrimSpace(region.Text)
			if text == "" {
				continue
			}
			p := page
			box := region.Box
			blocks = append(blocks, Block{
				Text:     text,
				Category: "text",
				Meta: Metadata{
					Page: &p,
					X0:   &box.X0,
					Y0:   &box.Y0,
					X1:   &box.X1,
					Y1:   &box.Y1,
				},
			})
		}
	}
	return blocks
}
