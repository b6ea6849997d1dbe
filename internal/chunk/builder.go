package chunk

import (
	"sort"
	"strings"

	"github.com/ebrodie/domainqa/internal/element"
)

// sortItem pairs an element with its extracted position so the sort keys are
// computed once. Missing page/coordinates fall back to zero for key stability
// only; the real optional values ride along untouched.
type sortItem struct {
	el   element.Element
	page *int
	box  *element.BBox
	font *float64
}

func (s sortItem) keyPage() int {
	if s.page == nil {
		return 0
	}
	return *s.page
}

func (s sortItem) keyY0() float64 {
	if s.box == nil {
		return 0
	}
	return s.box.Y0
}

func (s sortItem) keyX0() float64 {
	if s.box == nil {
		return 0
	}
	return s.box.X0
}

// sortElements orders elements into approximate reading order: by page, then
// top edge, then left edge. The sort is stable, so elements without geometry
// keep their input order. Single-column reading order only; columns are not
// detected.
func sortElements(elements []element.Element) []sortItem {
	items := make([]sortItem, 0, len(elements))
	for _, e := range elements {
		if e == nil {
			continue
		}
		it := sortItem{el: e}
		if p, ok := e.Page(); ok {
			it.page = &p
		}
		if box, ok := e.BBox(); ok {
			b := box
			it.box = &b
		}
		if f, ok := e.FontSize(); ok {
			it.font = &f
		}
		items = append(items, it)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].keyPage() != items[j].keyPage() {
			return items[i].keyPage() < items[j].keyPage()
		}
		if items[i].keyY0() != items[j].keyY0() {
			return items[i].keyY0() < items[j].keyY0()
		}
		return items[i].keyX0() < items[j].keyX0()
	})
	return items
}

// builder folds the sorted element sequence into blocks. State is the open
// text buffer with the metadata of the block's first element, plus trackers
// for the previous element's page, bottom edge and font size.
type builder struct {
	cfg    Config
	blocks []Block

	openText []string
	openMeta Metadata

	started     bool
	prevHeading bool
	prevPage    *int
	prevY1      *float64
	prevFont    *float64
}

// flush emits the open block as a "text" block if its joined, trimmed text is
// non-empty, and silently discards it otherwise.
func (b *builder) flush() {
	if len(b.openText) > 0 {
		parts := make([]string, 0, len(b.openText))
		for _, t := range b.openText {
			if t != "" {
				parts = append(parts, t)
			}
		}
		text := strings.TrimSpace(strings.Join(parts, " "))
		if text != "" {
			b.blocks = append(b.blocks, Block{Text: text, Category: "text", Meta: b.openMeta})
		}
	}
	b.openText = nil
	b.openMeta = Metadata{}
}

// metaFor snapshots an element's own position.
func metaFor(it sortItem) Metadata {
	m := Metadata{Page: it.page, FontSize: it.font}
	if it.box != nil {
		m.X0 = &it.box.X0
		m.Y0 = &it.box.Y0
		m.X1 = &it.box.X1
		m.Y1 = &it.box.Y1
	}
	return m
}

// push processes the next element in reading order.
func (b *builder) push(it sortItem) {
	cat := strings.ToLower(it.el.Category())
	text := it.el.Text()

	if boundaryCategories[cat] || element.IsTable(it.el) {
		b.pushBoundary(it, cat, text)
		return
	}

	if b.startsNewBlock(it, cat) {
		b.flush()
		b.openMeta = metaFor(it)
	} else if len(b.openText) == 0 {
		// First element after a boundary flush still opens the block.
		b.openMeta = metaFor(it)
	}
	b.openText = append(b.openText, text)
	b.advance(it)
	b.prevHeading = headingCategories[cat]
}

// pushBoundary flushes the open block and emits the boundary element as its
// own singleton block carrying its own metadata.
func (b *builder) pushBoundary(it sortItem, cat, text string) {
	b.flush()

	category := cat
	if element.IsTable(it.el) {
		category = "table"
	} else if category == "" {
		category = "element"
	}

	blockText := text
	if category != "table" && blockText == "" {
		blockText = category
	}

	b.blocks = append(b.blocks, Block{Text: blockText, Category: category, Meta: metaFor(it)})
	b.advance(it)
	b.prevHeading = false
}

// startsNewBlock evaluates the four merge/split triggers, OR-combined. Each
// is an incomplete proxy for a true section break: font metadata is
// backend-dependent, coordinate gaps catch intra-page spacing, and page
// changes and heading categories are near-certain breaks.
func (b *builder) startsNewBlock(it sortItem, cat string) bool {
	// (a) first element, or page changed. Two consecutive elements with
	// unknown pages count as the same page; a known page never matches an
	// unknown one.
	if !b.started || !samePage(b.prevPage, it.page) {
		return true
	}

	// (b) heading category. A heading block is a singleton: it opens on the
	// heading and closes before the next element, whatever that is.
	if headingCategories[cat] || b.prevHeading {
		return true
	}

	// (c) font jump, only when both sizes are known
	if b.prevFont != nil && it.font != nil {
		prev, cur := *b.prevFont, *it.font
		if cur-prev >= b.cfg.FontJumpAbs {
			return true
		}
		if denom := max(prev, fontRatioEpsilon); cur/denom >= b.cfg.FontJumpRatio {
			return true
		}
	}

	// (d) vertical gap, only when both edges are known
	if b.prevY1 != nil && it.box != nil && it.box.Y0-*b.prevY1 > b.cfg.GapThreshold {
		return true
	}

	return false
}

// advance updates the trackers. The bottom edge and font trackers retain
// their last known value when the current element lacks that metadata.
func (b *builder) advance(it sortItem) {
	b.started = true
	b.prevPage = it.page
	if it.box != nil {
		y1 := it.box.Y1
		b.prevY1 = &y1
	}
	if it.font != nil {
		f := *it.font
		b.prevFont = &f
	}
}

func samePage(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// BuildBlocks folds elements, in reading order, into ordered blocks. It never
// fails: malformed elements are treated as having unknown geometry and folded
// in under default assumptions.
func BuildBlocks(elements []element.Element, cfg Config) []Block {
	cfg = cfg.withDefaults()
	b := &builder{cfg: cfg}
	for _, it := range sortElements(elements) {
		b.push(it)
	}
	b.flush()
	return b.blocks
}
