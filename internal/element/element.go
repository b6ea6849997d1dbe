// Package element defines the capability contract for externally extracted
// document content units. Every field is optional: upstream partitioners
// populate whatever their backend knows, and consumers must treat absence as
// unknown rather than as a zero value.
package element

// BBox is an axis-aligned bounding box in layout units. Y grows downward, so
// Y0 is the top edge and Y1 the bottom edge.
type BBox struct {
	X0, Y0, X1, Y1 float64
}

// Element is one positioned content unit from a partitioned document.
// All accessors are total: they never panic, and the bool result reports
// whether the value is actually known.
type Element interface {
	// Category returns the element kind reported by the extractor
	// (e.g. "Title", "NarrativeText", "Table"). Empty when unknown.
	Category() string

	// Text returns the element's text content, which may be empty.
	Text() string

	// Page returns the 1-based page number, if known.
	Page() (int, bool)

	// BBox returns the element's bounding box, if known.
	BBox() (BBox, bool)

	// FontSize returns the dominant font size in points, if known.
	FontSize() (float64, bool)
}

// Tabular marks elements that are structurally tables regardless of the
// category string their extractor reported.
type Tabular interface {
	Tabular() bool
}

// IsTable reports whether e is structurally a table.
func IsTable(e Element) bool {
	t, ok := e.(Tabular)
	return ok && t.Tabular()
}

// Payloaded marks elements that carry a binary payload, such as an extracted
// image or a rendered table crop.
type Payloaded interface {
	// Payload returns the decoded bytes and their MIME type, if present.
	Payload() (data []byte, mime string, ok bool)
}

// PayloadOf returns e's binary payload, if it has one.
func PayloadOf(e Element) ([]byte, string, bool) {
	p, ok := e.(Payloaded)
	if !ok {
		return nil, "", false
	}
	return p.Payload()
}

// Item is a plain in-memory Element. Nil pointer fields read as unknown.
type Item struct {
	Cat   string
	Txt   string
	PageN *int
	Box   *BBox
	Font  *float64
	Table bool
	Data  []byte
	Mime  string
}

func (it *Item) Category() string { return it.Cat }
func (it *Item) Text() string     { return it.Txt }

func (it *Item) Page() (int, bool) {
	if it.PageN == nil {
		return 0, false
	}
	return *it.PageN, true
}

func (it *Item) BBox() (BBox, bool) {
	if it.Box == nil {
		return BBox{}, false
	}
	return *it.Box, true
}

func (it *Item) FontSize() (float64, bool) {
	if it.Font == nil {
		return 0, false
	}
	return *it.Font, true
}

func (it *Item) Tabular() bool { return it.Table }

func (it *Item) Payload() ([]byte, string, bool) {
	if len(it.Data) == 0 {
		return nil, "", false
	}
	mime := it.Mime
	if mime == "" {
		mime = "image/png"
	}
	return it.Data, mime, true
}

// IntPtr returns a pointer to v. Convenience for building Items.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v. Convenience for building Items.
func FloatPtr(v float64) *float64 { return &v }
