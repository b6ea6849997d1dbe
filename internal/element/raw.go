package element

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Raw adapts one record of a partitioner's JSON element dump to the Element
// interface. The shape follows the common convention of layout extractors:
//
//	{
//	  "type": "NarrativeText",
//	  "text": "...",
//	  "metadata": {
//	    "page_number": 3,
//	    "coordinates": {"points": [{"x":10,"y":20}, [30,40], ...]},
//	    "font_size": 11.5
//	  }
//	}
//
// Any field may be absent or malformed; accessors degrade to unknown rather
// than failing. Points accept both {x,y} objects and [x,y] pairs because
// extractors disagree on the encoding.
type Raw struct {
	Type     string         `json:"type"`
	TextVal  string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// DecodeRaw parses a JSON array of raw elements. Records that fail to decode
// individually are skipped, not fatal.
func DecodeRaw(data []byte) ([]Element, error) {
	var records []Raw
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	elements := make([]Element, 0, len(records))
	for i := range records {
		elements = append(elements, &records[i])
	}
	return elements, nil
}

func (r *Raw) Category() string { return r.Type }
func (r *Raw) Text() string     { return r.TextVal }

// Tabular reports whether the record's type names a table.
func (r *Raw) Tabular() bool {
	return strings.EqualFold(r.Type, "table")
}

// Page tries the primary then secondary page key. Non-numeric values read as
// unknown, never as page zero.
func (r *Raw) Page() (int, bool) {
	for _, key := range []string{"page_number", "page"} {
		if v, ok := r.Metadata[key]; ok {
			if n, ok := asInt(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// BBox computes (min x, min y, max x, max y) over the coordinate points.
// Missing or malformed coordinate data reads as unknown.
func (r *Raw) BBox() (BBox, bool) {
	coords, ok := r.Metadata["coordinates"].(map[string]any)
	if !ok {
		return BBox{}, false
	}
	points, ok := coords["points"].([]any)
	if !ok || len(points) == 0 {
		return BBox{}, false
	}

	var xs, ys []float64
	for _, p := range points {
		switch pt := p.(type) {
		case map[string]any:
			x, okX := asFloat(pt["x"])
			y, okY := asFloat(pt["y"])
			if okX && okY {
				xs = append(xs, x)
				ys = append(ys, y)
			}
		case []any:
			if len(pt) < 2 {
				continue
			}
			x, okX := asFloat(pt[0])
			y, okY := asFloat(pt[1])
			if okX && okY {
				xs = append(xs, x)
				ys = append(ys, y)
			}
		}
	}
	if len(xs) == 0 {
		return BBox{}, false
	}

	box := BBox{X0: xs[0], Y0: ys[0], X1: xs[0], Y1: ys[0]}
	for i := 1; i < len(xs); i++ {
		box.X0 = min(box.X0, xs[i])
		box.X1 = max(box.X1, xs[i])
		box.Y0 = min(box.Y0, ys[i])
		box.Y1 = max(box.Y1, ys[i])
	}
	return box, true
}

// Payload decodes the base64 image payload some extractors attach to image
// and table elements.
func (r *Raw) Payload() ([]byte, string, bool) {
	encoded, ok := r.Metadata["image_base64"].(string)
	if !ok || encoded == "" {
		return nil, "", false
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(data) == 0 {
		return nil, "", false
	}
	mime, _ := r.Metadata["image_mime_type"].(string)
	if mime == "" {
		mime = "image/png"
	}
	return data, mime, true
}

// FontSize reads the scalar font_size metadata field.
func (r *Raw) FontSize() (float64, bool) {
	v, ok := r.Metadata["font_size"]
	if !ok {
		return 0, false
	}
	return asFloat(v)
}

// asInt accepts the numeric types encoding/json and hand-built maps produce.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
