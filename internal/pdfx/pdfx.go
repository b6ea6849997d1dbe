// Package pdfx extracts positioned text lines from PDF files for
// segmentation. It is the native fallback partitioner: no element categories
// beyond narrative text, but real page numbers, coordinates and font sizes.
package pdfx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ebrodie/domainqa/internal/element"
)

// DefaultLineTolerance is the vertical distance, in points, within which
// characters are treated as the same line.
const DefaultLineTolerance = 2.0

// Line is one reconstructed text line in PDF coordinates, where Y is the
// baseline and grows upward from the page bottom.
type Line struct {
	Text     string
	X0, X1   float64
	Y        float64
	FontSize float64
}

// GroupLines reconstructs lines from a page's character runs. Characters are
// bucketed by baseline within tol, ordered left to right, and joined with a
// space wherever the horizontal gap exceeds a fraction of the font size.
func GroupLines(chars []pdf.Text, tol float64) []Line {
	if tol <= 0 {
		tol = DefaultLineTolerance
	}

	type bucket struct {
		y     float64
		chars []pdf.Text
	}
	var buckets []bucket

	for _, c := range chars {
		if strings.TrimSpace(c.S) == "" && c.S != " " {
			continue
		}
		placed := false
		for i := range buckets {
			if abs(buckets[i].y-c.Y) <= tol {
				buckets[i].chars = append(buckets[i].chars, c)
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, bucket{y: c.Y, chars: []pdf.Text{c}})
		}
	}

	// Top of page first: larger Y is higher in PDF coordinates.
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].y > buckets[j].y })

	lines := make([]Line, 0, len(buckets))
	for _, b := range buckets {
		sort.SliceStable(b.chars, func(i, j int) bool { return b.chars[i].X < b.chars[j].X })

		var sb strings.Builder
		var fontCounts = map[float64]int{}
		line := Line{Y: b.y, X0: b.chars[0].X}
		prevEnd := b.chars[0].X

		for i, c := range b.chars {
			if i > 0 {
				gap := c.X - prevEnd
				if gap > spaceGap(c.FontSize) && !strings.HasSuffix(sb.String(), " ") && !strings.HasPrefix(c.S, " ") {
					sb.WriteByte(' ')
				}
			}
			sb.WriteString(c.S)
			prevEnd = c.X + c.W
			fontCounts[c.FontSize]++
		}

		line.Text = strings.TrimSpace(sb.String())
		if line.Text == "" {
			continue
		}
		line.X1 = prevEnd
		line.FontSize = dominantFont(fontCounts)
		lines = append(lines, line)
	}
	return lines
}

func spaceGap(fontSize float64) float64 {
	return max(1.0, 0.3*fontSize)
}

func dominantFont(counts map[float64]int) float64 {
	var best float64
	bestCount := 0
	for size, n := range counts {
		if n > bestCount || (n == bestCount && size > best) {
			best, bestCount = size, n
		}
	}
	return best
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Partition extracts every text line of the PDF at path as positioned
// elements in the downward-Y convention the chunker expects. Returns the
// elements and the page count. Pages that cannot be decoded are skipped.
func Partition(path string) ([]element.Element, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	numPages := r.NumPage()
	var elements []element.Element
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		chars, err := pageChars(page)
		if err != nil {
			continue
		}
		for _, pe := range pageElements(i, GroupLines(chars, DefaultLineTolerance)) {
			elements = append(elements, pe)
		}
	}
	return elements, numPages, nil
}

// pageChars reads a page's character runs. The underlying decoder panics on
// some malformed content streams, so the panic is converted to an error here.
func pageChars(page pdf.Page) (chars []pdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoding page content: %v", r)
		}
	}()
	return page.Content().Text, nil
}

// pageElements converts a page's lines into elements, flipping Y so it grows
// downward from the page top.
func pageElements(pageNum int, lines []Line) []element.Element {
	if len(lines) == 0 {
		return nil
	}
	var maxY float64
	for _, l := range lines {
		maxY = max(maxY, l.Y+l.FontSize)
	}

	elements := make([]element.Element, 0, len(lines))
	for _, l := range lines {
		y0 := maxY - l.Y - l.FontSize
		y1 := maxY - l.Y
		elements = append(elements, &element.Item{
			Cat:   "NarrativeText",
			Txt:   l.Text,
			PageN: element.IntPtr(pageNum),
			Box:   &element.BBox{X0: l.X0, Y0: y0, X1: l.X1, Y1: y1},
			Font:  element.FloatPtr(l.FontSize),
		})
	}
	return elements
}
