package pdfx

import (
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/ebrodie/domainqa/internal/chunk"
)

// Source opens PDFs for the chunker's page-level fallback extraction.
type Source struct{}

var _ chunk.PageSource = Source{}

// Open opens the PDF at path for page-by-page reading.
func (Source) Open(path string) (chunk.PageDoc, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &pageDoc{f: f, r: r}, nil
}

type pageDoc struct {
	f *os.File
	r *pdf.Reader
}

func (d *pageDoc) NumPages() int { return d.r.NumPage() }

// TextRegions returns one region per reconstructed line of the given 1-based
// page, in reading order with downward-Y coordinates.
func (d *pageDoc) TextRegions(pageNum int) []chunk.TextRegion {
	if pageNum < 1 || pageNum > d.r.NumPage() {
		return nil
	}
	page := d.r.Page(pageNum)
	if page.V.IsNull() {
		return nil
	}
	chars, err := pageChars(page)
	if err != nil {
		return nil
	}

	elements := pageElements(pageNum, GroupLines(chars, DefaultLineTolerance))
	regions := make([]chunk.TextRegion, 0, len(elements))
	for _, e := range elements {
		box, _ := e.BBox()
		regions = append(regions, chunk.TextRegion{Box: box, Text: e.Text()})
	}
	return regions
}

func (d *pageDoc) Close() error { return d.f.Close() }
