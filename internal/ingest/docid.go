package ingest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// uuidishRe accepts a bare 32-char hex string or the dashed UUID form.
var uuidishRe = regexp.MustCompile(`^[0-9a-fA-F-]{32,36}$`)

// GuessDocID derives a stable document ID from a PDF path. A filename that
// already looks like a UUID is trusted as the ID; anything else gets a
// name-based UUID of the resolved path, so the same file always maps to the
// same ID.
func GuessDocID(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if uuidishRe.MatchString(stem) {
		return strings.ToLower(strings.ReplaceAll(stem, "-", ""))
	}

	resolved, err := filepath.Abs(path)
	if err != nil {
		resolved = path
	}
	u := uuid.NewSHA1(uuid.NameSpaceURL, []byte(resolved))
	return strings.ReplaceAll(u.String(), "-", "")
}

// ChunkID builds the vector store ID for one chunk: doc ID, page and a fresh
// random suffix. Chunks without a known page use page 0.
func ChunkID(docID string, page int) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s::pg%d::%s", docID, page, suffix)
}

// WalkPDFs returns all PDF files under root, sorted by path for deterministic
// ingestion order.
func WalkPDFs(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// SidecarPath returns the path of the element dump that accompanies a PDF
// when an external layout extractor has already partitioned it.
func SidecarPath(pdfPath string) string {
	return strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ".elements.json"
}
