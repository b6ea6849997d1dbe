package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DocMeta is one record of the corpus metadata sidecar, keyed by document
// UUID.
type DocMeta struct {
	UUID         string   `json:"uuid"`
	Industries   []string `json:"industries,omitempty"`
	CountryCodes []string `json:"country_codes,omitempty"`
	Date         string   `json:"date,omitempty"`

	// DateTS is the date as a unix timestamp, derived at load time for
	// range filtering. Zero when the date is absent or unparseable.
	DateTS int64 `json:"-"`
}

// maxMetadataLineBytes bounds one JSONL line.
const maxMetadataLineBytes = 1 << 20

// LoadMetadata reads the metadata.jsonl sidecar into a map keyed by document
// ID. A missing file is an empty corpus-level metadata set, not an error.
// Records without a uuid and lines that fail to parse are skipped.
func LoadMetadata(path string) (map[string]DocMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]DocMeta{}, nil
		}
		return nil, fmt.Errorf("opening metadata file: %w", err)
	}
	defer f.Close()

	metas := map[string]DocMeta{}
	scanner := bufio.NewScanner(f)
	buf := make([]byte, maxMetadataLineBytes)
	scanner.Buffer(buf, maxMetadataLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var m DocMeta
		if err := json.Unmarshal(line, &m); err != nil {
			continue
		}
		if m.UUID == "" {
			continue
		}
		key := strings.ToLower(strings.ReplaceAll(m.UUID, "-", ""))
		if m.Date != "" {
			if t, err := time.Parse("2006-01-02", m.Date); err == nil {
				m.DateTS = t.UTC().Unix()
			}
		}
		metas[key] = m
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading metadata file: %w", err)
	}
	return metas, nil
}

// ChunkMetadata flattens a chunk's provenance into the scalar string map the
// vector store requires.
func ChunkMetadata(docID string, page int, category string, meta *DocMeta) map[string]string {
	m := map[string]string{
		"doc_id":   docID,
		"page":     strconv.Itoa(page),
		"category": category,
	}
	if meta == nil {
		return m
	}
	if len(meta.Industries) > 0 {
		m["industries"] = strings.Join(meta.Industries, ";")
	}
	if len(meta.CountryCodes) > 0 {
		m["country_codes"] = strings.Join(meta.CountryCodes, ";")
	}
	if meta.Date != "" {
		m["date"] = meta.Date
	}
	if meta.DateTS != 0 {
		m["date_ts"] = strconv.FormatInt(meta.DateTS, 10)
	}
	return m
}
