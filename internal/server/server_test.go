package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ebrodie/domainqa/internal/search"
	"github.com/ebrodie/domainqa/internal/vectorstore"
)

type fakeSearcher struct {
	hits    []search.Hit
	err     error
	gotQ    string
	gotFilt search.Filters
}

func (f *fakeSearcher) Search(_ context.Context, query string, filters search.Filters) ([]search.Hit, error) {
	f.gotQ = query
	f.gotFilt = filters
	return f.hits, f.err
}

type fakeAnswerer struct {
	answer string
}

func (f *fakeAnswerer) Answer(_ context.Context, _ string, _ []search.Hit) string {
	return f.answer
}

func testHit(id, text string) search.Hit {
	return search.Hit{
		Result: vectorstore.Result{ID: id, Text: text, Metadata: map[string]string{"page": "1"}},
		Score:  0.9,
	}
}

func TestAskAPI(t *testing.T) {
	searcher := &fakeSearcher{hits: []search.Hit{testHit("d1::pg1::aa", "Context text.")}}
	h := New(searcher, &fakeAnswerer{answer: "The answer."}, nil)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	body := `{"q": "what?", "industries": ["mining"], "date_from": 100, "date_to": 200}`
	resp, err := http.Post(srv.URL+"/api/ask", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got askResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Answer != "The answer." {
		t.Errorf("answer = %q", got.Answer)
	}
	if len(got.Contexts) != 1 || got.Contexts[0].ID != "d1::pg1::aa" {
		t.Errorf("contexts = %+v", got.Contexts)
	}

	if searcher.gotQ != "what?" {
		t.Errorf("query = %q", searcher.gotQ)
	}
	want := search.Filters{Industries: []string{"mining"}, DateFrom: 100, DateTo: 200}
	if searcher.gotFilt.DateFrom != want.DateFrom || searcher.gotFilt.DateTo != want.DateTo ||
		len(searcher.gotFilt.Industries) != 1 || searcher.gotFilt.Industries[0] != "mining" {
		t.Errorf("filters = %+v, want %+v", searcher.gotFilt, want)
	}
}

func TestAskAPI_EmptyQuery(t *testing.T) {
	h := New(&fakeSearcher{}, &fakeAnswerer{}, nil)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	for _, body := range []string{`{"q": ""}`, `{"q": "   "}`, `{}`} {
		resp, err := http.Post(srv.URL+"/api/ask", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestAskAPI_MalformedJSON(t *testing.T) {
	h := New(&fakeSearcher{}, &fakeAnswerer{}, nil)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/ask", "application/json", strings.NewReader("{broken"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["error"] == "" {
		t.Error("error body missing")
	}
}

func TestHome(t *testing.T) {
	h := New(&fakeSearcher{}, &fakeAnswerer{}, nil)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
}

func TestAskForm(t *testing.T) {
	searcher := &fakeSearcher{hits: []search.Hit{testHit("d1::pg1::aa", "Some context.")}}
	h := New(searcher, &fakeAnswerer{answer: "Form answer."}, nil)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	form := url.Values{
		"q":          {"what happened"},
		"industries": {"mining, energy"},
		"countries":  {"AU"},
		"date_from":  {"100"},
		"date_to":    {"not a number"},
	}
	resp, err := http.PostForm(srv.URL+"/ask", form)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	buf := new(strings.Builder)
	if _, err := readAll(buf, resp); err != nil {
		t.Fatal(err)
	}
	page := buf.String()
	if !strings.Contains(page, "Form answer.") {
		t.Error("answer not rendered")
	}
	if !strings.Contains(page, "d1::pg1::aa") {
		t.Error("context hit not rendered")
	}

	if len(searcher.gotFilt.Industries) != 2 || searcher.gotFilt.Industries[1] != "energy" {
		t.Errorf("industries = %v", searcher.gotFilt.Industries)
	}
	if searcher.gotFilt.DateFrom != 100 || searcher.gotFilt.DateTo != 0 {
		t.Errorf("dates = %d..%d", searcher.gotFilt.DateFrom, searcher.gotFilt.DateTo)
	}
}

func TestAskForm_EmptyQuery(t *testing.T) {
	h := New(&fakeSearcher{}, &fakeAnswerer{}, nil)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.PostForm(srv.URL+"/ask", url.Values{"q": {"  "}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAskForm_EscapesHits(t *testing.T) {
	searcher := &fakeSearcher{hits: []search.Hit{testHit("id", `<script>alert(1)</script>`)}}
	h := New(searcher, &fakeAnswerer{}, nil)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.PostForm(srv.URL+"/ask", url.Values{"q": {"x"}})
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	buf := new(strings.Builder)
	if _, err := readAll(buf, resp); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<script>alert") {
		t.Error("hit text rendered unescaped")
	}
}

func readAll(buf *strings.Builder, resp *http.Response) (int64, error) {
	return io.Copy(buf, resp.Body)
}
