package server

import (
	"html/template"
	"net/http"

	"github.com/ebrodie/domainqa/internal/search"
)

// homePage carries the form state and results into the template. Filter
// fields are echoed back verbatim so the form keeps its values.
type homePage struct {
	Query      string
	Industries string
	Countries  string
	DateFrom   string
	DateTo     string
	Answer     string
	Hits       []search.Hit
}

var homeTemplate = template.Must(template.New("home").Funcs(template.FuncMap{
	"snippet": snippet,
}).Parse(homeHTML))

const snippetChars = 240

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetChars {
		return text
	}
	return string(runes[:snippetChars]) + "..."
}

func renderHome(w http.ResponseWriter, page homePage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	homeTemplate.Execute(w, page)
}

const homeHTML = `<!doctype html>
<html><head><title>Domain QA</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 2rem; max-width: 60rem; }
  textarea { width: 100%; height: 100px; }
  pre { background: #f7f7f7; padding: 1rem; white-space: pre-wrap; }
  .row { display: flex; gap: 1rem; align-items: end; }
  .row > div { flex: 1; }
  .row input { width: 100%; }
</style></head>
<body>
  <h2>Knowledge Base QA</h2>
  <form method="post" action="/ask">
    <textarea name="q" placeholder="Ask a question...">{{.Query}}</textarea>
    <div class="row">
      <div>
        <label>Industries (comma separated)</label><br/>
        <input type="text" name="industries" value="{{.Industries}}"/>
      </div>
      <div>
        <label>Country codes (comma separated)</label><br/>
        <input type="text" name="countries" value="{{.Countries}}"/>
      </div>
    </div>
    <div class="row">
      <div>
        <label>Date from (timestamp)</label><br/>
        <input type="text" name="date_from" value="{{.DateFrom}}"/>
      </div>
      <div>
        <label>Date to (timestamp)</label><br/>
        <input type="text" name="date_to" value="{{.DateTo}}"/>
      </div>
    </div>
    <button type="submit">Ask</button>
  </form>
  {{if .Answer}}<h3>Answer</h3><pre>{{.Answer}}</pre>{{end}}
  {{if .Hits}}
  <h3>Top Context</h3>
  <ol>
    {{range .Hits}}
    <li><code>{{.ID}}</code> [p={{index .Metadata "page"}}] &mdash; {{snippet .Text}}</li>
    {{end}}
  </ol>
  {{end}}
</body></html>
`
