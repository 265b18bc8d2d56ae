// Package report renders a standalone HTML summary of the model index.
package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/stanstrup/rePredRet/internal/dataset"
	"github.com/stanstrup/rePredRet/internal/pipeline"
)

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate *template.Template

func init() {
	compiledTemplate = template.Must(template.New("report").Parse(htmlTemplate))
}

type templateData struct {
	GeneratedAt string
	RunID       string
	Systems     []dataset.Dataset
	Entries     []pipeline.IndexEntry
}

// GenerateHTML renders the model index and dataset inventory as a
// self-contained HTML page.
func GenerateHTML(idx *pipeline.Index, datasets []dataset.Dataset) (string, error) {
	if idx == nil {
		return "", fmt.Errorf("index cannot be nil")
	}

	data := templateData{
		GeneratedAt: idx.GeneratedAt.Format("2006-01-02 15:04 MST"),
		RunID:       idx.RunID,
		Systems:     datasets,
		Entries:     idx.Entries,
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Retention time prediction models</title>
<style>
  body { font-family: sans-serif; margin: 2em; color: #222; }
  h1 { font-size: 1.4em; }
  table { border-collapse: collapse; margin: 1em 0; }
  th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
  th { background: #f0f0f0; }
  td.num { text-align: right; font-variant-numeric: tabular-nums; }
  .meta { color: #666; font-size: 0.9em; }
</style>
</head>
<body>
<h1>Retention time prediction models</h1>
<p class="meta">Generated {{.GeneratedAt}}{{if .RunID}} (run {{.RunID}}){{end}}</p>

<h2>Systems ({{len .Systems}})</h2>
<table>
<tr><th>ID</th><th>Name</th><th>Type</th><th>Compounds</th><th>DOI</th></tr>
{{range .Systems}}<tr>
<td>{{.ID}}</td><td>{{.Name}}</td><td>{{.SystemType}}</td>
<td class="num">{{.CompoundCount}}</td><td>{{.DOI}}</td>
</tr>
{{end}}</table>

<h2>Models ({{len .Entries}})</h2>
<table>
<tr><th>From</th><th>To</th><th>Compounds</th><th>Median CI width</th><th>Median abs. error</th><th>Built</th></tr>
{{range .Entries}}<tr>
<td>{{.Sys1}}</td><td>{{.Sys2}}</td>
<td class="num">{{.Compounds}}</td>
<td class="num">{{printf "%.3f" .MedianCIWidth}}</td>
<td class="num">{{printf "%.3f" .MedianAbsError}}</td>
<td>{{.BuiltAt}}</td>
</tr>
{{end}}</table>
</body>
</html>
`
