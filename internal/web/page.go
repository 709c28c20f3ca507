package web

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/jwulff/glucotrack/internal/bloodsugar"
	"github.com/jwulff/glucotrack/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcMap = template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"hba1c": bloodsugar.FormatHbA1c,
}

var pages = template.Must(template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html"))

// pageData is the view model for index.html.
type pageData struct {
	Fasting      string
	Postprandial string
	Error        string
	Result       *session.Result
	Entries      []session.Entry
}

func renderPage(data pageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, "index.html", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
