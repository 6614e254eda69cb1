package render

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"AINewsletter/internal/domain"
)

var htmlPage = template.Must(template.New("newsletter").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}} - {{.Date}}</title>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 0 auto; padding: 20px; }
h1 { color: #2c3e50; text-align: center; }
h2 { color: #3498db; }
.article { margin-bottom: 30px; padding-bottom: 20px; border-bottom: 1px solid #eee; }
.source, .empty { font-style: italic; color: #7f8c8d; }
.footer { text-align: center; margin-top: 30px; font-size: 0.8em; color: #7f8c8d; }
</style>
</head>
<body>
<h1>{{.Title}} - {{.Date}}</h1>
{{- if not .Articles}}
<p class="empty">{{.Empty}}</p>
{{- end}}
{{- range .Articles}}
<div class="article">
<h2>{{.Title}}</h2>
<div class="content">
{{- range .Paragraphs}}
<p>{{.}}</p>
{{- end}}
</div>
<p class="source">Source: <a href="{{.URL}}" target="_blank" rel="noopener">{{.Source}}</a>{{if .Published}} · {{.Published}}{{end}}</p>
</div>
{{- end}}
<div class="footer">Generated on {{.Generated}} by {{.Generator}}</div>
</body>
</html>
`))

type htmlArticle struct {
	Title      string
	Paragraphs []string
	URL        string
	Source     string
	Published  string
}

type htmlDoc struct {
	Title     string
	Date      string
	Empty     string
	Articles  []htmlArticle
	Generated string
	Generator string
}

// HTML renders doc as a standalone page with the same sections as Markdown.
func HTML(doc domain.Newsletter, loc *time.Location) ([]byte, error) {
	generated := doc.GeneratedAt.In(loc)
	view := htmlDoc{
		Title:     doc.Title,
		Date:      generated.Format(dateLayout),
		Empty:     emptyNotice,
		Generated: generated.Format(timestampLayout),
		Generator: generatorName,
	}

	for _, article := range doc.Articles {
		item := htmlArticle{
			Title:      sectionTitle(article.Ref),
			Paragraphs: paragraphs(article.FinalText()),
			URL:        article.Ref.URL,
			Source:     article.Ref.Source,
		}
		if article.Ref.PublishedAt != nil {
			item.Published = article.Ref.PublishedAt.In(loc).Format(dateLayout)
		}
		view.Articles = append(view.Articles, item)
	}

	var buf bytes.Buffer
	if err := htmlPage.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func paragraphs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
