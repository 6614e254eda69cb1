package render

import (
	"fmt"
	"strings"
	"time"

	"AINewsletter/internal/domain"
)

var linkTextEscaper = strings.NewReplacer("[", `\[`, "]", `\]`)
var linkURLEscaper = strings.NewReplacer("(", "%28", ")", "%29", " ", "%20")

// Markdown renders doc with one section per article in the given order.
func Markdown(doc domain.Newsletter, loc *time.Location) string {
	generated := doc.GeneratedAt.In(loc)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s - %s\n\n", doc.Title, generated.Format(dateLayout))

	if len(doc.Articles) == 0 {
		fmt.Fprintf(&b, "_%s_\n\n", emptyNotice)
	}

	for _, article := range doc.Articles {
		fmt.Fprintf(&b, "## %s\n\n", sectionTitle(article.Ref))
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(article.FinalText()))
		fmt.Fprintf(&b, "*Source: [%s](%s)", linkTextEscaper.Replace(article.Ref.Source), linkURLEscaper.Replace(article.Ref.URL))
		if published := article.Ref.PublishedAt; published != nil {
			fmt.Fprintf(&b, " · %s", published.In(loc).Format(dateLayout))
		}
		b.WriteString("*\n\n---\n\n")
	}

	fmt.Fprintf(&b, "*Generated on %s by %s*\n", generated.Format(timestampLayout), generatorName)
	return b.String()
}

func sectionTitle(ref domain.ArticleRef) string {
	title := strings.Join(strings.Fields(ref.Title), " ")
	if title == "" {
		return untitled
	}
	return title
}
