package email

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"

	"VideoDigest/internal/domain"
)

var bodyTemplate = template.Must(template.New("summary").Parse(`<html><body>
<p>A new video has been posted on the '{{.Channel}}' channel:</p>
<p>
<b>Title:</b> {{.Title}}<br>
<b>Duration:</b> {{.Duration}}<br>
<b>Link:</b> <a href="{{.URL}}">{{.URL}}</a>
</p>
{{range .Sections}}<hr>
<h2>{{.Heading}}</h2>
<div>{{.Body}}</div>
{{end}}</body></html>
`))

var blankLines = regexp.MustCompile(`\n{3,}`)

type section struct {
	Heading string
	Body    template.HTML
}

// Message is a rendered notification.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// Render builds the subject and both bodies for details.
func Render(details domain.ItemDetails) (Message, error) {
	sections := make([]section, 0, len(domain.ArtifactKinds))
	for _, kind := range domain.ArtifactKinds {
		body, err := markdownToHTML(details.Artifacts.Get(kind))
		if err != nil {
			return Message{}, fmt.Errorf("render %s: %w", kind, err)
		}
		sections = append(sections, section{Heading: kind.Heading(), Body: body})
	}

	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, map[string]any{
		"Channel":  details.ChannelName,
		"Title":    details.Item.Title,
		"Duration": domain.FormatDuration(details.Duration),
		"URL":      details.Item.URL(),
		"Sections": sections,
	})
	if err != nil {
		return Message{}, fmt.Errorf("render body: %w", err)
	}

	text, err := htmlToText(buf.String())
	if err != nil {
		return Message{}, err
	}

	return Message{
		Subject: Subject(details),
		HTML:    buf.String(),
		Text:    text,
	}, nil
}

// Subject is "New YouTube Summary: [<channel>] <title>".
func Subject(details domain.ItemDetails) string {
	return fmt.Sprintf("New YouTube Summary: [%s] %s", details.ChannelName, details.Item.Title)
}

// markdownToHTML renders generated Markdown. Raw HTML in the input is
// dropped by goldmark's default renderer.
func markdownToHTML(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil //nolint:gosec // goldmark output with unsafe rendering disabled
}

// htmlToText derives the plain-text alternative from the HTML body.
func htmlToText(body string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html body: %w", err)
	}

	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("hr").ReplaceWithHtml("\n----\n")
	doc.Find("li").PrependHtml("- ")
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && strings.TrimSpace(a.Text()) != href {
			a.AppendHtml(" (" + template.HTMLEscapeString(href) + ")")
		}
	})
	doc.Find("p, h1, h2, h3, h4, h5, h6, li, div, pre, blockquote, tr").AppendHtml("\n")

	lines := strings.Split(doc.Text(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text) + "\n", nil
}
