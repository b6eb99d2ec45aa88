package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"bookchunk/internal/models"
)

// NoTitle is used when a page has no recognizable heading.
const NoTitle = "No Title Found"

var (
	reWhitespace = regexp.MustCompile(`\s+`)

	openBlockRe  = regexp.MustCompile(`<(div|p|br|li|td|tr|h[1-6])(\s[^>]*)?>`)
	closeBlockRe = regexp.MustCompile(`</(div|p|br|li|td|tr|h[1-6])>`)
)

// Normalizer pulls the title and flat cleaned text out of one content
// page. When the designated container is missing it reports no content,
// unless the readability fallback is enabled.
type Normalizer struct {
	ContentSelector     string
	TitleSelector       string
	ObjectivesSelector  string
	ReadabilityFallback bool
}

// Extract returns the page content. ok is false when the content
// container is absent and no fallback applies; that is a normal
// outcome, not an error.
func (n *Normalizer) Extract(doc *goquery.Document, pageURL string) (models.PageContent, bool) {
	section := doc.Find(n.ContentSelector).First()
	if section.Length() == 0 {
		if n.ReadabilityFallback {
			return n.fallback(doc, pageURL)
		}
		return models.PageContent{}, false
	}

	title := strings.TrimSpace(section.Find(n.TitleSelector).First().Text())
	if title == "" {
		title = NoTitle
	}

	var parts []string
	if objectives := section.Find(n.ObjectivesSelector).First(); objectives.Length() > 0 {
		parts = append(parts, flattenText(objectives))
	}
	section.Find("p").Each(func(_ int, p *goquery.Selection) {
		parts = append(parts, flattenText(p))
	})

	text := normalizeText(strings.Join(parts, " "))
	if text == "" {
		return models.PageContent{}, false
	}
	return models.PageContent{Title: title, Text: text}, true
}

// fallback runs the page through readability and flattens the article
// body, for sites that do not mark their content container.
func (n *Normalizer) fallback(doc *goquery.Document, pageURL string) (models.PageContent, bool) {
	html, err := doc.Html()
	if err != nil {
		return models.PageContent{}, false
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return models.PageContent{}, false
	}
	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return models.PageContent{}, false
	}

	flat, err := goquery.NewDocumentFromReader(strings.NewReader(spaceBlockTags(article.Content)))
	if err != nil {
		return models.PageContent{}, false
	}
	text := normalizeText(flat.Text())
	if text == "" {
		return models.PageContent{}, false
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = NoTitle
	}
	return models.PageContent{Title: title, Text: text}, true
}

// flattenText spaces out a selection's block-level children before
// taking its text, so sibling elements like list items keep a word
// boundary between them.
func flattenText(sel *goquery.Selection) string {
	html, err := sel.Html()
	if err != nil {
		return sel.Text()
	}
	flat, err := goquery.NewDocumentFromReader(strings.NewReader(spaceBlockTags(html)))
	if err != nil {
		return sel.Text()
	}
	return flat.Text()
}

// spaceBlockTags pads block-level tags so their text does not fuse
// together when the markup is flattened.
func spaceBlockTags(html string) string {
	html = openBlockRe.ReplaceAllString(html, " $0")
	return closeBlockRe.ReplaceAllString(html, "$0 ")
}

func normalizeText(text string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))
}
