package toc

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bookchunk/internal/models"
)

// DefaultPartTitle tags locations discovered before any part header.
const DefaultPartTitle = "General"

// ErrNoTOC is returned when the document has no table-of-contents root.
var ErrNoTOC = errors.New("table of contents not found")

// Walker turns a book's table of contents into an ordered list of
// content locations, each tagged with the part it sits under.
type Walker struct {
	RootSelector      string
	PartClass         string
	PartTitleSelector string

	chapterRe     *regexp.Regexp
	frontMatterRe *regexp.Regexp
}

func NewWalker(root, partClass, partTitle, chapterPattern, frontMatterPattern string) (*Walker, error) {
	chapterRe, err := regexp.Compile(chapterPattern)
	if err != nil {
		return nil, fmt.Errorf("chapter pattern: %w", err)
	}
	frontMatterRe, err := regexp.Compile(frontMatterPattern)
	if err != nil {
		return nil, fmt.Errorf("front-matter pattern: %w", err)
	}
	return &Walker{
		RootSelector:      root,
		PartClass:         partClass,
		PartTitleSelector: partTitle,
		chapterRe:         chapterRe,
		frontMatterRe:     frontMatterRe,
	}, nil
}

// Walk inspects the direct children of the TOC root for part markers
// and collects every qualifying link under them, nested or not. The
// result preserves first-seen order and contains each URL once.
func (w *Walker) Walk(doc *goquery.Document, base *url.URL) ([]models.Location, error) {
	root := doc.Find(w.RootSelector).First()
	if root.Length() == 0 {
		return nil, ErrNoTOC
	}

	var all []models.Location
	partTitle := DefaultPartTitle
	items := root.ChildrenFiltered("li")
	for i := 0; i < items.Length(); i++ {
		var found []models.Location
		partTitle, found = w.walkItem(items.Eq(i), base, partTitle)
		all = append(all, found...)
	}
	return dedupe(all), nil
}

// walkItem threads the active part title through the traversal: a part
// marker with extractable text replaces it, anything else carries the
// previous value forward.
func (w *Walker) walkItem(item *goquery.Selection, base *url.URL, partTitle string) (string, []models.Location) {
	if item.HasClass(w.PartClass) {
		if name := strings.TrimSpace(item.Find(w.PartTitleSelector).First().Text()); name != "" {
			partTitle = name
		}
	}

	var found []models.Location
	item.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		loc, ok := w.resolve(base, href)
		if !ok {
			return
		}
		found = append(found, models.Location{URL: loc, PartTitle: partTitle})
	})
	return partTitle, found
}

// resolve makes href absolute and admits it only when it points at
// chapter or front-matter content.
func (w *Walker) resolve(base *url.URL, href string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	loc := normalizeURL(base.ResolveReference(ref))
	if !w.chapterRe.MatchString(loc) && !w.frontMatterRe.MatchString(loc) {
		return "", false
	}
	return loc, true
}

func normalizeURL(u *url.URL) string {
	u.Fragment = ""
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u.String()
}

func dedupe(locations []models.Location) []models.Location {
	seen := make(map[string]bool, len(locations))
	var unique []models.Location
	for _, loc := range locations {
		if seen[loc.URL] {
			continue
		}
		seen[loc.URL] = true
		unique = append(unique, loc)
	}
	return unique
}
