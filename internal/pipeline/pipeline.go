package pipeline

import (
	"context"
	"net/url"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"bookchunk/internal/extract"
	"bookchunk/internal/models"
	"bookchunk/internal/splitter"
	"bookchunk/internal/toc"
)

// NoChapterID marks locations without a chapter-style slug, such as
// front-matter pages.
const NoChapterID = "N/A"

var chapterSlugRe = regexp.MustCompile(`/chapter/([A-Za-z0-9_-]+)/?$`)

// Fetcher returns a parsed page for a URL.
type Fetcher interface {
	FetchDocument(ctx context.Context, url string) (*goquery.Document, error)
}

// Pipeline drives discovery, extraction and splitting for one book,
// strictly one location at a time.
type Pipeline struct {
	fetcher    Fetcher
	walker     *toc.Walker
	normalizer *extract.Normalizer
	splitter   *splitter.Splitter
	delay      time.Duration
}

func New(fetcher Fetcher, walker *toc.Walker, normalizer *extract.Normalizer, split *splitter.Splitter, delay time.Duration) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		walker:     walker,
		normalizer: normalizer,
		splitter:   split,
		delay:      delay,
	}
}

// Discover fetches the seed page and walks its table of contents. Any
// discovery failure ends the run with nothing to process; it is logged,
// not propagated.
func (p *Pipeline) Discover(ctx context.Context, seed string) []models.Location {
	base, err := url.Parse(seed)
	if err != nil {
		log.Error("invalid seed url", "url", seed, "err", err)
		return nil
	}
	doc, err := p.fetcher.FetchDocument(ctx, seed)
	if err != nil {
		log.Error("cannot fetch seed page", "url", seed, "err", err)
		return nil
	}
	locations, err := p.walker.Walk(doc, base)
	if err != nil {
		log.Error("discovery failed", "url", seed, "err", err)
		return nil
	}
	log.Info("discovered content locations", "count", len(locations))
	return locations
}

// Run executes the whole pipeline and returns the aggregated chunks,
// in location order, each location's chunks in source order.
func (p *Pipeline) Run(ctx context.Context, seed string) []models.Chunk {
	start := time.Now()
	locations := p.Discover(ctx, seed)

	var chunks []models.Chunk
	skipped := 0
	for i, location := range locations {
		if ctx.Err() != nil {
			log.Warn("run cancelled", "processed", i, "total", len(locations))
			break
		}
		if i > 0 && p.delay > 0 {
			time.Sleep(p.delay)
		}
		log.Info("processing location", "n", i+1, "total", len(locations), "url", location.URL)

		produced, ok := p.processLocation(ctx, location)
		if !ok {
			skipped++
			continue
		}
		chunks = append(chunks, produced...)
	}

	log.Info("run finished",
		"locations", len(locations),
		"skipped", skipped,
		"chunks", len(chunks),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return chunks
}

// processLocation fetches, normalizes and splits one page. Every
// failure downgrades to a skip.
func (p *Pipeline) processLocation(ctx context.Context, location models.Location) ([]models.Chunk, bool) {
	doc, err := p.fetcher.FetchDocument(ctx, location.URL)
	if err != nil {
		log.Warn("fetch failed, skipping", "url", location.URL, "err", err)
		return nil, false
	}

	page, ok := p.normalizer.Extract(doc, location.URL)
	if !ok {
		log.Warn("no content found, skipping", "url", location.URL)
		return nil, false
	}

	chapterID := ChapterID(location.URL)
	pieces := p.splitter.Split(page.Text)
	chunks := make([]models.Chunk, 0, len(pieces))
	for idx, piece := range pieces {
		chunks = append(chunks, models.Chunk{
			PageContent: piece,
			Metadata: models.ChunkMetadata{
				PartTitle:  location.PartTitle,
				ChapterID:  chapterID,
				Title:      page.Title,
				SourceURL:  location.URL,
				ChunkIndex: idx,
			},
		})
	}
	log.Debug("location chunked", "url", location.URL, "chunks", len(chunks), "chapter", chapterID)
	return chunks, true
}

// ChapterID extracts the slug of a chapter-style URL, e.g. "8-4" from
// ".../chapter/8-4/". Anything else gets NoChapterID.
func ChapterID(urlStr string) string {
	if m := chapterSlugRe.FindStringSubmatch(urlStr); m != nil {
		return m[1]
	}
	return NoChapterID
}
