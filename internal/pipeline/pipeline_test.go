package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookchunk/internal/extract"
	"bookchunk/internal/fetch"
	"bookchunk/internal/splitter"
	"bookchunk/internal/toc"
)

const tocPage = `<html><body><ol class="toc">
	<li class="part">
		<div class="toc-part-header"><span class="part-text">Fundamentals</span></div>
		<ol>
			<li><a href="/front-matter/introduction/">Introduction</a></li>
			<li><a href="/chapter/1-1/">Ch 1.1</a></li>
			<li><a href="/chapter/1-2/">Ch 1.2</a></li>
		</ol>
	</li>
	<li class="part">
		<div class="toc-part-header"><span class="part-text">Care</span></div>
		<ol>
			<li><a href="/chapter/2-1/">Ch 2.1</a></li>
			<li><a href="/chapter/1-1/">Ch 1.1 duplicate</a></li>
		</ol>
	</li>
</ol></body></html>`

func contentPage(title, body string) string {
	return `<html><body><section class="chapter"><h1 class="entry-title">` +
		title + `</h1><p>` + body + `</p></section></body></html>`
}

func bookServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Write([]byte(tocPage))
		case "/front-matter/introduction/":
			w.Write([]byte(contentPage("Introduction", "Welcome to the book.")))
		case "/chapter/1-1/":
			w.Write([]byte(contentPage("Basics", "Chapter one one text.")))
		case "/chapter/1-2/":
			// page exists but has no content container
			w.Write([]byte(`<html><body><div>nothing here</div></body></html>`))
		case "/chapter/2-1/":
			w.Write([]byte(contentPage("Advanced", "Chapter two one text.")))
		default:
			http.NotFound(w, r)
		}
	})
	return httptest.NewServer(mux)
}

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	walker, err := toc.NewWalker("ol.toc", "part", "div.toc-part-header span.part-text", `/chapter/`, `/front-matter/`)
	require.NoError(t, err)
	normalizer := &extract.Normalizer{
		ContentSelector:    "section.chapter",
		TitleSelector:      "h1.entry-title",
		ObjectivesSelector: "div.textbox--learning-objectives",
	}
	client := fetch.NewClient("bookchunk-test", 0)
	return New(client, walker, normalizer, splitter.New(1000, 150, nil), 0)
}

func TestRunProducesOrderedAnnotatedChunks(t *testing.T) {
	srv := bookServer(t)
	defer srv.Close()

	chunks := testPipeline(t).Run(context.Background(), srv.URL+"/")
	require.Len(t, chunks, 3)

	intro := chunks[0]
	assert.Equal(t, "Welcome to the book.", intro.PageContent)
	assert.Equal(t, "Fundamentals", intro.Metadata.PartTitle)
	assert.Equal(t, NoChapterID, intro.Metadata.ChapterID)
	assert.Equal(t, "Introduction", intro.Metadata.Title)
	assert.Equal(t, srv.URL+"/front-matter/introduction/", intro.Metadata.SourceURL)
	assert.Equal(t, 0, intro.Metadata.ChunkIndex)

	ch11 := chunks[1]
	assert.Equal(t, "1-1", ch11.Metadata.ChapterID)
	assert.Equal(t, "Fundamentals", ch11.Metadata.PartTitle)
	assert.Equal(t, 0, ch11.Metadata.ChunkIndex)

	ch21 := chunks[2]
	assert.Equal(t, "2-1", ch21.Metadata.ChapterID)
	assert.Equal(t, "Care", ch21.Metadata.PartTitle)

	// the container-less and duplicate pages must not contribute
	for _, chunk := range chunks {
		assert.NotContains(t, chunk.Metadata.SourceURL, "/chapter/1-2/")
	}
}

func TestRunSkipsFailingLocationAndContinues(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Write([]byte(`<ol class="toc">
				<li><a href="/chapter/1-1/">one</a></li>
				<li><a href="/chapter/2-1/">two</a></li>
			</ol>`))
		case "/chapter/2-1/":
			w.Write([]byte(contentPage("Survivor", "Still processed.")))
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	chunks := testPipeline(t).Run(context.Background(), srv.URL+"/")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Still processed.", chunks[0].PageContent)
	assert.Equal(t, toc.DefaultPartTitle, chunks[0].Metadata.PartTitle)
}

func TestRunUnreachableSeedYieldsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing is listening anymore

	chunks := testPipeline(t).Run(context.Background(), srv.URL+"/")
	assert.Empty(t, chunks)
}

func TestRunMissingTOCYieldsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>no toc</p></body></html>`))
	}))
	defer srv.Close()

	chunks := testPipeline(t).Run(context.Background(), srv.URL+"/")
	assert.Empty(t, chunks)
}

func TestChapterID(t *testing.T) {
	assert.Equal(t, "8-4", ChapterID("https://books.example/chapter/8-4/"))
	assert.Equal(t, "8-4", ChapterID("https://books.example/chapter/8-4"))
	assert.Equal(t, "appendix_b", ChapterID("https://books.example/chapter/appendix_b/"))
	assert.Equal(t, NoChapterID, ChapterID("https://books.example/front-matter/preface/"))
	assert.Equal(t, NoChapterID, ChapterID("https://books.example/chapter/8-4/extras/"))
}
