package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

type SourceConfig struct {
	BaseURL            string `yaml:"base_url"`
	ChapterPattern     string `yaml:"chapter_pattern"`
	FrontMatterPattern string `yaml:"front_matter_pattern"`
}

type TOCConfig struct {
	RootSelector      string `yaml:"root_selector"`
	PartClass         string `yaml:"part_class"`
	PartTitleSelector string `yaml:"part_title_selector"`
}

type ExtractConfig struct {
	ContentSelector     string `yaml:"content_selector"`
	TitleSelector       string `yaml:"title_selector"`
	ObjectivesSelector  string `yaml:"objectives_selector"`
	ReadabilityFallback bool   `yaml:"readability_fallback"`
}

type SplitterConfig struct {
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	Separators   []string `yaml:"separators"`
}

type FetchConfig struct {
	UserAgent  string `yaml:"user_agent"`
	TimeoutSec int    `yaml:"timeout_sec"`
	DelayMS    int    `yaml:"delay_ms"`
}

type MongoConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Connection string `yaml:"connection"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type StoreConfig struct {
	OutputFile string      `yaml:"output_file"`
	Mongo      MongoConfig `yaml:"mongo"`
}

type Config struct {
	Source   SourceConfig   `yaml:"source"`
	TOC      TOCConfig      `yaml:"toc"`
	Extract  ExtractConfig  `yaml:"extract"`
	Splitter SplitterConfig `yaml:"splitter"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Store    StoreConfig    `yaml:"store"`
}

// Default returns a configuration that ingests a Pressbooks book
// without any config file present.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL:            "https://wtcs.pressbooks.pub/nurseassist/",
			ChapterPattern:     `/chapter/`,
			FrontMatterPattern: `/front-matter/`,
		},
		TOC: TOCConfig{
			RootSelector:      "ol.toc",
			PartClass:         "part",
			PartTitleSelector: "div.toc-part-header span.part-text",
		},
		Extract: ExtractConfig{
			ContentSelector:    "section.chapter",
			TitleSelector:      "h1.entry-title",
			ObjectivesSelector: "div.textbox--learning-objectives",
		},
		Splitter: SplitterConfig{
			ChunkSize:    1000,
			ChunkOverlap: 150,
			Separators:   []string{"\n\n", "\n", ". ", "? ", "! "},
		},
		Fetch: FetchConfig{
			UserAgent:  "Mozilla/5.0 (compatible; bookchunk/1.0)",
			TimeoutSec: 30,
			DelayMS:    500,
		},
		Store: StoreConfig{
			OutputFile: "book_chunks.json",
			Mongo: MongoConfig{
				Connection: "mongodb://localhost:27017",
				Database:   "bookchunk",
				Collection: "chunks",
			},
		},
	}
}

// LoadConfig reads a yaml file over the defaults, so a partial file
// only has to name the values it changes.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
