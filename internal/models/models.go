package models

// Location is one content page discovered in the table of contents,
// tagged with the structural part it was found under.
type Location struct {
	URL       string `json:"url"`
	PartTitle string `json:"part_title"`
}

// PageContent is the normalized text of a single page. It only lives
// between extraction and splitting.
type PageContent struct {
	Title string
	Text  string
}

// ChunkMetadata describes where a chunk came from.
type ChunkMetadata struct {
	PartTitle  string `json:"part_title" bson:"part_title"`
	ChapterID  string `json:"chapter_id" bson:"chapter_id"`
	Title      string `json:"title" bson:"title"`
	SourceURL  string `json:"source_url" bson:"source_url"`
	ChunkIndex int    `json:"chunk_index" bson:"chunk_index"`
}

// Chunk is the final output unit handed to downstream indexing.
type Chunk struct {
	PageContent string        `json:"page_content" bson:"page_content"`
	Metadata    ChunkMetadata `json:"metadata" bson:"metadata"`
}
