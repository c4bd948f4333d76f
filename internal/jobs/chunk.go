package jobs

import "strings"

// Chunk is a bounded text segment of a document. Index is assigned at intake
// and stable for the life of the Job; Offset is the chunk's starting byte
// offset in the original text.
type Chunk struct {
	Index  int    `json:"index"`
	Offset int    `json:"offset"`
	Text   string `json:"text"`
}

// ChunkText splits extracted document text into paragraph chunks on blank
// lines, assigning stable indices and document offsets. Empty paragraphs are
// skipped but do not perturb offsets.
func ChunkText(text string) []Chunk {
	chunks := make([]Chunk, 0)
	offset := 0

	for _, para := range strings.Split(text, "\n\n") {
		trimmed := strings.TrimSpace(para)
		if trimmed != "" {
			lead := strings.Index(para, trimmed)
			chunks = append(chunks, Chunk{
				Index:  len(chunks),
				Offset: offset + lead,
				Text:   trimmed,
			})
		}
		offset += len(para) + 2
	}

	return chunks
}

// JoinChunks reassembles chunk text for document-scope checks. Chunk order
// follows intake indices.
func JoinChunks(chunks []Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return strings.Join(parts, "\n\n")
}
