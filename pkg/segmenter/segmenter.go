// Package segmenter splits raw extracted text into bounded-size chunks,
// the unit of embedding and retrieval.
package segmenter

import "strings"

type SegmenterConfig struct {
	// ChunkSize is the target chunk size in whitespace-delimited words.
	ChunkSize int
}

type Segmenter struct {
	config SegmenterConfig
}

func NewWithConfig(config SegmenterConfig) Segmenter {
	if config.ChunkSize <= 0 {
		config.ChunkSize = 500
	}
	return Segmenter{config: config}
}

func New() Segmenter {
	return NewWithConfig(SegmenterConfig{})
}

// Segment greedily packs consecutive words until the size threshold and
// emits the final partial chunk as-is. Word-count windows are a deliberate
// imprecision; no sentence-boundary awareness. Empty text yields zero
// chunks, which callers treat as "no content" rather than an error.
func (s Segmenter) Segment(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	size := s.config.ChunkSize
	chunks := make([]string, 0, (len(words)+size-1)/size)
	for i := 0; i < len(words); i += size {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}
