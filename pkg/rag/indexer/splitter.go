package indexer

const (
	DefaultChunkSize = 1500 // runes
	DefaultOverlap   = 200
)

// SplitText splits text into chunks of at most chunkSize runes, each sharing
// overlap runes with the previous one. Empty text yields no chunks.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	totalLen := len(runes)
	if totalLen == 0 {
		return nil
	}
	if totalLen <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var chunks []string
	for i := 0; i < totalLen; i += step {
		end := min(i+chunkSize, totalLen)
		chunks = append(chunks, string(runes[i:end]))
		if end == totalLen {
			break
		}
	}
	return chunks
}
