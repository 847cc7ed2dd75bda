// Package batch implements the bulk execution engine: deterministic
// chunking of item lists and wave-based concurrent execution with a pacing
// gate between waves. Every request is awaited; partial failures are
// collected instead of aborting the run.
package batch

// DefaultChunkSize is the conservative default number of subreddit
// fullnames per subscribe request. The API accepts larger batches but
// smaller chunks keep individual failures cheap.
const DefaultChunkSize = 25

// Split partitions items into consecutive chunks of at most size elements,
// preserving order. The final chunk holds the remainder. A nil or empty
// input yields no chunks.
func Split(items []string, size int) [][]string {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}

	chunks := make([][]string, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
