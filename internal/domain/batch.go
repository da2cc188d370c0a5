package domain

// Batch is an ordered run of encoded payloads handed to a storage backend in one flush.
// Payloads keep the order in which they were appended.
type Batch [][]byte

// Size returns the number of payloads in the batch.
func (b Batch) Size() int {
	return len(b)
}

// Empty returns true if the batch has no payloads.
func (b Batch) Empty() bool {
	return len(b) == 0
}

// TotalBytes returns the sum of all payload lengths.
func (b Batch) TotalBytes() int {
	var total int
	for _, p := range b {
		total += len(p)
	}
	return total
}

// Chunks splits the batch into consecutive sub-batches of at most size payloads.
// The sub-batches share the backing array of b.
func (b Batch) Chunks(size int) []Batch {
	if size <= 0 || len(b) <= size {
		if len(b) == 0 {
			return nil
		}
		return []Batch{b}
	}
	chunks := make([]Batch, 0, (len(b)+size-1)/size)
	for i := 0; i < len(b); i += size {
		end := i + size
		if end > len(b) {
			end = len(b)
		}
		chunks = append(chunks, b[i:end:end])
	}
	return chunks
}
