package contextstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryIndex ranks chunks by cosine similarity in process.
type MemoryIndex struct {
	mu     sync.RWMutex
	chunks map[string]Chunk
	order  map[string]int64
	seq    int64
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{chunks: map[string]Chunk{}, order: map[string]int64{}}
}

func (m *MemoryIndex) Upsert(ctx context.Context, chunks []Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		if _, ok := m.order[c.ID]; !ok {
			m.seq++
			m.order[c.ID] = m.seq
		}
		m.chunks[c.ID] = c
	}
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, subjectID string, query []float32, k int) ([]Chunk, error) {
	type scored struct {
		chunk Chunk
		score float64
	}
	m.mu.RLock()
	hits := make([]scored, 0)
	for _, c := range m.chunks {
		if c.SubjectID == subjectID {
			hits = append(hits, scored{chunk: c, score: cosine(query, c.Embedding)})
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score == hits[j].score {
			return hits[i].chunk.ID < hits[j].chunk.ID
		}
		return hits[i].score > hits[j].score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]Chunk, len(hits))
	for i, h := range hits {
		out[i] = h.chunk
	}
	return out, nil
}

func (m *MemoryIndex) List(ctx context.Context, subjectID string, limit int) ([]Chunk, error) {
	m.mu.RLock()
	out := make([]Chunk, 0)
	for _, c := range m.chunks {
		if c.SubjectID == subjectID {
			out = append(out, c)
		}
	}
	order := make(map[string]int64, len(out))
	for _, c := range out {
		order[c.ID] = m.order[c.ID]
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return order[out[i].ID] < order[out[j].ID] })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryIndex) Delete(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.chunks, id)
		delete(m.order, id)
	}
	return nil
}

func (m *MemoryIndex) DeleteSubject(ctx context.Context, subjectID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.chunks {
		if c.SubjectID == subjectID {
			delete(m.chunks, id)
			delete(m.order, id)
			n++
		}
	}
	return n, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ Index = (*MemoryIndex)(nil)
