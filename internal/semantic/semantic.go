// Package semantic implements the on-disk vector store of spec.md
// §4.H: a per-segment packed-float32 vector file plus a JSON metadata
// sidecar under <index>/semantic/, backed in memory by a
// github.com/coder/hnsw graph for fast nearest-neighbor candidate
// generation. Reload is independent of the symbol store (internal/
// store) so a corrupt or missing semantic/ directory only disables
// the semantic endpoints, never the rest of the index (spec.md §7).
package semantic

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/standardbeagle/codanna-go/internal/ids"
)

// Embedder is the external embed-one-text collaborator (spec.md §1);
// the model itself is out of scope here, only this interface is.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	ModelName() string
}

// Metadata mirrors semantic/metadata.json (spec.md §4.H).
type Metadata struct {
	ModelName      string `json:"model_name"`
	Dimension      int    `json:"dimension"`
	EmbeddingCount int    `json:"embedding_count"`
	SegmentCount   int    `json:"segment_count"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

// Hit is one scored match from Search: a symbol ID and a cosine
// similarity in [-1,1] (spec.md §9 flags the CLI's [0,1] doc as a
// likely bug; this store reports the true cosine range and leaves
// any rescaling to the caller).
type Hit struct {
	SymbolID ids.SymbolID
	Score    float32
}

// Store is the semantic vector index for one codanna index directory.
// The active segment's vectors are buffered in memory until Save
// flushes them to a new segment_N.vec file; Load rebuilds both the
// vector map and the hnsw graph from every segment on disk.
type Store struct {
	mu       sync.RWMutex
	embedder Embedder
	meta     Metadata
	graph    *hnsw.Graph[uint64]
	vectors  map[ids.SymbolID][]float32
	langOf   map[ids.SymbolID]ids.LanguageID
	pending  []pendingVector
}

type pendingVector struct {
	id  ids.SymbolID
	vec []float32
}

// New creates an empty store for the given embedder. Call Load
// afterward to restore persisted state, if any.
func New(embedder Embedder) *Store {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.Ml = 0.25
	g.EfSearch = 100
	return &Store{
		embedder: embedder,
		meta:     Metadata{ModelName: embedder.ModelName(), Dimension: embedder.Dimensions()},
		graph:    g,
		vectors:  make(map[ids.SymbolID][]float32),
		langOf:   make(map[ids.SymbolID]ids.LanguageID),
	}
}

// Dimension reports the embedding dimension this store was built for.
func (s *Store) Dimension() int { return s.meta.Dimension }

// EmbeddingCount reports the persisted embedding count as of the last
// Load/Save plus the pending vectors not yet saved.
func (s *Store) EmbeddingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.EmbeddingCount + len(s.pending)
}

// Info returns a copy of the current metadata for get_index_info.
func (s *Store) Info() Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// EmbedSymbol computes an embedding for docText (a symbol's doc
// comment, optionally concatenated with its signature) and buffers
// (symbolID, vector) for the next Save. It updates the in-memory
// search graph immediately so a query issued before the next Save
// still sees it.
func (s *Store) EmbedSymbol(ctx context.Context, symbolID ids.SymbolID, languageID ids.LanguageID, docText string) error {
	vec, err := s.embedder.Embed(ctx, docText)
	if err != nil {
		return fmt.Errorf("semantic: embed symbol %d: %w", symbolID, err)
	}
	if len(vec) != s.meta.Dimension {
		return fmt.Errorf("semantic: embedder returned dimension %d, store expects %d", len(vec), s.meta.Dimension)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[symbolID] = vec
	s.langOf[symbolID] = languageID
	s.graph.Add(hnsw.MakeNode(uint64(symbolID), vec))
	s.pending = append(s.pending, pendingVector{id: symbolID, vec: vec})
	return nil
}

// Search embeds query, finds the top-k nearest neighbors above
// threshold (if non-nil), optionally restricted to languageFilter,
// and returns them ranked by score descending with a stable
// score-then-id tie-break (spec.md §4.H).
func (s *Store) Search(ctx context.Context, query string, topK int, threshold *float32, languageFilter *ids.LanguageID) ([]Hit, error) {
	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("semantic: embed query: %w", err)
	}
	return s.SearchVector(qvec, topK, threshold, languageFilter)
}

// SearchVector is Search without the embed-query step, exposed so
// semantic_search_with_context can reuse one query embedding across
// multiple downstream lookups.
func (s *Store) SearchVector(qvec []float32, topK int, threshold *float32, languageFilter *ids.LanguageID) ([]Hit, error) {
	if len(qvec) != s.meta.Dimension {
		return nil, fmt.Errorf("semantic: query dimension %d does not match store dimension %d", len(qvec), s.meta.Dimension)
	}
	if topK <= 0 {
		topK = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.graph.Len() == 0 {
		return nil, nil
	}

	// Overfetch from the graph since post-filtering (language,
	// threshold) can drop candidates the HNSW approximate search
	// already ranked highly.
	overfetch := topK * 4
	if overfetch < 50 {
		overfetch = 50
	}
	if overfetch > s.graph.Len() {
		overfetch = s.graph.Len()
	}
	nodes := s.graph.Search(qvec, overfetch)

	hits := make([]Hit, 0, len(nodes))
	for _, n := range nodes {
		symID := ids.SymbolID(n.Key)
		if languageFilter != nil {
			if lang, ok := s.langOf[symID]; !ok || lang != *languageFilter {
				continue
			}
		}
		score := cosineSimilarity(qvec, n.Value)
		if threshold != nil && score < *threshold {
			continue
		}
		hits = append(hits, Hit{SymbolID: symID, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].SymbolID < hits[j].SymbolID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// dir returns the semantic/ subdirectory under indexPath.
func dir(indexPath string) string { return filepath.Join(indexPath, "semantic") }

// Save flushes pending embeddings to a new segment_N.vec file and
// rewrites metadata.json. It is a no-op (beyond touching the
// timestamp) when there are no pending vectors.
func (s *Store) Save(indexPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	root := dir(indexPath)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("semantic: mkdir %s: %w", root, err)
	}

	if len(s.pending) > 0 {
		segPath := filepath.Join(root, fmt.Sprintf("segment_%d.vec", s.meta.SegmentCount))
		if err := writeSegment(segPath, s.pending); err != nil {
			return err
		}
		s.meta.SegmentCount++
		s.meta.EmbeddingCount += len(s.pending)
		s.pending = nil
	}
	metaBytes, err := json.MarshalIndent(s.meta, "", "  ")
	if err != nil {
		return fmt.Errorf("semantic: marshal metadata: %w", err)
	}
	return os.WriteFile(filepath.Join(root, "metadata.json"), metaBytes, 0o644)
}

// Touch stamps CreatedAt (if unset) and UpdatedAt with the given unix
// timestamp, since this package cannot call time.Now() directly under
// the workflow's deterministic-script constraint; callers (the
// indexer) pass in wall-clock time themselves.
func (s *Store) Touch(unixSeconds int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.meta.CreatedAt == 0 {
		s.meta.CreatedAt = unixSeconds
	}
	s.meta.UpdatedAt = unixSeconds
}

func writeSegment(path string, vecs []pendingVector) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("semantic: create segment %s: %w", path, err)
	}
	defer f.Close()

	for _, pv := range vecs {
		var idBuf [8]byte
		binary.LittleEndian.PutUint64(idBuf[:], uint64(pv.id))
		if _, err := f.Write(idBuf[:]); err != nil {
			return err
		}
		for _, v := range pv.vec {
			var fBuf [4]byte
			binary.LittleEndian.PutUint32(fBuf[:], math.Float32bits(v))
			if _, err := f.Write(fBuf[:]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load reads metadata.json and every segment_N.vec under
// <indexPath>/semantic/, rebuilding the in-memory vector map and hnsw
// graph. Load is independent of the symbol store: a missing or
// unreadable semantic/ directory just leaves the store empty rather
// than failing, since semantic search is optional (spec.md §4.H, §7).
// langLookup resolves each restored symbol's LanguageID for the
// search language filter; a symbol the main store no longer has is
// skipped rather than failing the whole load.
func Load(indexPath string, embedder Embedder, langLookup func(ids.SymbolID) (ids.LanguageID, bool)) (*Store, error) {
	s := New(embedder)
	root := dir(indexPath)

	metaBytes, err := os.ReadFile(filepath.Join(root, "metadata.json"))
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("semantic: read metadata.json under %s: %w", root, err)
	}
	var meta Metadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return s, fmt.Errorf("semantic: parse metadata.json under %s: %w", root, err)
	}
	if meta.Dimension != s.meta.Dimension || meta.ModelName != s.meta.ModelName {
		return s, fmt.Errorf("semantic: metadata under %s was built with model %q dim %d, current embedder is %q dim %d",
			root, meta.ModelName, meta.Dimension, s.meta.ModelName, s.meta.Dimension)
	}
	s.meta = meta

	for seg := 0; seg < meta.SegmentCount; seg++ {
		segPath := filepath.Join(root, fmt.Sprintf("segment_%d.vec", seg))
		if err := s.loadSegment(segPath, langLookup); err != nil {
			return s, fmt.Errorf("semantic: load %s: %w", segPath, err)
		}
	}
	return s, nil
}

func (s *Store) loadSegment(path string, langLookup func(ids.SymbolID) (ids.LanguageID, bool)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	recordSize := 8 + s.meta.Dimension*4
	if recordSize <= 0 {
		return fmt.Errorf("invalid dimension %d", s.meta.Dimension)
	}
	for off := 0; off+recordSize <= len(data); off += recordSize {
		symID := ids.SymbolID(binary.LittleEndian.Uint64(data[off : off+8]))
		vec := make([]float32, s.meta.Dimension)
		for i := 0; i < s.meta.Dimension; i++ {
			bits := binary.LittleEndian.Uint32(data[off+8+i*4 : off+12+i*4])
			vec[i] = math.Float32frombits(bits)
		}
		s.vectors[symID] = vec
		s.graph.Add(hnsw.MakeNode(uint64(symID), vec))
		if langLookup != nil {
			if lang, ok := langLookup(symID); ok {
				s.langOf[symID] = lang
			}
		}
	}
	return nil
}

// MetadataPaths returns the paths reload failures should mention, per
// spec.md §7's "failures disable semantic endpoints with a clear
// message including the expected paths".
func MetadataPaths(indexPath string) (metadataPath string, segmentGlob string) {
	root := dir(indexPath)
	return filepath.Join(root, "metadata.json"), filepath.Join(root, "segment_*.vec")
}
