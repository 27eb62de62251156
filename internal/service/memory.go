package service

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/ezhov-dev/zapguard/internal/ai"
	"github.com/ezhov-dev/zapguard/internal/database"
	"github.com/ezhov-dev/zapguard/internal/logger"
)

// Matches below this cosine score are noise, not memories.
const memoryMinScore = 0.3

type Embedder interface {
	Embeddings(ctx context.Context, model, apiKey string, input []string) ([][]float64, error)
}

type ScoredMemory struct {
	Memory database.Memory
	Score  float64
}

// MemoryService stores free-form notes with embeddings and recalls them by
// semantic similarity. Vectors live as raw float64 blobs next to the text,
// similarity is computed in process over the chat's memories.
type MemoryService struct {
	db       database.Database
	embedder Embedder
	rotation *ai.Rotation
	model    string
	logger   logger.Logger
}

func NewMemoryService(db database.Database, embedder Embedder, rotation *ai.Rotation, model string, log logger.Logger) *MemoryService {
	return &MemoryService{
		db:       db,
		embedder: embedder,
		rotation: rotation,
		model:    model,
		logger:   log.WithField("component", "memory"),
	}
}

func (s *MemoryService) Remember(ctx context.Context, chatJID, userJID, text string) error {
	vector, err := s.embed(ctx, text)
	if err != nil {
		return err
	}
	return s.db.SaveMemory(database.Memory{
		ID:        uuid.NewString(),
		ChatJID:   chatJID,
		UserJID:   userJID,
		Text:      text,
		Embedding: encodeVector(vector),
	})
}

// Recall returns up to limit memories ranked by similarity to the query.
func (s *MemoryService) Recall(ctx context.Context, chatJID, query string, limit int) ([]ScoredMemory, error) {
	queryVector, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	memories, err := s.db.ListMemories(chatJID)
	if err != nil {
		return nil, err
	}

	var scored []ScoredMemory
	for _, mem := range memories {
		vector := decodeVector(mem.Embedding)
		if len(vector) != len(queryVector) {
			s.logger.WithField("id", mem.ID).Warn("Skipping memory with mismatched embedding size")
			continue
		}
		score := cosineSimilarity(queryVector, vector)
		if score < memoryMinScore {
			continue
		}
		scored = append(scored, ScoredMemory{Memory: mem, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (s *MemoryService) embed(ctx context.Context, text string) ([]float64, error) {
	entry := s.rotation.Current()
	vectors, err := s.embedder.Embeddings(ctx, s.model, entry.APIKey, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embeddings response is empty")
	}
	return vectors[0], nil
}

func encodeVector(vector []float64) []byte {
	buf := make([]byte, 8*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeVector(data []byte) []float64 {
	vector := make([]float64, len(data)/8)
	for i := range vector {
		vector[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return vector
}

func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
