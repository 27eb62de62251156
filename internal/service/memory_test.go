package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezhov-dev/zapguard/internal/ai"
	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/logger"
)

type fakeEmbedder struct {
	vectors map[string][]float64
}

func (f *fakeEmbedder) Embeddings(ctx context.Context, model, apiKey string, input []string) ([][]float64, error) {
	out := make([][]float64, len(input))
	for i, text := range input {
		out[i] = f.vectors[text]
	}
	return out, nil
}

func newMemoryService(t *testing.T, embedder Embedder) *MemoryService {
	t.Helper()
	rotation := ai.NewRotation([]config.RotationEntry{
		{Model: "gpt-4o-mini", APIKey: "key-1"},
	}, logger.NewTestLogger())
	return NewMemoryService(newTestDB(t), embedder, rotation, "text-embedding-3-small", logger.NewTestLogger())
}

func TestVectorRoundTrip(t *testing.T) {
	vector := []float64{0.1, -2.5, 3.14159, 0}
	assert.Equal(t, vector, decodeVector(encodeVector(vector)))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float64{0, 0}, []float64{1, 1}))
}

func TestRecallRanksBySimilarity(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"exam is on friday":      {1, 0, 0},
		"bring the projector":    {0, 1, 0},
		"exam moved to thursday": {0.9, 0.1, 0},
		"when is the exam":       {1, 0.05, 0},
	}}
	svc := newMemoryService(t, embedder)
	chat := "120363000000000000@g.us"
	user := "4915200000000@s.whatsapp.net"

	for _, note := range []string{"exam is on friday", "bring the projector", "exam moved to thursday"} {
		require.NoError(t, svc.Remember(context.Background(), chat, user, note))
	}

	results, err := svc.Recall(context.Background(), chat, "when is the exam", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "exam is on friday", results[0].Memory.Text)
	assert.Equal(t, "exam moved to thursday", results[1].Memory.Text)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRecallScopedToChat(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"secret plan": {1, 0},
		"plan":        {1, 0},
	}}
	svc := newMemoryService(t, embedder)

	require.NoError(t, svc.Remember(context.Background(), "chat-a@g.us", "u@s.whatsapp.net", "secret plan"))

	results, err := svc.Recall(context.Background(), "chat-b@g.us", "plan", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
