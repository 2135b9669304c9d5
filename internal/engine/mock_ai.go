package engine

import (
	"context"
	"sync"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

// MockClassifier is a test implementation of AIClassifier. It answers from a fixed
// table and records each batch it receives.
type MockClassifier struct {
	Answers map[string]model.Classification
	batches [][]model.BatchCandidate
	mu      sync.Mutex
}

// NewMockClassifier creates a classifier answering from answers.
func NewMockClassifier(answers map[string]model.Classification) *MockClassifier {
	return &MockClassifier{Answers: answers}
}

// ClassifyBatch returns the known answers for the candidates in the batch.
func (m *MockClassifier) ClassifyBatch(_ context.Context, candidates []model.BatchCandidate) map[string]model.Classification {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batches = append(m.batches, append([]model.BatchCandidate(nil), candidates...))

	out := make(map[string]model.Classification)
	for _, c := range candidates {
		if answer, ok := m.Answers[c.Name]; ok {
			out[c.Name] = answer
		}
	}
	return out
}

// Batches returns every batch received, in order.
func (m *MockClassifier) Batches() [][]model.BatchCandidate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]model.BatchCandidate(nil), m.batches...)
}

// CallCount returns the number of ClassifyBatch calls.
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

// MockCompleter is a test implementation of llm.Client returning one fixed reply.
type MockCompleter struct {
	Err     error
	Reply   string
	prompts []string
	mu      sync.Mutex
}

// Complete records prompt and returns the fixed reply.
func (m *MockCompleter) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	return m.Reply, m.Err
}

// CallCount returns the number of Complete calls.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
