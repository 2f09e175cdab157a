// Package encoder implements the Encoder (C3): a process-wide,
// lazily-initialized text-to-vector backend used only when an input
// batch arrives without embeddings.
//
// The teacher's own embedding call (internal/llm/llm.go's
// GenerateEmbedding) is a remote API call, not local transformer
// inference — no Go-ecosystem library for that appears anywhere in the
// retrieval pack. The Go realization keeps the teacher's call shape
// (one client, one call per batch) and layers the batching/truncation/
// normalization contract §4.3 requires around it; see DESIGN.md, Open
// Question 4.
package encoder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"clustering-service/internal/logger"
)

// Encoder computes dense, L2-normalized vectors for a batch of texts.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
}

var (
	once     sync.Once
	instance Encoder
	initErr  error
)

// Options configures the default encoder construction.
type Options struct {
	ModelName     string
	APIKey        string
	Dimensions    int
	BatchSize     int
	MaxTextLength int
}

// Init constructs the process-wide encoder singleton. It is safe to
// call from multiple goroutines; only the first call's Options take
// effect, mirroring internal/logger/logger.go's sync.Once pattern.
func Init(opts Options) {
	once.Do(func() {
		log := logger.Get()
		if opts.APIKey == "" {
			log.Warn("no encoder API key configured, falling back to deterministic hash encoder")
			instance = NewHashEncoder(opts.Dimensions, opts.ModelName)
			return
		}

		enc, err := NewGenAIEncoder(context.Background(), opts)
		if err != nil {
			initErr = fmt.Errorf("encoder initialization failed: %w", err)
			log.Error("encoder initialization failed, falling back to hash encoder", slog.Any("error", err))
			instance = NewHashEncoder(opts.Dimensions, opts.ModelName)
			return
		}
		instance = enc
	})
}

// Get returns the initialized singleton. Init must have been called
// once at process startup (cmd/cmd/root.go's runServe does this);
// Get never blocks on network I/O itself.
func Get() (Encoder, error) {
	if instance == nil {
		return nil, fmt.Errorf("encoder not initialized")
	}
	return instance, initErr
}

// SetForTest overrides the singleton directly, bypassing Init/Once.
// Only meant for tests that need a NopEncoder or HashEncoder without
// touching process-wide state races across the suite.
func SetForTest(e Encoder) {
	instance = e
	initErr = nil
}
