package semantic

import "context"

// Embedder produces one embedding vector per input text. Implementations
// must return vectors of a consistent dimension and keep output order
// aligned with input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
