package analytics

import "context"

// Sink recibe eventos de producto (p.ej. "share_token_created").
// Los callers lo tratan como best-effort: un error nunca afecta la operación principal.
type Sink interface {
	Record(ctx context.Context, event string, properties map[string]any) error
}

// Nop descarta todos los eventos.
type Nop struct{}

func (Nop) Record(context.Context, string, map[string]any) error { return nil }
