package ports

import "context"

// Researcher fetches a free-text research summary for a market topic
// from an external service. Failures wrap domain.ErrAnalysis.
type Researcher interface {
	Summarize(ctx context.Context, topic string) (string, error)
}
