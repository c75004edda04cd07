package filter

import (
	"context"

	"github.com/af-corp/aegis-docai/internal/types"
)

// Filter is the interface all content filters implement.
type Filter interface {
	Name() string
	Enabled() bool
	ScanInput(ctx context.Context, in *types.FilterInput) types.FilterResult
}

// Chain runs filters in order, stopping on the first Block.
type Chain struct {
	filters []Filter
}

// NewChain creates a filter chain from the given filters.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// Run executes all enabled filters in order. Returns all results and a pointer
// to the first blocking result (nil if no filter blocked).
func (c *Chain) Run(ctx context.Context, in *types.FilterInput) ([]types.FilterResult, *types.FilterResult) {
	var results []types.FilterResult
	for _, f := range c.filters {
		if !f.Enabled() {
			continue
		}
		r := f.ScanInput(ctx, in)
		results = append(results, r)
		if r.Action == types.FilterBlock {
			return results, &r
		}
	}
	return results, nil
}
