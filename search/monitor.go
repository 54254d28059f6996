package search

import (
	"github.com/poiesic/bares/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string, filters Filters)
	AfterFilter(eligible int)
	Skipped(review *core.Review, err error)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ Filters)       {}
func (n *noopMonitor) AfterFilter(_ int)               {}
func (n *noopMonitor) Skipped(_ *core.Review, _ error) {}
func (n *noopMonitor) Finish(_ []core.SearchResult)    {}
