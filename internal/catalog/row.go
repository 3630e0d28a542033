package catalog

import (
	"context"
	"slices"
	"sync"

	"github.com/cinescope/apiserver/types"
)

// RowState is the accumulated view of a content row.
type RowState struct {
	CurrentPage  int               `json:"currentPage"`
	TotalPages   int               `json:"totalPages"`
	TotalResults int               `json:"totalResults"`
	Items        []types.MediaItem `json:"items"`
	Done         bool              `json:"done"`
}

// Apply folds a fetched page into the state. The row is done once the page
// reaches the last one or fails to advance past what was already loaded.
func (s RowState) Apply(page types.MediaPage) RowState {
	next := RowState{
		CurrentPage:  page.Page,
		TotalPages:   page.TotalPages,
		TotalResults: page.TotalResults,
		Items:        append(slices.Clip(s.Items), page.Results...),
	}
	if next.Items == nil {
		next.Items = []types.MediaItem{}
	}
	next.Done = page.Page >= page.TotalPages || page.Page <= s.CurrentPage
	if page.Page < s.CurrentPage {
		next.CurrentPage = s.CurrentPage
	}
	return next
}

// Fetcher loads one page of a row.
type Fetcher interface {
	Fetch(ctx context.Context, c Criteria, page int) (types.MediaPage, error)
}

// Row pages through one criteria, accumulating every item fetched so far.
// Next calls are serialized so pages are applied in request order.
type Row struct {
	criteria Criteria
	fetcher  Fetcher

	fetchMu sync.Mutex

	mu        sync.Mutex
	state     RowState
	listeners map[int]func(RowState)
	nextID    int
}

func NewRow(fetcher Fetcher, c Criteria) *Row {
	return &Row{
		criteria:  c,
		fetcher:   fetcher,
		state:     RowState{Items: []types.MediaItem{}},
		listeners: map[int]func(RowState){},
	}
}

// State returns a snapshot of the accumulated state.
func (r *Row) State() RowState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Next loads the page after the current one unless the row is done. It
// returns the state after the fetch. A failed fetch leaves the state untouched.
func (r *Row) Next(ctx context.Context) (RowState, error) {
	r.fetchMu.Lock()
	defer r.fetchMu.Unlock()

	current := r.State()
	if current.Done {
		return current, nil
	}

	page, err := r.fetcher.Fetch(ctx, r.criteria, current.CurrentPage+1)
	if err != nil {
		return current, err
	}

	r.mu.Lock()
	r.state = r.state.Apply(page)
	snap := r.snapshot()
	listeners := make([]func(RowState), 0, len(r.listeners))
	for _, fn := range r.listeners {
		listeners = append(listeners, fn)
	}
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return snap, nil
}

// Subscribe registers fn for every state produced by Next. The returned
// function removes the subscription.
func (r *Row) Subscribe(fn func(RowState)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
	}
}

func (r *Row) snapshot() RowState {
	s := r.state
	s.Items = slices.Clone(s.Items)
	if s.Items == nil {
		s.Items = []types.MediaItem{}
	}
	return s
}
