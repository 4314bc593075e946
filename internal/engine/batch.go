package engine

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// BatchResult collects the per-assignee outcome of an all-assignees
// operation. A failure for one assignee never rolls back the others.
type BatchResult struct {
	Succeeded []string         `json:"succeeded"`
	Failed    map[string]error `json:"-"`
}

// Err joins the failures, ordered by assignee, or returns nil.
func (r *BatchResult) Err() error {
	if r == nil || len(r.Failed) == 0 {
		return nil
	}
	assignees := make([]string, 0, len(r.Failed))
	for a := range r.Failed {
		assignees = append(assignees, a)
	}
	slices.Sort(assignees)

	errs := make([]error, 0, len(assignees))
	for _, a := range assignees {
		errs = append(errs, fmt.Errorf("%s: %w", a, r.Failed[a]))
	}
	return errors.Join(errs...)
}

// Errors returns the failure messages keyed by assignee.
func (r *BatchResult) Errors() map[string]string {
	out := make(map[string]string, len(r.Failed))
	for a, err := range r.Failed {
		out[a] = err.Error()
	}
	return out
}

// fanOut runs fn once per assignee concurrently and waits for all of them.
func fanOut(assignees []string, fn func(assignee string) error) *BatchResult {
	errs := make([]error, len(assignees))
	var wg sync.WaitGroup
	for i, a := range assignees {
		wg.Go(func() {
			errs[i] = fn(a)
		})
	}
	wg.Wait()

	res := &BatchResult{Failed: make(map[string]error)}
	for i, a := range assignees {
		if errs[i] != nil {
			res.Failed[a] = errs[i]
			continue
		}
		res.Succeeded = append(res.Succeeded, a)
	}
	return res
}
