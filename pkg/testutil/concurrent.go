package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	dErrors "trustscore/pkg/domain-errors"
	"trustscore/pkg/platform/sentinel"
)

// ConcurrentResult tallies outcomes of RunConcurrent by error category.
type ConcurrentResult struct {
	Successes int32
	// Conflicts counts store conflicts and duplicate_id rejections.
	Conflicts int32
	NotFounds int32
	Errors    int32

	mu     sync.Mutex
	Others []error
}

func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Conflicts + r.NotFounds + r.Errors
}

// RunConcurrent releases n goroutines at once against fn and waits for all
// of them. Errors outside the known categories are kept in Others.
func RunConcurrent(n int, fn func(idx int) error) *ConcurrentResult {
	res := &ConcurrentResult{}
	var successes, conflicts, notFounds, others atomic.Int32
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := fn(i)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict), dErrors.HasCode(err, dErrors.CodeDuplicateID):
				conflicts.Add(1)
			case errors.Is(err, sentinel.ErrNotFound), dErrors.HasCode(err, dErrors.CodeNotFound):
				notFounds.Add(1)
			default:
				others.Add(1)
				res.mu.Lock()
				res.Others = append(res.Others, err)
				res.mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	res.Successes = successes.Load()
	res.Conflicts = conflicts.Load()
	res.NotFounds = notFounds.Load()
	res.Errors = others.Load()
	return res
}
