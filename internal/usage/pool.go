package usage

import "sync"

// MaxConcurrency bounds parallel usage fetches so a status over many
// profiles does not hammer the remote API.
const MaxConcurrency = 4

// MapOrdered applies fn to every item with at most MaxConcurrency items in
// flight, processing fixed-size chunks in sequence. Results always come back
// in input order; completion order is never observable.
func MapOrdered[T, R any](items []T, fn func(T) R) []R {
	results := make([]R, len(items))
	for start := 0; start < len(items); start += MaxConcurrency {
		end := start + MaxConcurrency
		if end > len(items) {
			end = len(items)
		}
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = fn(items[i])
			}(i)
		}
		wg.Wait()
	}
	return results
}
