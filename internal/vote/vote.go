// Package vote turns repeated noisy answers into one estimate by taking the
// most frequent one.
package vote

// Tally counts occurrences of comparable candidates.
// The zero value is ready to use.
type Tally[K comparable] struct {
	counts map[K]int
	total  int
}

// Add records one vote for k.
func (t *Tally[K]) Add(k K) {
	if t.counts == nil {
		t.counts = make(map[K]int)
	}
	t.counts[k]++
	t.total++
}

// Count returns the votes recorded for k.
func (t *Tally[K]) Count(k K) int { return t.counts[k] }

// Total returns the number of votes recorded.
func (t *Tally[K]) Total() int { return t.total }

// Mode returns the candidate with the most votes and its count. Ties go to
// the candidate ordered first by less. ok is false when nothing was recorded.
func (t *Tally[K]) Mode(less func(a, b K) bool) (best K, count int, ok bool) {
	for k, c := range t.counts {
		if !ok || c > count || (c == count && less(k, best)) {
			best, count, ok = k, c, true
		}
	}
	return best, count, ok
}

// Repeat runs trial n times and returns the mode of the answers it reported
// as conclusive.
func Repeat[K comparable](n int, trial func(i int) (K, bool), less func(a, b K) bool) (K, int, bool) {
	var t Tally[K]
	for i := 0; i < n; i++ {
		if k, ok := trial(i); ok {
			t.Add(k)
		}
	}
	return t.Mode(less)
}
