package fiber

import "container/heap"

// timerEntry is one pending deadline: an absolute millisecond timestamp
// and the clause it will fire when reached, held in a min-heap
// (container/heap over a []timerEntry slice) ordered by deadline.
type timerEntry struct {
	deadline int64
	clause   Clause
	index    int // heap.Interface bookkeeping, for O(log n) removal
}

// timerHeap is a min-heap keyed by deadline, implementing heap.Interface
// exactly as an epoll/kqueue event-loop implementation's loop.go equivalent's timerHeap does.
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].deadline < h[j].deadline }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// peekDeadline returns the nearest deadline in the heap, or (0, false) if
// empty.
func (h timerHeap) peekDeadline() (int64, bool) {
	if len(h) == 0 {
		return 0, false
	}
	return h[0].deadline, true
}

// pushTimer schedules clause to fire at deadline, returning the entry so
// it can be removed again if some other clause in the same wait set fires
// first.
func pushTimer(h *timerHeap, deadline int64, clause Clause) *timerEntry {
	e := &timerEntry{deadline: deadline, clause: clause}
	heap.Push(h, e)
	return e
}

// removeTimer removes a specific entry from the heap in O(log n), used
// when a sibling clause fires first and this timer must be unlinked
//.
func removeTimer(h *timerHeap, e *timerEntry) {
	if e.index < 0 || e.index >= len(*h) || (*h)[e.index] != e {
		return
	}
	heap.Remove(h, e.index)
}

// popDue pops and returns every entry whose deadline is <= now.
func popDue(h *timerHeap, now int64) []*timerEntry {
	var due []*timerEntry
	for len(*h) > 0 {
		next := (*h)[0]
		if next.deadline > now {
			break
		}
		due = append(due, heap.Pop(h).(*timerEntry))
	}
	return due
}
