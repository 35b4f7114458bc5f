package fiber

import (
	"golang.org/x/sys/unix"
)

// pageSize is assumed rather than queried via unix.Getpagesize to keep
// stack accounting deterministic across platforms; 4 KiB covers every
// architecture the poller supports (amd64, arm64).
const pageSize = 4096

// stack is the fixed-size backing region for one fiber. It is obtained
// from the Runtime's stackFreeList (Runtime.stacks) and returned there
// when the fiber finishes.
//
// Go goroutines already manage their own growable, safely-bounds-checked
// execution stacks; nothing in this runtime ever sets a stack pointer into
// this region. It exists so a spawn carries a real, page-guarded,
// fixed-size allocation, obtained from a free-list, with real OOM
// behavior when the OS is out of address space or map count, rather than
// silently relying on the Go runtime's own stack growth.
type stack struct {
	mem   []byte // the usable region, between the two guard pages
	guard []byte // the full mmap'd region, including both guard pages
	size  int
}

// newStack mmaps a fresh guarded region of at least size bytes, rounded up
// to a whole number of pages, with PROT_NONE guard pages at both ends.
func newStack(size int) (*stack, error) {
	if size <= 0 {
		size = 256 * 1024
	}
	pages := (size + pageSize - 1) / pageSize
	usable := pages * pageSize
	total := usable + 2*pageSize

	region, err := unix.Mmap(-1, 0, total, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, withOp(ErrOom, "newStack: mmap")
	}

	mid := region[pageSize : pageSize+usable]
	if err := unix.Mprotect(mid, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		_ = unix.Munmap(region)
		return nil, withOp(ErrOom, "newStack: mprotect")
	}

	return &stack{mem: mid, guard: region, size: usable}, nil
}

// free releases the mmap'd region back to the OS. Called from
// Runtime.Close, for stacks still held by fibers and for every stack in
// the free-list (finished fibers normally return theirs to the free-list
// instead).
func (s *stack) free() error {
	if s.guard == nil {
		return nil
	}
	err := unix.Munmap(s.guard)
	s.guard = nil
	s.mem = nil
	return err
}

// stackFreeList is a simple LIFO free-list of same-sized stacks, keyed by
// size so a Runtime reconfigured mid-run (unsupported today, but kept
// structurally honest) never hands out a mismatched stack.
type stackFreeList struct {
	bySize map[int][]*stack
}

func newStackFreeList() *stackFreeList {
	return &stackFreeList{bySize: make(map[int][]*stack)}
}

// acquire pops a free stack of the given size, or mmaps a fresh one.
func (l *stackFreeList) acquire(size int) (*stack, error) {
	if free := l.bySize[size]; len(free) > 0 {
		s := free[len(free)-1]
		l.bySize[size] = free[:len(free)-1]
		return s, nil
	}
	return newStack(size)
}

// release returns a stack to the free-list for reuse by the next spawn of
// the same size.
func (l *stackFreeList) release(s *stack) {
	l.bySize[s.size] = append(l.bySize[s.size], s)
}

// closeAll frees every stack held in the free-list, for Runtime.Close.
func (l *stackFreeList) closeAll() {
	for size, stacks := range l.bySize {
		for _, s := range stacks {
			_ = s.free()
		}
		delete(l.bySize, size)
	}
}
