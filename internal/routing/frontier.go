package routing

import "container/heap"

// frontier is a priority queue over partial paths with a pluggable
// ordering, so the forward (maximize output) and inverse (minimize
// input) searches share one implementation.
type frontier struct {
	items []*pathState
	less  func(a, b *pathState) bool
}

func newFrontier(less func(a, b *pathState) bool) *frontier {
	return &frontier{less: less}
}

func (f *frontier) push(s *pathState) { heap.Push(f, s) }

func (f *frontier) pop() *pathState { return heap.Pop(f).(*pathState) }

// heap.Interface.

func (f *frontier) Len() int           { return len(f.items) }
func (f *frontier) Less(i, j int) bool { return f.less(f.items[i], f.items[j]) }
func (f *frontier) Swap(i, j int)      { f.items[i], f.items[j] = f.items[j], f.items[i] }

func (f *frontier) Push(x any) { f.items = append(f.items, x.(*pathState)) }

func (f *frontier) Pop() any {
	old := f.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	f.items = old[:n-1]
	return item
}
