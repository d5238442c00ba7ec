package merge

import "github.com/Ergus/Extrae-rs/record"

// item is one candidate record in the k-way merge's priority queue,
// ordered by (time_ns, file index) so ties break toward the
// lower-numbered thread file.
type item struct {
	rec    record.Record
	stream *fileStream
}

// itemHeap implements container/heap.Interface over the current head
// record of every still-open file.
type itemHeap []item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].rec.TimeNS != h[j].rec.TimeNS {
		return h[i].rec.TimeNS < h[j].rec.TimeNS
	}
	return h[i].stream.index < h[j].stream.index
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x interface{}) {
	*h = append(*h, x.(item))
}

func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
