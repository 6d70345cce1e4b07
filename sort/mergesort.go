package sort

import (
	"github.com/exascience/parcore"
	"github.com/exascience/parcore/sequential"
)

const msortGrainSize = 0x3000

// StableSorter is a type, typically a collection, that can be sorted
// by StableSort in this package. The methods require that ranges of
// elements of the collection can be enumerated by integer indices.
type StableSorter interface {
	SequentialSorter

	// NewTemp creates a new collection that can hold as many elements
	// as the original collection. This is temporary memory needed by
	// StableSort, but not needed anymore afterwards. The temporary
	// collection does not need to be initialized.
	NewTemp() StableSorter

	// Len is the number of elements in the collection.
	Len() int

	// Less reports whether the element with index i should sort
	// before the element with index j.
	Less(i, j int) bool

	// Assign returns a function that assigns ranges from source to the
	// receiver collection. The element with index i is the first
	// element in the receiver to assign to, and the element with index
	// j is the first element in the source collection to assign from,
	// with len determining the number of elements to assign. The effect
	// should be the same as receiver[i:i+len] = source[j:j+len].
	Assign(source StableSorter) func(i, j, len int)
}

// side is one of the two collections merge sort alternates between. less
// compares elements of this side, assign copies from the other side into
// this one.
type side struct {
	less   func(i, j int) bool
	assign func(i, j, len int)
}

// lowerBound returns the first index in [p, r] whose element is not less
// than element x, which belongs to the other range.
func (s *side) lowerBound(x int, p, r int) int {
	low, high := p, r+1
	if low > high {
		return low
	}
	for low < high {
		mid := (low + high) / 2
		if s.less(mid, x) {
			low = mid + 1
		} else {
			high = mid
		}
	}
	return high
}

// upperBound returns the first index in [p, r] whose element is greater
// than element x, which belongs to the other range.
func (s *side) upperBound(x int, p, r int) int {
	low, high := p, r+1
	if low > high {
		return low
	}
	for low < high {
		mid := (low + high) / 2
		if s.less(x, mid) {
			high = mid
		} else {
			low = mid + 1
		}
	}
	return high
}

type mergesort struct {
	runner parcore.PairRunner
	data   StableSorter
}

func (m mergesort) both(first, second func()) {
	_ = m.runner.RunTwo(
		func() error { first(); return nil },
		func() error { second(); return nil },
	)
}

// mergeSequential merges the sorted ranges [p1, r1] and [p2, r2] of from
// into to, starting at p3. Equal elements are taken from the first range
// first.
func mergeSequential(from *side, p1, r1, p2, r2 int, to *side, p3 int) {
	for {
		if p2 > r2 {
			to.assign(p3, p1, r1+1-p1)
			return
		}
		q1 := p1
		for p1 <= r1 && !from.less(p2, p1) {
			p1++
		}
		to.assign(p3, q1, p1-q1)
		p3 += p1 - q1

		if p1 > r1 {
			to.assign(p3, p2, r2+1-p2)
			return
		}
		q2 := p2
		for p2 <= r2 && from.less(p2, p1) {
			p2++
		}
		to.assign(p3, q2, p2-q2)
		p3 += p2 - q2
	}
}

// merge splits the larger range at its middle element, places that
// element, and merges the two halves on both sides of it in parallel.
func (m mergesort) merge(from *side, p1, r1, p2, r2 int, to *side, p3 int) {
	n1 := r1 - p1 + 1
	n2 := r2 - p2 + 1
	switch {
	case n1+n2 < msortGrainSize:
		mergeSequential(from, p1, r1, p2, r2, to, p3)
	case n1 > n2:
		q1 := (p1 + r1) / 2
		q2 := from.lowerBound(q1, p2, r2)
		q3 := p3 + (q1 - p1) + (q2 - p2)
		to.assign(q3, q1, 1)
		m.both(
			func() { m.merge(from, p1, q1-1, p2, q2-1, to, p3) },
			func() { m.merge(from, q1+1, r1, q2, r2, to, q3+1) },
		)
	default:
		q2 := (p2 + r2) / 2
		q1 := from.upperBound(q2, p1, r1)
		q3 := p3 + (q1 - p1) + (q2 - p2)
		to.assign(q3, q2, 1)
		m.both(
			func() { m.merge(from, p1, q1-1, p2, q2-1, to, p3) },
			func() { m.merge(from, q1, r1, q2+1, r2, to, q3+1) },
		)
	}
}

func (m mergesort) sort(data, temp *side, index, size int) {
	if size < msortGrainSize {
		m.data.SequentialSort(index, index+size)
		return
	}
	q1 := size / 4
	q2 := q1 + q1
	q3 := q2 + q1
	m.both(
		func() {
			m.both(
				func() { m.sort(data, temp, index, q1) },
				func() { m.sort(data, temp, index+q1, q1) },
			)
		},
		func() {
			m.both(
				func() { m.sort(data, temp, index+q2, q1) },
				func() { m.sort(data, temp, index+q3, size-q3) },
			)
		},
	)
	m.both(
		func() { m.merge(data, index, index+q1-1, index+q1, index+q2-1, temp, index) },
		func() { m.merge(data, index+q2, index+q3-1, index+q3, index+size-1, temp, index+q2) },
	)
	m.merge(temp, index, index+q2-1, index+q2, index+size-1, data, index)
}

// StableSort uses a parallel implementation of merge sort, also known
// as cilksort. Sorting and merging of independent ranges is distributed
// with r.RunTwo.
//
// StableSort is only stable if data's SequentialSort method is
// stable.
//
// StableSort is good for large core counts and large collection
// sizes, but needs a shallow copy of the data collection as
// additional temporary memory.
func StableSort(r parcore.PairRunner, data StableSorter) {
	// See https://en.wikipedia.org/wiki/Introduction_to_Algorithms and
	// https://www.clear.rice.edu/comp422/lecture-notes/ for details on the algorithm.
	size := data.Len()
	if size < msortGrainSize {
		data.SequentialSort(0, size)
		return
	}
	if r == nil {
		r = sequential.Runner{}
	}
	temp := data.NewTemp()
	m := mergesort{runner: r, data: data}
	m.sort(
		&side{less: data.Less, assign: data.Assign(temp)},
		&side{less: temp.Less, assign: temp.Assign(data)},
		0, size,
	)
}
