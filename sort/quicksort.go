package sort

import (
	"sort"

	"github.com/exascience/parcore"
	"github.com/exascience/parcore/sequential"
)

const qsortGrainSize = 0x500

/*
A type, typically a collection, that satisfies sort.Sorter can be
sorted by Sort in this package. The methods require that (ranges of)
elements of the collection can be enumerated by integer indices.
*/
type Sorter interface {
	SequentialSorter
	sort.Interface
}

type quicksort struct {
	runner parcore.PairRunner
	data   Sorter
}

func (q quicksort) medianOfThree(l, m, r int) int {
	data := q.data
	if data.Less(l, m) {
		if data.Less(m, r) {
			return m
		} else if data.Less(l, r) {
			return r
		}
	} else if data.Less(r, m) {
		return m
	} else if data.Less(r, l) {
		return r
	}
	return l
}

func (q quicksort) pseudoMedianOfNine(index, size int) int {
	offset := size / 8
	return q.medianOfThree(
		q.medianOfThree(index, index+offset, index+offset*2),
		q.medianOfThree(index+offset*3, index+offset*4, index+offset*5),
		q.medianOfThree(index+offset*6, index+offset*7, index+size-1),
	)
}

// partition moves the pivot to its final position and returns that
// position. Elements before it are not greater, elements after it are not
// less than the pivot.
func (q quicksort) partition(index, size int) int {
	data := q.data
	if m := q.pseudoMedianOfNine(index, size); m > index {
		data.Swap(index, m)
	}
	i, j := index, index+size
	for {
		for {
			j--
			if !data.Less(index, j) {
				break
			}
		}
		for i < j {
			i++
			if !data.Less(i, index) {
				break
			}
		}
		if i >= j {
			break
		}
		data.Swap(i, j)
	}
	data.Swap(j, index)
	return j
}

func (q quicksort) sort(index, size int) {
	if size < qsortGrainSize {
		q.data.SequentialSort(index, index+size)
		return
	}
	pivot := q.partition(index, size)
	_ = q.runner.RunTwo(
		func() error { q.sort(index, pivot-index); return nil },
		func() error { q.sort(pivot+1, index+size-pivot-1); return nil },
	)
}

/*
Sort uses a parallel quicksort implementation. The two partitions of
each step are sorted with r.RunTwo, so the degree of parallelism follows
the configuration of r.

It is good for small core counts and small collection sizes.
*/
func Sort(r parcore.PairRunner, data Sorter) {
	if r == nil {
		r = sequential.Runner{}
	}
	quicksort{runner: r, data: data}.sort(0, data.Len())
}
