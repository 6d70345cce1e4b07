/*
Package sort provides parallel sorting algorithms that execute on a
parcore.PairRunner, and a parallel sortedness test that executes on a
parcore.LoopSplitter.

A nil runner or splitter selects sequential execution.
*/
package sort

import (
	"sort"
	"sync/atomic"

	"github.com/exascience/parcore"
)

/*
SequentialSorter is a type, typically a collection, that can be
sequentially sorted. This is needed as a base case for the parallel
sorting algorithms in this package. It is recommended to implement
this interface by using the functions in the sort package of Go's
standard library.
*/
type SequentialSorter interface {
	// Sort the range that starts at index i and ends at index j. If the
	// collection that is represented by this interface is a slice, then
	// the slice expression collection[i:j] returns the correct slice to
	// be sorted.
	SequentialSort(i, j int)
}

/*
IsSorted determines whether data is already sorted, testing the chunks
that s divides the collection into in parallel. Once a chunk finds an
element out of order, the other chunks stop early.
*/
func IsSorted(s parcore.LoopSplitter, data sort.Interface) bool {
	size := data.Len()
	if s == nil || size < qsortGrainSize {
		return sort.IsSorted(data)
	}
	var unsorted atomic.Bool
	sorted, _ := parcore.SplitForReduce(s, 1, size,
		func(low, high int) (bool, error) {
			for i := low; i < high; i++ {
				if i%1024 == 0 && unsorted.Load() {
					return false, nil
				}
				if data.Less(i, i-1) {
					unsorted.Store(true)
					return false, nil
				}
			}
			return true, nil
		},
		func(results []bool) bool {
			for _, ok := range results {
				if !ok {
					return false
				}
			}
			return true
		},
	)
	return sorted
}

/*
IntSlice attaches the methods of sort.Interface, SequentialSorter,
Sorter, and StableSorter to []int, sorting in increasing order.
*/
type IntSlice []int

// SequentialSort implements the method of the SequentialSorter interface.
func (s IntSlice) SequentialSort(i, j int) {
	sort.Stable(sort.IntSlice(s[i:j]))
}

func (s IntSlice) Len() int           { return len(s) }
func (s IntSlice) Less(i, j int) bool { return s[i] < s[j] }
func (s IntSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// NewTemp implements the method of the StableSorter interface.
func (s IntSlice) NewTemp() StableSorter {
	return make(IntSlice, len(s))
}

// Assign implements the method of the StableSorter interface.
func (s IntSlice) Assign(source StableSorter) func(i, j, len int) {
	dst, src := s, source.(IntSlice)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// Ints sorts a slice of ints in increasing order with r.
func Ints(r parcore.PairRunner, a []int) {
	Sort(r, IntSlice(a))
}

// IntsAreSorted determines with s whether a slice of ints is already
// sorted in increasing order.
func IntsAreSorted(s parcore.LoopSplitter, a []int) bool {
	return IsSorted(s, IntSlice(a))
}

/*
Float64Slice attaches the methods of sort.Interface, SequentialSorter,
Sorter, and StableSorter to []float64, sorting in increasing order.
*/
type Float64Slice []float64

// SequentialSort implements the method of the SequentialSorter interface.
func (s Float64Slice) SequentialSort(i, j int) {
	sort.Stable(sort.Float64Slice(s[i:j]))
}

func (s Float64Slice) Len() int           { return len(s) }
func (s Float64Slice) Less(i, j int) bool { return s[i] < s[j] }
func (s Float64Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// NewTemp implements the method of the StableSorter interface.
func (s Float64Slice) NewTemp() StableSorter {
	return make(Float64Slice, len(s))
}

// Assign implements the method of the StableSorter interface.
func (s Float64Slice) Assign(source StableSorter) func(i, j, len int) {
	dst, src := s, source.(Float64Slice)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// Float64s sorts a slice of float64s in increasing order with r.
func Float64s(r parcore.PairRunner, a []float64) {
	Sort(r, Float64Slice(a))
}

// Float64sAreSorted determines with s whether a slice of float64s is
// already sorted in increasing order.
func Float64sAreSorted(s parcore.LoopSplitter, a []float64) bool {
	return IsSorted(s, Float64Slice(a))
}

/*
StringSlice attaches the methods of sort.Interface, SequentialSorter,
Sorter, and StableSorter to []string, sorting in increasing order.
*/
type StringSlice []string

// SequentialSort implements the method of the SequentialSorter interface.
func (s StringSlice) SequentialSort(i, j int) {
	sort.Stable(sort.StringSlice(s[i:j]))
}

func (s StringSlice) Len() int           { return len(s) }
func (s StringSlice) Less(i, j int) bool { return s[i] < s[j] }
func (s StringSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// NewTemp implements the method of the StableSorter interface.
func (s StringSlice) NewTemp() StableSorter {
	return make(StringSlice, len(s))
}

// Assign implements the method of the StableSorter interface.
func (s StringSlice) Assign(source StableSorter) func(i, j, len int) {
	dst, src := s, source.(StringSlice)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// Strings sorts a slice of strings in increasing order with r.
func Strings(r parcore.PairRunner, a []string) {
	Sort(r, StringSlice(a))
}

// StringsAreSorted determines with s whether a slice of strings is already
// sorted in increasing order.
func StringsAreSorted(s parcore.LoopSplitter, a []string) bool {
	return IsSorted(s, StringSlice(a))
}
