package sort

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/parcore"
	"github.com/exascience/parcore/parallel"
	"github.com/exascience/parcore/pool"
	"github.com/exascience/parcore/sequential"
)

type record struct {
	key, seq int
}

// byKey sorts records by key only, so stability is observable through seq.
type byKey []record

func (s byKey) Len() int           { return len(s) }
func (s byKey) Less(i, j int) bool { return s[i].key < s[j].key }
func (s byKey) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

func (s byKey) SequentialSort(i, j int) {
	slice := s[i:j]
	sort.SliceStable(slice, func(i, j int) bool { return slice[i].key < slice[j].key })
}

func (s byKey) NewTemp() StableSorter { return make(byKey, len(s)) }

func (s byKey) Assign(source StableSorter) func(i, j, len int) {
	dst, src := s, source.(byKey)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

func newPool(t testing.TB) *pool.Pool {
	t.Helper()
	p, err := pool.New(4)
	require.NoError(t, err)
	t.Cleanup(func() { p.Shutdown(time.Second) })
	return p
}

func runners(t testing.TB) map[string]parcore.PairRunner {
	return map[string]parcore.PairRunner{
		"sequential": sequential.Runner{},
		"parallel":   parallel.NewRunner(newPool(t), true),
		"nil":        nil,
	}
}

func makeRandomSlice(rnd *rand.Rand, size, limit int) []int {
	result := make([]int, size)
	for i := range result {
		result[i] = rnd.Intn(limit)
	}
	return result
}

func TestSort(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	org := makeRandomSlice(rnd, 8*0x6000, 1<<30)
	expected := append([]int(nil), org...)
	sort.Ints(expected)

	for name, r := range runners(t) {
		t.Run(name, func(t *testing.T) {
			s := append([]int(nil), org...)
			Ints(r, s)
			assert.Equal(t, expected, s)

			s = append([]int(nil), org...)
			StableSort(r, IntSlice(s))
			assert.Equal(t, expected, s)
		})
	}
}

func TestSortSmallAndDuplicates(t *testing.T) {
	r := parallel.NewRunner(newPool(t), true)
	for _, size := range []int{0, 1, 2, qsortGrainSize - 1, qsortGrainSize, 3 * qsortGrainSize} {
		s := make([]int, size)
		for i := range s {
			s[i] = (size - i) % 7
		}
		Ints(r, s)
		assert.True(t, sort.IntsAreSorted(s), "size %d", size)
	}
}

func TestStableSortIsStable(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	org := make(byKey, 4*msortGrainSize+17)
	for i := range org {
		org[i] = record{key: rnd.Intn(100), seq: i}
	}

	for name, r := range runners(t) {
		t.Run(name, func(t *testing.T) {
			s := append(byKey(nil), org...)
			StableSort(r, s)
			for i := 1; i < len(s); i++ {
				require.LessOrEqual(t, s[i-1].key, s[i].key, "index %d", i)
				if s[i-1].key == s[i].key {
					require.Less(t, s[i-1].seq, s[i].seq, "index %d", i)
				}
			}
		})
	}
}

func TestSortTypedSlices(t *testing.T) {
	r := parallel.NewRunner(newPool(t), true)

	floats := []float64{3.5, -1, 2.25, 0}
	Float64s(r, floats)
	assert.Equal(t, []float64{-1, 0, 2.25, 3.5}, floats)

	strings := []string{"pear", "apple", "fig"}
	Strings(r, strings)
	assert.Equal(t, []string{"apple", "fig", "pear"}, strings)
}

func TestIsSorted(t *testing.T) {
	p := newPool(t)
	splitters := map[string]parcore.LoopSplitter{
		"sequential": sequential.Splitter{},
		"parallel":   parallel.NewSplitter(p, 7),
		"nil":        nil,
	}
	sorted := make([]int, 20*qsortGrainSize)
	for i := range sorted {
		sorted[i] = i / 3
	}
	strings := make([]string, 2*qsortGrainSize)
	for i := range strings {
		strings[i] = string(rune('a' + i*26/len(strings)))
	}

	for name, s := range splitters {
		t.Run(name, func(t *testing.T) {
			assert.True(t, IntsAreSorted(s, sorted))
			assert.True(t, IntsAreSorted(s, nil))
			assert.True(t, StringsAreSorted(s, strings))
			assert.False(t, Float64sAreSorted(s, []float64{1, 0}))

			for _, at := range []int{1, qsortGrainSize, len(sorted) - 1} {
				unsorted := append([]int(nil), sorted...)
				unsorted[at] = -1
				assert.False(t, IntsAreSorted(s, unsorted), "unsorted at %d", at)
			}
		})
	}
}

func BenchmarkSort(b *testing.B) {
	rnd := rand.New(rand.NewSource(3))
	org := makeRandomSlice(rnd, 100*0x6000, 100*100*0x6000)
	s := make([]int, len(org))
	r := parallel.NewRunner(newPool(b), true)

	b.Run("SequentialSort", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			b.StopTimer()
			copy(s, org)
			b.StartTimer()
			sort.Ints(s)
		}
	})

	b.Run("ParallelStableSort", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			b.StopTimer()
			copy(s, org)
			b.StartTimer()
			StableSort(r, IntSlice(s))
		}
	})

	b.Run("ParallelSort", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			b.StopTimer()
			copy(s, org)
			b.StartTimer()
			Ints(r, s)
		}
	})
}
