package internal

import (
	"errors"
	"fmt"
	"io"
	"math/bits"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/charmbracelet/log"
)

// ClampTasks determines the number of chunks for the range from low to high
// when n chunks are requested. Values of n <= 0 count as 1, and the result
// never exceeds the size of the range. An empty range yields 0.
func ClampTasks(low, high, n int) int {
	if low >= high {
		return 0
	}
	if n < 1 {
		return 1
	}
	if uint(n) > rangeSize(low, high) {
		return int(rangeSize(low, high))
	}
	return n
}

// rangeSize returns high - low for low <= high. The result is exact even
// when the difference exceeds math.MaxInt.
func rangeSize(low, high int) uint {
	return uint(high) - uint(low)
}

// Boundary returns the lower bound of chunk i when the range from low to high
// is divided into n chunks. Boundary(low, high, 0, n) == low and
// Boundary(low, high, n, n) == high. The product (high-low)*i is computed
// in 128 bits, so the result is exact for every range of int.
func Boundary(low, high, i, n int) int {
	hi, lo := bits.Mul64(uint64(rangeSize(low, high)), uint64(i))
	offset, _ := bits.Div64(hi, lo, uint64(n))
	return int(uint(low) + uint(offset))
}

type runtimeError struct{ error }

func (runtimeError) RuntimeError() {}

// WrapPanic adds stack trace information to a recovered panic.
func WrapPanic(p interface{}) interface{} {
	if p != nil {
		s := fmt.Sprintf("%v\n%s\nrethrown at", p, debug.Stack())
		if _, isError := p.(error); isError {
			r := errors.New(s)
			if _, isRuntimeError := p.(runtime.Error); isRuntimeError {
				return runtimeError{r}
			}
			return r
		}
		return s
	}
	return nil
}

// NewLogger returns the logger used when no logger is configured: leveled
// text output to w, prefixed with "parcore".
func NewLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       log.TextFormatter,
		ReportTimestamp: true,
		Prefix:          "parcore",
	})
}

// DefaultLogger returns a logger that reports warnings and errors to
// standard error.
func DefaultLogger() *log.Logger {
	return NewLogger(os.Stderr, log.WarnLevel)
}
