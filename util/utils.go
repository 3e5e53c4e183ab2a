package util

import (
	"cmp"
	"slices"
	"strconv"
)

/*
Utility functions.
*/

////////////////////////////////////////////////////////////////////////////////

// Okeys returns the keys of a map in sorted order.
func Okeys[T cmp.Ordered, K any](m map[T]K) []T {
	keys := make([]T, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// When returns a if cond is true, otherwise b.
func When[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}

func digits(n uint64) int {
	count := 1
	for n >= 10 {
		n /= 10
		count++
	}
	return count
}

// AppendDecimalTime appends a nanosecond timestamp to buf as decimal seconds
// with nine fractional digits, e.g. 1.000000100.
func AppendDecimalTime(buf []byte, nanos uint64) []byte {
	nsec := nanos % 1e9
	buf = strconv.AppendUint(buf, nanos/1e9, 10)
	buf = append(buf, '.')
	for i := digits(nsec); i < 9; i++ {
		buf = append(buf, '0')
	}
	return strconv.AppendUint(buf, nsec, 10)
}
