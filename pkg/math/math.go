package math

// Integer admits any built-in integer kind and every type derived from
// one.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// DivRoundUp counts the divisor-sized pieces needed to cover dividend.
func DivRoundUp[T Integer](dividend, divisor T) T {
	quotient := dividend / divisor
	if dividend%divisor != 0 {
		quotient++
	}
	return quotient
}

func Min[T Integer](a, b T) T {
	if b < a {
		return b
	}
	return a
}
