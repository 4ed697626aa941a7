package hwio

import "math/bits"

func SetBit32(v *uint32, n uint) {
	*v |= 1 << n
}

// SelMask32 expands a byte-select mask into a 32-bit data mask, lane i
// covering bits [8i, 8i+8).
func SelMask32(sel uint8) uint32 {
	var m uint32
	for i := range 4 {
		if sel&(1<<i) != 0 {
			m |= 0xff << (8 * i)
		}
	}
	return m
}

// IsPow2 reports whether n is a non-zero power of two.
func IsPow2(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

func log2(n uint64) int {
	return bits.Len64(n) - 1
}
