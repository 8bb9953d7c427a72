package crypto

import (
	"math/big"
	"runtime"
)

// ZeroizeBytes overwrites b with zeros. The runtime.KeepAlive keeps the
// writes from being elided when b is about to go out of scope.
func ZeroizeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ZeroizeScalar overwrites the backing words of z with zeros and resets z
// to 0. Safe to call with nil.
func ZeroizeScalar(z *big.Int) {
	if z == nil {
		return
	}
	words := z.Bits()
	for i := range words {
		words[i] = 0
	}
	runtime.KeepAlive(words)
	z.SetInt64(0)
}

// ZeroizeScalars zeroizes each scalar in turn.
func ZeroizeScalars(zs ...*big.Int) {
	for _, z := range zs {
		ZeroizeScalar(z)
	}
}
