package noncereuse

import (
	"fmt"
	"math/big"
)

// InverseMod returns x such that a*x = 1 (mod n), computed with the
// iterative extended Euclidean algorithm on arbitrary-precision integers.
// It fails with ErrNotCoprime when gcd(a, n) != 1, which covers a = 0 and
// any a that shares a factor with n.
func InverseMod(a, n *big.Int) (*big.Int, error) {
	if a == nil || n == nil || n.Sign() <= 0 {
		return nil, fmt.Errorf("%w: modulus must be positive", ErrNotCoprime)
	}

	// r0/r1 carry the remainder sequence, x0/x1 the Bezout coefficients
	// of a. The invariant r_i = x_i*a (mod n) holds throughout.
	r0 := new(big.Int).Set(n)
	r1 := new(big.Int).Mod(a, n)
	x0 := big.NewInt(0)
	x1 := big.NewInt(1)

	for r1.Sign() != 0 {
		q := new(big.Int).Quo(r0, r1)
		r0, r1 = r1, r0.Sub(r0, new(big.Int).Mul(q, r1))
		x0, x1 = x1, x0.Sub(x0, new(big.Int).Mul(q, x1))
	}

	if r0.Cmp(big.NewInt(1)) != 0 {
		return nil, fmt.Errorf("%w: gcd(%v, %v) != 1", ErrNotCoprime, a, n)
	}
	return x0.Mod(x0, n), nil
}
