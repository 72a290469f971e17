package noncereuse

import (
	"crypto/elliptic"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// signEcdsaWithNonce produces an honest ECDSA signature over digest h with
// the given fixed nonce, so tests can manufacture nonce-reuse pairs.
func signEcdsaWithNonce(t *testing.T, curve elliptic.Curve, d, k, h *big.Int) *SignatureParameter {
	t.Helper()
	n := curve.Params().N
	kx, _ := curve.ScalarBaseMult(new(big.Int).Mod(k, n).Bytes())
	r := new(big.Int).Mod(kx, n)
	require.NotZero(t, r.Sign(), "degenerate nonce: r == 0")

	kInv, err := InverseMod(k, n)
	require.NoError(t, err)
	s := new(big.Int).Mul(r, d)
	s.Add(s, h)
	s.Mul(s, kInv)
	s.Mod(s, n)
	require.NotZero(t, s.Sign(), "degenerate signature: s == 0")

	sig, err := NewSignatureParameter(r, s)
	require.NoError(t, err)
	return sig
}

// signDsaWithNonce produces an honest DSA signature over digest h with the
// given fixed nonce.
func signDsaWithNonce(t *testing.T, pub *DsaPublicKey, x, k, h *big.Int) *SignatureParameter {
	t.Helper()
	r := new(big.Int).Exp(pub.G, k, pub.P)
	r.Mod(r, pub.Q)
	require.NotZero(t, r.Sign(), "degenerate nonce: r == 0")

	kInv, err := InverseMod(k, pub.Q)
	require.NoError(t, err)
	s := new(big.Int).Mul(x, r)
	s.Add(s, h)
	s.Mul(s, kInv)
	s.Mod(s, pub.Q)
	require.NotZero(t, s.Sign(), "degenerate signature: s == 0")

	sig, err := NewSignatureParameter(r, s)
	require.NoError(t, err)
	return sig
}

// testDsaGroup is the toy DSA group used throughout: q=13 subgroup of
// Z_53* generated by g=16, with secret exponent x=7 and public value
// y = 16^7 mod 53 = 49.
func testDsaGroup(t *testing.T) (*DsaPublicKey, *big.Int) {
	t.Helper()
	x := big.NewInt(7)
	p := big.NewInt(53)
	g := big.NewInt(16)
	y := new(big.Int).Exp(g, x, p)
	pub, err := NewDsaPublicKey(p, big.NewInt(13), g, y)
	require.NoError(t, err)
	return pub, x
}

// ecdsaKeyPair derives the public key point for secret exponent d.
func ecdsaKeyPair(t *testing.T, curve elliptic.Curve, d *big.Int) *EcdsaPublicKey {
	t.Helper()
	x, y := curve.ScalarBaseMult(d.Bytes())
	pub, err := NewEcdsaPublicKey(curve, x, y)
	require.NoError(t, err)
	return pub
}

// flipS maps a signature to its canonicalization twin (r, n-s), which
// verifies equally under ECDSA.
func flipS(t *testing.T, sig *SignatureParameter, n *big.Int) *SignatureParameter {
	t.Helper()
	out, err := NewSignatureParameter(sig.R(), new(big.Int).Sub(n, sig.S()))
	require.NoError(t, err)
	return out
}

// rsPair is a foreign signature-shaped value exposing R/S accessors, used
// to exercise input normalization.
type rsPair struct {
	r, s *big.Int
}

func (p rsPair) R() *big.Int { return p.r }
func (p rsPair) S() *big.Int { return p.s }

// toyCurve is a tiny short-Weierstrass curve y^2 = x^3 + ax + b over a
// small prime field, with honest affine arithmetic. It exists to craft
// coincidental r collisions that cannot occur on production curves. The
// point at infinity is represented as (0, 0); b is always nonzero so that
// point is never on the curve.
type toyCurve struct {
	params *elliptic.CurveParams
	a      *big.Int
}

func (c *toyCurve) Params() *elliptic.CurveParams { return c.params }

func (c *toyCurve) IsOnCurve(x, y *big.Int) bool {
	p := c.params.P
	lhs := new(big.Int).Mul(y, y)
	lhs.Mod(lhs, p)
	rhs := new(big.Int).Mul(x, x)
	rhs.Mul(rhs, x)
	rhs.Add(rhs, new(big.Int).Mul(c.a, x))
	rhs.Add(rhs, c.params.B)
	rhs.Mod(rhs, p)
	return lhs.Cmp(rhs) == 0
}

func (c *toyCurve) Add(x1, y1, x2, y2 *big.Int) (*big.Int, *big.Int) {
	if x1.Sign() == 0 && y1.Sign() == 0 {
		return new(big.Int).Set(x2), new(big.Int).Set(y2)
	}
	if x2.Sign() == 0 && y2.Sign() == 0 {
		return new(big.Int).Set(x1), new(big.Int).Set(y1)
	}
	p := c.params.P
	if x1.Cmp(x2) == 0 {
		sum := new(big.Int).Add(y1, y2)
		sum.Mod(sum, p)
		if sum.Sign() == 0 {
			return big.NewInt(0), big.NewInt(0)
		}
		return c.Double(x1, y1)
	}
	den := new(big.Int).Sub(x2, x1)
	den.Mod(den, p)
	lam := new(big.Int).Sub(y2, y1)
	lam.Mod(lam, p)
	lam.Mul(lam, new(big.Int).ModInverse(den, p))
	lam.Mod(lam, p)
	return c.chord(lam, x1, y1, x2)
}

func (c *toyCurve) Double(x1, y1 *big.Int) (*big.Int, *big.Int) {
	if x1.Sign() == 0 && y1.Sign() == 0 {
		return big.NewInt(0), big.NewInt(0)
	}
	p := c.params.P
	if new(big.Int).Mod(y1, p).Sign() == 0 {
		return big.NewInt(0), big.NewInt(0)
	}
	lam := new(big.Int).Mul(x1, x1)
	lam.Mul(lam, big.NewInt(3))
	lam.Add(lam, c.a)
	lam.Mod(lam, p)
	den := new(big.Int).Lsh(y1, 1)
	den.Mod(den, p)
	lam.Mul(lam, new(big.Int).ModInverse(den, p))
	lam.Mod(lam, p)
	return c.chord(lam, x1, y1, x1)
}

// chord finishes point addition given the chord/tangent slope.
func (c *toyCurve) chord(lam, x1, y1, x2 *big.Int) (*big.Int, *big.Int) {
	p := c.params.P
	x3 := new(big.Int).Mul(lam, lam)
	x3.Sub(x3, x1)
	x3.Sub(x3, x2)
	x3.Mod(x3, p)
	y3 := new(big.Int).Sub(x1, x3)
	y3.Mul(y3, lam)
	y3.Sub(y3, y1)
	y3.Mod(y3, p)
	return x3, y3
}

func (c *toyCurve) ScalarMult(x, y *big.Int, k []byte) (*big.Int, *big.Int) {
	rx, ry := big.NewInt(0), big.NewInt(0)
	px, py := new(big.Int).Set(x), new(big.Int).Set(y)
	kk := new(big.Int).SetBytes(k)
	for i := 0; i < kk.BitLen(); i++ {
		if kk.Bit(i) == 1 {
			rx, ry = c.Add(rx, ry, px, py)
		}
		px, py = c.Double(px, py)
	}
	return rx, ry
}

func (c *toyCurve) ScalarBaseMult(k []byte) (*big.Int, *big.Int) {
	return c.ScalarMult(c.params.Gx, c.params.Gy, k)
}

// newToyCurve builds y^2 = x^3 + ax + b over F_p and locates a generator
// of the largest prime-order subgroup. Returns nil for singular or
// unusable parameter choices.
func newToyCurve(p, a, b int64) *toyCurve {
	pBig := big.NewInt(p)
	disc := (4*a*a*a + 27*b*b) % p
	if disc == 0 || b%p == 0 {
		return nil
	}
	c := &toyCurve{
		params: &elliptic.CurveParams{
			P:       pBig,
			B:       big.NewInt(b % p),
			BitSize: pBig.BitLen(),
			Name:    "toy",
		},
		a: big.NewInt(a % p),
	}

	// First affine point found becomes the candidate base point.
	var p0x, p0y *big.Int
	for x := int64(1); x < p && p0x == nil; x++ {
		for y := int64(1); y < p; y++ {
			if c.IsOnCurve(big.NewInt(x), big.NewInt(y)) {
				p0x, p0y = big.NewInt(x), big.NewInt(y)
				break
			}
		}
	}
	if p0x == nil {
		return nil
	}

	// Order of the base point by direct enumeration.
	order := int64(0)
	qx, qy := big.NewInt(0), big.NewInt(0)
	for m := int64(1); m <= 4*p; m++ {
		qx, qy = c.Add(qx, qy, p0x, p0y)
		if qx.Sign() == 0 && qy.Sign() == 0 {
			order = m
			break
		}
	}
	if order == 0 {
		return nil
	}

	q := largestPrimeFactor(order)
	if q < 29 {
		return nil
	}
	gx, gy := c.ScalarMult(p0x, p0y, big.NewInt(order/q).Bytes())
	if gx.Sign() == 0 && gy.Sign() == 0 {
		return nil
	}
	c.params.N = big.NewInt(q)
	c.params.Gx, c.params.Gy = gx, gy
	return c
}

func largestPrimeFactor(n int64) int64 {
	largest := int64(1)
	for f := int64(2); f*f <= n; f++ {
		for n%f == 0 {
			largest = f
			n /= f
		}
	}
	if n > 1 {
		largest = n
	}
	return largest
}
