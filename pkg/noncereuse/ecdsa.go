package noncereuse

import (
	"crypto/elliptic"
	"fmt"
	"math/big"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Secp256k1 returns the secp256k1 curve, the default for ECDSA recovery.
func Secp256k1() elliptic.Curve { return secp256k1.S256() }

// EcdsaPublicKey binds a curve point to the curve it lives on.
type EcdsaPublicKey struct {
	Curve elliptic.Curve
	X, Y  *big.Int
}

// NewEcdsaPublicKey validates that (x, y) is on the curve and copies it
// into a key. A nil curve means secp256k1.
func NewEcdsaPublicKey(curve elliptic.Curve, x, y *big.Int) (*EcdsaPublicKey, error) {
	if curve == nil {
		curve = Secp256k1()
	}
	if x == nil || y == nil || !curve.IsOnCurve(x, y) {
		return nil, fmt.Errorf("%w: point is not on %s", ErrInvalidPublicKey, curve.Params().Name)
	}
	return &EcdsaPublicKey{
		Curve: curve,
		X:     new(big.Int).Set(x),
		Y:     new(big.Int).Set(y),
	}, nil
}

// ParseEcdsaPublicKey decodes an encoded verifying key against the given
// curve (nil means secp256k1). secp256k1 keys may be compressed,
// uncompressed or hybrid; other curves accept the uncompressed SEC1 form.
func ParseEcdsaPublicKey(data []byte, curve elliptic.Curve) (*EcdsaPublicKey, error) {
	if curve == nil {
		curve = Secp256k1()
	}
	if curve.Params().Name == "secp256k1" {
		pk, err := secp256k1.ParsePubKey(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		return NewEcdsaPublicKey(curve, pk.X(), pk.Y())
	}
	byteLen := (curve.Params().BitSize + 7) / 8
	if len(data) != 1+2*byteLen || data[0] != 4 {
		return nil, fmt.Errorf("%w: expected %d-byte uncompressed point", ErrInvalidPublicKey, 1+2*byteLen)
	}
	x := new(big.Int).SetBytes(data[1 : 1+byteLen])
	y := new(big.Int).SetBytes(data[1+byteLen:])
	return NewEcdsaPublicKey(curve, x, y)
}

// Verify reports whether sig is a valid ECDSA signature over digest under
// this key. The digest is reduced modulo the curve order.
func (pub *EcdsaPublicKey) Verify(digest *big.Int, sig *SignatureParameter) bool {
	n := pub.Curve.Params().N
	r, s := sig.r, sig.s
	if r.Sign() <= 0 || r.Cmp(n) >= 0 || s.Sign() <= 0 || s.Cmp(n) >= 0 {
		return false
	}
	w, err := InverseMod(s, n)
	if err != nil {
		return false
	}
	e := new(big.Int).Mod(digest, n)
	u1 := e.Mul(e, w)
	u1.Mod(u1, n)
	u2 := new(big.Int).Mul(r, w)
	u2.Mod(u2, n)
	x1, y1 := pub.Curve.ScalarBaseMult(u1.Bytes())
	x2, y2 := pub.Curve.ScalarMult(pub.X, pub.Y, u2.Bytes())
	x, y := pub.Curve.Add(x1, y1, x2, y2)
	if x == nil || (x.Sign() == 0 && y.Sign() == 0) {
		return false
	}
	return new(big.Int).Mod(x, n).Cmp(r) == 0
}

// EcdsaSignature is a verified ECDSA signature ready for nonce-reuse
// recovery.
type EcdsaSignature struct {
	recoverable
	pub *EcdsaPublicKey
}

// NewEcdsaSignature normalizes the inputs, binds the public key and
// verifies the signature against it. pubkey may be an *EcdsaPublicKey, a
// *secp256k1.PublicKey, or an encoded verifying key as []byte or string;
// encoded keys are decoded against curve (nil means secp256k1). A signature
// that does not verify never yields an instance.
func NewEcdsaSignature(sig, digest, pubkey any, curve elliptic.Curve) (*EcdsaSignature, error) {
	sp, err := ParseSignature(sig)
	if err != nil {
		return nil, err
	}
	h, err := ParseDigest(digest)
	if err != nil {
		return nil, err
	}

	var pub *EcdsaPublicKey
	switch pk := pubkey.(type) {
	case *EcdsaPublicKey:
		if pk == nil {
			return nil, fmt.Errorf("%w: nil ECDSA public key", ErrInvalidPublicKey)
		}
		bound := pk.Curve
		if bound == nil {
			bound = curve
		}
		pub, err = NewEcdsaPublicKey(bound, pk.X, pk.Y)
	case *secp256k1.PublicKey:
		if pk == nil {
			return nil, fmt.Errorf("%w: nil secp256k1 public key", ErrInvalidPublicKey)
		}
		pub, err = NewEcdsaPublicKey(Secp256k1(), pk.X(), pk.Y())
	case []byte:
		pub, err = ParseEcdsaPublicKey(pk, curve)
	case string:
		pub, err = ParseEcdsaPublicKey([]byte(pk), curve)
	default:
		return nil, fmt.Errorf("%w: unsupported public key type %T", ErrInvalidPublicKey, pubkey)
	}
	if err != nil {
		return nil, err
	}

	if err := checkRange(sp, pub.Curve.Params().N); err != nil {
		return nil, err
	}
	if !pub.Verify(h, sp) {
		return nil, fmt.Errorf("%w: (r, s) does not match digest under the bound ECDSA key", ErrSignatureMismatch)
	}
	return &EcdsaSignature{
		recoverable: recoverable{sig: sp, digest: h},
		pub:         pub,
	}, nil
}

// PublicKey returns the bound public key.
func (e *EcdsaSignature) PublicKey() *EcdsaPublicKey { return e.pub }

type ecdsaTrial struct {
	k, d *big.Int
}

// RecoverNonceReuse recovers the nonce and private exponent from this
// signature and another ECDSA signature over a different digest that reused
// the same nonce. ECDSA implementations may canonicalize s, so the shared
// nonce can combine with either sign of s1 and s2; the search tries the
// difference candidates
//
//	s1-s2, s1+s2, -s1-s2, -s1+s2
//
// and self-verifies each derived key against (h1, (r, s1)). Candidates are
// evaluated concurrently, but the first match in the listed order always
// wins, keeping the result deterministic. If no candidate yields a
// self-consistent key the pair did not actually share a nonce and the call
// fails with ErrRecoveryFailed.
func (e *EcdsaSignature) RecoverNonceReuse(other RecoverableSignature) error {
	o, ok := other.(*EcdsaSignature)
	if !ok || o == nil {
		return fmt.Errorf("%w: other signature is not ECDSA", ErrIncompatiblePair)
	}
	n := e.pub.Curve.Params().N
	if n.Cmp(o.pub.Curve.Params().N) != 0 {
		return fmt.Errorf("%w: curve orders differ", ErrIncompatiblePair)
	}
	if e.sig.r.Cmp(o.sig.r) != 0 {
		return fmt.Errorf("%w: r values differ (a reused nonce implies identical r)", ErrIncompatiblePair)
	}

	z := new(big.Int).Sub(e.digest, o.digest)
	rInv, err := InverseMod(e.sig.r, n)
	if err != nil {
		return err
	}

	s1, s2 := e.sig.s, o.sig.s
	negS1 := new(big.Int).Neg(s1)
	candidates := []*big.Int{
		new(big.Int).Sub(s1, s2),
		new(big.Int).Add(s1, s2),
		new(big.Int).Sub(negS1, s2),
		new(big.Int).Add(negS1, s2),
	}

	results := make([]*ecdsaTrial, len(candidates))
	var wg sync.WaitGroup
	for i, cand := range candidates {
		wg.Add(1)
		go func(i int, cand *big.Int) {
			defer wg.Done()
			results[i] = e.tryCandidate(cand, z, rInv, n)
		}(i, cand)
	}
	wg.Wait()

	for _, trial := range results {
		if trial != nil {
			e.setRecovered(trial.k, trial.d)
			return nil
		}
	}
	return fmt.Errorf("%w: no candidate nonce produced a self-consistent key", ErrRecoveryFailed)
}

// tryCandidate derives the nonce and secret implied by one s-difference
// candidate and keeps them only if the derived public key verifies this
// signature. Degenerate candidates (no inverse, zero secret) are discarded.
func (e *EcdsaSignature) tryCandidate(cand, z, rInv, n *big.Int) *ecdsaTrial {
	cInv, err := InverseMod(cand, n)
	if err != nil {
		return nil
	}
	k := new(big.Int).Mul(z, cInv)
	k.Mod(k, n)

	d := new(big.Int).Mul(e.sig.s, k)
	d.Sub(d, e.digest)
	d.Mod(d, n)
	d.Mul(d, rInv)
	d.Mod(d, n)
	if d.Sign() == 0 {
		return nil
	}

	x, y := e.pub.Curve.ScalarBaseMult(d.Bytes())
	trial := &EcdsaPublicKey{Curve: e.pub.Curve, X: x, Y: y}
	if !trial.Verify(e.digest, e.sig) {
		return nil
	}
	return &ecdsaTrial{k: k, d: d}
}

// PrivateKey reconstructs the full ECDSA private key from the recovered
// exponent on the bound curve.
func (e *EcdsaSignature) PrivateKey() (*EcdsaPrivateKey, error) {
	if !e.Recovered() {
		return nil, ErrKeyNotRecovered
	}
	x, y := e.pub.Curve.ScalarBaseMult(e.secret.Bytes())
	return &EcdsaPrivateKey{
		Curve: e.pub.Curve,
		D:     new(big.Int).Set(e.secret),
		X:     x,
		Y:     y,
	}, nil
}

// ExportKey serializes the recovered private key as PEM or DER.
func (e *EcdsaSignature) ExportKey(format string) ([]byte, error) {
	key, err := e.PrivateKey()
	if err != nil {
		return nil, err
	}
	return key.Export(format)
}
