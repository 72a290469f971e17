package noncereuse

import (
	"fmt"
	"math/big"
)

// DsaPublicKey holds the DSA group parameters (p, q, g) and the public
// value y = g^x mod p. The core never mutates a bound key.
type DsaPublicKey struct {
	P, Q, G, Y *big.Int
}

// NewDsaPublicKey copies the group parameters and public value into a key.
func NewDsaPublicKey(p, q, g, y *big.Int) (*DsaPublicKey, error) {
	if p == nil || q == nil || g == nil || y == nil {
		return nil, fmt.Errorf("%w: missing group parameter", ErrInvalidPublicKey)
	}
	if p.Sign() <= 0 || q.Sign() <= 0 {
		return nil, fmt.Errorf("%w: modulus and subgroup order must be positive", ErrInvalidPublicKey)
	}
	return &DsaPublicKey{
		P: new(big.Int).Set(p),
		Q: new(big.Int).Set(q),
		G: new(big.Int).Set(g),
		Y: new(big.Int).Set(y),
	}, nil
}

// Verify reports whether sig is a valid DSA signature over digest under
// this key.
func (pub *DsaPublicKey) Verify(digest *big.Int, sig *SignatureParameter) bool {
	r, s := sig.r, sig.s
	if r.Sign() <= 0 || r.Cmp(pub.Q) >= 0 || s.Sign() <= 0 || s.Cmp(pub.Q) >= 0 {
		return false
	}
	w, err := InverseMod(s, pub.Q)
	if err != nil {
		return false
	}
	u1 := new(big.Int).Mul(digest, w)
	u1.Mod(u1, pub.Q)
	u2 := new(big.Int).Mul(r, w)
	u2.Mod(u2, pub.Q)
	v := new(big.Int).Exp(pub.G, u1, pub.P)
	v.Mul(v, new(big.Int).Exp(pub.Y, u2, pub.P))
	v.Mod(v, pub.P)
	v.Mod(v, pub.Q)
	return v.Cmp(r) == 0
}

// DsaSignature is a verified DSA signature ready for nonce-reuse recovery.
type DsaSignature struct {
	recoverable
	pub      *DsaPublicKey
	checkPub bool
}

// NewDsaSignature normalizes the inputs, binds the public key and verifies
// the signature against it. A signature that does not verify never yields
// an instance.
func NewDsaSignature(sig, digest any, pub *DsaPublicKey) (*DsaSignature, error) {
	sp, err := ParseSignature(sig)
	if err != nil {
		return nil, err
	}
	h, err := ParseDigest(digest)
	if err != nil {
		return nil, err
	}
	if pub == nil {
		return nil, fmt.Errorf("%w: nil DSA public key", ErrInvalidPublicKey)
	}
	if err := checkRange(sp, pub.Q); err != nil {
		return nil, err
	}
	if !pub.Verify(h, sp) {
		return nil, fmt.Errorf("%w: (r, s) does not match digest under the bound DSA key", ErrSignatureMismatch)
	}
	return &DsaSignature{
		recoverable: recoverable{sig: sp, digest: h},
		pub:         pub,
	}, nil
}

// WithPublicKeyCheck makes RecoverNonceReuse confirm that g^x mod p equals
// the bound public value before accepting a result. The classic DSA formula
// cannot tell real nonce reuse from a coincidental r collision; without
// this check such a collision silently yields a wrong secret, with it the
// call fails with ErrRecoveryFailed.
func (d *DsaSignature) WithPublicKeyCheck() *DsaSignature {
	d.checkPub = true
	return d
}

// PublicKey returns the bound public key.
func (d *DsaSignature) PublicKey() *DsaPublicKey { return d.pub }

// RecoverNonceReuse recovers the nonce and private exponent from this
// signature and another DSA signature over a different digest that reused
// the same nonce:
//
//	k = (h1 - h2) * (s1 - s2)^-1 mod q
//	x = (k*s1 - h1) * r^-1 mod q
func (d *DsaSignature) RecoverNonceReuse(other RecoverableSignature) error {
	o, ok := other.(*DsaSignature)
	if !ok || o == nil {
		return fmt.Errorf("%w: other signature is not DSA", ErrIncompatiblePair)
	}
	if d.pub.Q.Cmp(o.pub.Q) != 0 {
		return fmt.Errorf("%w: subgroup orders differ", ErrIncompatiblePair)
	}
	if d.sig.r.Cmp(o.sig.r) != 0 {
		return fmt.Errorf("%w: r values differ (a reused nonce implies identical r)", ErrIncompatiblePair)
	}

	q := d.pub.Q
	sDiff := new(big.Int).Sub(d.sig.s, o.sig.s)
	sInv, err := InverseMod(sDiff, q)
	if err != nil {
		return err
	}
	k := new(big.Int).Sub(d.digest, o.digest)
	k.Mul(k, sInv)
	k.Mod(k, q)

	rInv, err := InverseMod(d.sig.r, q)
	if err != nil {
		return err
	}
	x := new(big.Int).Mul(k, d.sig.s)
	x.Sub(x, d.digest)
	x.Mul(x, rInv)
	x.Mod(x, q)

	if d.checkPub {
		if new(big.Int).Exp(d.pub.G, x, d.pub.P).Cmp(d.pub.Y) != 0 {
			return fmt.Errorf("%w: derived public value does not match the bound key", ErrRecoveryFailed)
		}
	}

	d.setRecovered(k, x)
	return nil
}

// PrivateKey reconstructs the full DSA private key from the recovered
// exponent and the bound group parameters.
func (d *DsaSignature) PrivateKey() (*DsaPrivateKey, error) {
	if !d.Recovered() {
		return nil, ErrKeyNotRecovered
	}
	return &DsaPrivateKey{
		P: new(big.Int).Set(d.pub.P),
		Q: new(big.Int).Set(d.pub.Q),
		G: new(big.Int).Set(d.pub.G),
		Y: new(big.Int).Set(d.pub.Y),
		X: new(big.Int).Set(d.secret),
	}, nil
}

// ExportKey serializes the recovered private key as PEM or DER.
func (d *DsaSignature) ExportKey(format string) ([]byte, error) {
	key, err := d.PrivateKey()
	if err != nil {
		return nil, err
	}
	return key.Export(format)
}
