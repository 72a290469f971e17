package noncereuse

import "math/big"

// RecoverableSignature is the shared contract of the DSA and ECDSA
// variants. An instance is created once per (signature, digest, public key)
// triple and is verified against its bound key at construction; RecoverNonceReuse
// then enriches it with the shared nonce and the private exponent, or fails.
type RecoverableSignature interface {
	// Signature returns the canonical (r, s) pair.
	Signature() *SignatureParameter

	// Digest returns the digest bound at construction.
	Digest() *big.Int

	// Recovered reports whether RecoverNonceReuse has succeeded.
	Recovered() bool

	// Nonce returns the recovered per-signature secret k, or nil before
	// recovery.
	Nonce() *big.Int

	// Secret returns the recovered private exponent, or nil before
	// recovery.
	Secret() *big.Int

	// RecoverNonceReuse recovers the private key from this signature and
	// another one produced with the same nonce. Both must be the same
	// variant, share group parameters, and share r; a mismatch fails with
	// ErrIncompatiblePair before any arithmetic.
	RecoverNonceReuse(other RecoverableSignature) error

	// ExportKey serializes the recovered private key in the given format
	// (FormatPEM or FormatDER). It fails with ErrKeyNotRecovered before a
	// successful recovery.
	ExportKey(format string) ([]byte, error)
}

// recoverable carries the state common to both variants. nonce and secret
// stay nil until recovery succeeds and are then set together.
type recoverable struct {
	sig    *SignatureParameter
	digest *big.Int
	nonce  *big.Int
	secret *big.Int
}

func (r *recoverable) Signature() *SignatureParameter { return r.sig }

func (r *recoverable) Digest() *big.Int { return new(big.Int).Set(r.digest) }

func (r *recoverable) Recovered() bool { return r.secret != nil }

func (r *recoverable) Nonce() *big.Int {
	if r.nonce == nil {
		return nil
	}
	return new(big.Int).Set(r.nonce)
}

func (r *recoverable) Secret() *big.Int {
	if r.secret == nil {
		return nil
	}
	return new(big.Int).Set(r.secret)
}

func (r *recoverable) setRecovered(nonce, secret *big.Int) {
	r.nonce = nonce
	r.secret = secret
}
