package noncereuse

import (
	"crypto/sha256"
	"fmt"
	"math/big"
)

// SignatureParameter is an immutable (r, s) signature pair. Construct one
// with NewSignatureParameter or let ParseSignature normalize a looser input
// shape into the canonical form.
type SignatureParameter struct {
	r, s *big.Int
}

// NewSignatureParameter copies r and s into an immutable pair.
func NewSignatureParameter(r, s *big.Int) (*SignatureParameter, error) {
	if r == nil || s == nil {
		return nil, fmt.Errorf("%w: r and s must be non-nil", ErrInvalidSignature)
	}
	return &SignatureParameter{
		r: new(big.Int).Set(r),
		s: new(big.Int).Set(s),
	}, nil
}

// R returns a copy of the r component.
func (p *SignatureParameter) R() *big.Int { return new(big.Int).Set(p.r) }

// S returns a copy of the s component.
func (p *SignatureParameter) S() *big.Int { return new(big.Int).Set(p.s) }

// RS is the minimal read access any signature-like value must provide to be
// normalized by ParseSignature.
type RS interface {
	R() *big.Int
	S() *big.Int
}

// ParseSignature normalizes a signature input into a SignatureParameter.
// Accepted shapes: *SignatureParameter, SignatureParameter, a [2]*big.Int
// pair in (r, s) order, or any value implementing RS. Anything else fails
// with ErrInvalidSignature.
func ParseSignature(v any) (*SignatureParameter, error) {
	switch sig := v.(type) {
	case *SignatureParameter:
		if sig == nil {
			return nil, fmt.Errorf("%w: nil signature", ErrInvalidSignature)
		}
		return sig, nil
	case SignatureParameter:
		return NewSignatureParameter(sig.r, sig.s)
	case [2]*big.Int:
		return NewSignatureParameter(sig[0], sig[1])
	case RS:
		return NewSignatureParameter(sig.R(), sig.S())
	default:
		return nil, fmt.Errorf("%w: expected (r, s) pair or value with R/S accessors, got %T", ErrInvalidSignature, v)
	}
}

// ParseDigest normalizes a message digest into an integer. Integers pass
// through unchanged; byte strings are interpreted big-endian. Anything else
// fails with ErrInvalidDigest.
func ParseDigest(v any) (*big.Int, error) {
	switch h := v.(type) {
	case *big.Int:
		if h == nil {
			return nil, fmt.Errorf("%w: nil digest", ErrInvalidDigest)
		}
		return new(big.Int).Set(h), nil
	case []byte:
		return new(big.Int).SetBytes(h), nil
	case string:
		return new(big.Int).SetBytes([]byte(h)), nil
	case int:
		return big.NewInt(int64(h)), nil
	case int64:
		return big.NewInt(h), nil
	case uint64:
		return new(big.Int).SetUint64(h), nil
	default:
		return nil, fmt.Errorf("%w: expected integer or byte string, got %T", ErrInvalidDigest, v)
	}
}

// HashMessage hashes a message with SHA-256 and returns the digest as a
// big-endian integer. Verification reduces digests modulo the group order,
// so the raw value is returned here.
func HashMessage(message []byte) *big.Int {
	sum := sha256.Sum256(message)
	return new(big.Int).SetBytes(sum[:])
}

// checkRange enforces that both signature components lie in [1, order-1].
func checkRange(sig *SignatureParameter, order *big.Int) error {
	if sig.r.Sign() <= 0 || sig.r.Cmp(order) >= 0 {
		return fmt.Errorf("%w: r out of range [1, order-1]", ErrInvalidSignature)
	}
	if sig.s.Sign() <= 0 || sig.s.Cmp(order) >= 0 {
		return fmt.Errorf("%w: s out of range [1, order-1]", ErrInvalidSignature)
	}
	return nil
}
