package noncereuse

import "errors"

var (
	// ErrInvalidSignature is returned when a signature input is neither an
	// (r, s) pair nor a value exposing R/S accessors, or when a component
	// is outside [1, order-1].
	ErrInvalidSignature = errors.New("invalid signature format")

	// ErrInvalidDigest is returned when a digest input is neither an
	// integer nor a byte string.
	ErrInvalidDigest = errors.New("invalid digest format")

	// ErrInvalidPublicKey is returned when a public key input cannot be
	// bound: unsupported type, undecodable bytes, or a point off the curve.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrSignatureMismatch is returned by the construction-time
	// verification gate when the signature does not verify against the
	// bound public key.
	ErrSignatureMismatch = errors.New("signature does not verify")

	// ErrIncompatiblePair is returned when the two signatures of a
	// recovery pair differ in scheme, group parameters, or r value.
	ErrIncompatiblePair = errors.New("incompatible signature pair")

	// ErrNotCoprime is returned by InverseMod when no modular inverse
	// exists.
	ErrNotCoprime = errors.New("no modular inverse: inputs are not coprime")

	// ErrRecoveryFailed is returned when no nonce candidate yields a
	// self-consistent private key.
	ErrRecoveryFailed = errors.New("nonce reuse recovery failed")

	// ErrKeyNotRecovered is returned when a private key is requested
	// before RecoverNonceReuse has succeeded.
	ErrKeyNotRecovered = errors.New("private key not yet recovered")

	// ErrUnknownFormat is returned for unsupported key encodings.
	ErrUnknownFormat = errors.New("unknown key format")
)
