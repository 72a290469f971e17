package noncereuse

import (
	"context"
	"crypto/elliptic"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/rs/zerolog"
)

// RecoveryResult is the outcome of a successful pair recovery.
type RecoveryResult struct {
	PrivateKey *big.Int         // Recovered secret exponent
	Nonce      *big.Int         // Shared per-signature nonce
	Key        *EcdsaPrivateKey // Full key, ready for Export
	PublicKey  []byte           // Public key derived from PrivateKey
	Verified   bool             // Derived public key matches the supplied verifying key
}

// Client orchestrates file parsing and recovery for a candidate signature
// pair. Pure computation stays in the signature types; the client only
// wires parsing, construction, and reporting together.
type Client struct {
	parser SignatureParser
	curve  elliptic.Curve
	log    zerolog.Logger
}

// NewClient creates a client with a JSON parser, the secp256k1 curve, and
// no logging.
func NewClient() *Client {
	return &Client{
		parser: &JSONParser{},
		curve:  Secp256k1(),
		log:    zerolog.Nop(),
	}
}

// WithParser sets the signature file parser.
func (c *Client) WithParser(parser SignatureParser) *Client {
	c.parser = parser
	return c
}

// WithCurve sets the curve signatures are interpreted on.
func (c *Client) WithCurve(curve elliptic.Curve) *Client {
	c.curve = curve
	return c
}

// WithLogger sets the structured logger.
func (c *Client) WithLogger(log zerolog.Logger) *Client {
	c.log = log
	return c
}

// RecoverPair parses a candidate pair file and recovers the private key.
// The file must contain exactly two signatures: identifying which
// signatures of a corpus share a nonce is the caller's job, this client
// only validates and recovers a pair already suspected of reuse.
// publicKeyHex is the verifying key both signatures are checked against.
func (c *Client) RecoverPair(ctx context.Context, source, publicKeyHex string) (*RecoveryResult, error) {
	records, err := c.parser.ParseSignatures(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signatures: %w", err)
	}
	return c.RecoverPairFromRecords(ctx, records, publicKeyHex)
}

// RecoverPairFromRecords recovers the private key from an in-memory
// candidate pair. Use this when the signatures come from your own parser
// or API rather than a file.
func (c *Client) RecoverPairFromRecords(ctx context.Context, records []*SignatureRecord, publicKeyHex string) (*RecoveryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(records) != 2 {
		return nil, fmt.Errorf("%w: expected exactly 2 candidate signatures, got %d", ErrInvalidSignature, len(records))
	}

	pubBytes, err := decodeHex(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	c.log.Debug().
		Str("curve", c.curve.Params().Name).
		Msg("constructing recoverable signatures")

	first, err := NewEcdsaSignature([2]*big.Int{records[0].R, records[0].S}, records[0].Digest, pubBytes, c.curve)
	if err != nil {
		return nil, fmt.Errorf("signature 1: %w", err)
	}
	second, err := NewEcdsaSignature([2]*big.Int{records[1].R, records[1].S}, records[1].Digest, pubBytes, c.curve)
	if err != nil {
		return nil, fmt.Errorf("signature 2: %w", err)
	}

	if err := first.RecoverNonceReuse(second); err != nil {
		c.log.Debug().Err(err).Msg("recovery failed")
		return nil, err
	}

	key, err := first.PrivateKey()
	if err != nil {
		return nil, err
	}

	result := &RecoveryResult{
		PrivateKey: first.Secret(),
		Nonce:      first.Nonce(),
		Key:        key,
	}
	if c.curve.Params().Name == "secp256k1" {
		buf := make([]byte, 32)
		key.D.FillBytes(buf)
		result.PublicKey = secp256k1.PrivKeyFromBytes(buf).PubKey().SerializeCompressed()
	} else {
		result.PublicKey = marshalPoint(c.curve, key.X, key.Y)
	}
	bound := first.PublicKey()
	result.Verified = key.X.Cmp(bound.X) == 0 && key.Y.Cmp(bound.Y) == 0

	c.log.Info().
		Bool("verified", result.Verified).
		Msg("private key recovered")
	return result, nil
}

// decodeHex decodes a hex string, tolerating a 0x prefix and odd length.
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}
