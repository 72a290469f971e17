// Package noncereuse recovers DSA and ECDSA private keys from two signatures
// that were produced with the same per-signature secret nonce.
//
// Reusing a nonce k across two signatures under the same private key lets
// anyone holding both signatures and their message digests solve for the key
// with a handful of modular operations. This package implements that
// recovery for both classic DSA and ECDSA (any crypto/elliptic curve,
// secp256k1 by default), for security researchers validating that a target
// system reuses nonces.
//
// # Quick Start
//
//	import "github.com/mahdiidarabi/nonce-reuse/pkg/noncereuse"
//
//	// Two signatures suspected to share a nonce, bound to the same
//	// verifying key. Construction verifies each signature; it fails if
//	// the signature does not match the digest under the key.
//	first, err := noncereuse.NewEcdsaSignature(sig1, digest1, pubKeyBytes, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	second, err := noncereuse.NewEcdsaSignature(sig2, digest2, pubKeyBytes, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := first.RecoverNonceReuse(second); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("private key: %s\n", first.Secret().Text(16))
//	fmt.Printf("shared nonce: %s\n", first.Nonce().Text(16))
//
//	pemBytes, err := first.ExportKey(noncereuse.FormatPEM)
//
// # Candidate Pairs Only
//
// The package does not hunt for reused nonces in a signature corpus. The
// caller supplies one candidate pair; recovery validates the pair (same
// group, same r) and either recovers the key or reports failure. For ECDSA
// the result is always self-verified against the bound public key, so a
// success is a real key and a failure is explicit. The DSA path mirrors the
// classic formula and by default trusts the caller's pairing; enable
// WithPublicKeyCheck to reject coincidental r collisions instead.
//
// # File-Based Workflow
//
// Client wires the pieces together for signatures stored in JSON or CSV
// files:
//
//	client := noncereuse.NewClient().WithLogger(log)
//	result, err := client.RecoverPair(ctx, "pair.json", "02c5...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("recovered: %s\n", result.PrivateKey.Text(16))
package noncereuse
