package noncereuse

import (
	"bytes"
	"crypto/elliptic"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"math/big"
)

// Key serialization formats accepted by ExportKey and the Export methods.
const (
	FormatPEM = "PEM"
	FormatDER = "DER"
)

// DsaPrivateKey is a reconstructed DSA private key: the group parameters,
// the public value, and the recovered secret exponent.
type DsaPrivateKey struct {
	P, Q, G, Y, X *big.Int
}

// EcdsaPrivateKey is a reconstructed ECDSA private key on its curve.
type EcdsaPrivateKey struct {
	Curve elliptic.Curve
	D     *big.Int
	X, Y  *big.Int
}

// dsaKeyASN1 is the OpenSSL DSAPrivateKey sequence.
type dsaKeyASN1 struct {
	Version int
	P       *big.Int
	Q       *big.Int
	G       *big.Int
	Y       *big.Int
	X       *big.Int
}

// ecKeyASN1 is the SEC1 ECPrivateKey sequence with a named curve.
type ecKeyASN1 struct {
	Version       int
	PrivateKey    []byte
	NamedCurveOID asn1.ObjectIdentifier `asn1:"optional,explicit,tag:0"`
	PublicKey     asn1.BitString        `asn1:"optional,explicit,tag:1"`
}

var (
	oidSecp256k1 = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
	oidP256      = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
	oidP384      = asn1.ObjectIdentifier{1, 3, 132, 0, 34}
	oidP521      = asn1.ObjectIdentifier{1, 3, 132, 0, 35}
)

func curveOID(curve elliptic.Curve) (asn1.ObjectIdentifier, error) {
	switch curve.Params().Name {
	case "secp256k1":
		return oidSecp256k1, nil
	case "P-256":
		return oidP256, nil
	case "P-384":
		return oidP384, nil
	case "P-521":
		return oidP521, nil
	}
	return nil, fmt.Errorf("%w: no OID for curve %q", ErrUnknownFormat, curve.Params().Name)
}

func curveByOID(oid asn1.ObjectIdentifier) (elliptic.Curve, error) {
	switch {
	case oid.Equal(oidSecp256k1):
		return Secp256k1(), nil
	case oid.Equal(oidP256):
		return elliptic.P256(), nil
	case oid.Equal(oidP384):
		return elliptic.P384(), nil
	case oid.Equal(oidP521):
		return elliptic.P521(), nil
	}
	return nil, fmt.Errorf("%w: unsupported curve OID %v", ErrUnknownFormat, oid)
}

// marshalPoint encodes (x, y) as an uncompressed SEC1 point.
func marshalPoint(curve elliptic.Curve, x, y *big.Int) []byte {
	byteLen := (curve.Params().BitSize + 7) / 8
	out := make([]byte, 1+2*byteLen)
	out[0] = 4
	x.FillBytes(out[1 : 1+byteLen])
	y.FillBytes(out[1+byteLen:])
	return out
}

// derFrom strips a PEM wrapper if present, following the original
// convention: a "-----" prefix means PEM, a leading SEQUENCE byte means
// raw DER.
func derFrom(data []byte, blockType string) ([]byte, error) {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----")) {
		block, _ := pem.Decode(data)
		if block == nil || block.Type != blockType {
			return nil, fmt.Errorf("%w: expected %q PEM block", ErrUnknownFormat, blockType)
		}
		return block.Bytes, nil
	}
	if len(data) > 0 && data[0] == 0x30 {
		return data, nil
	}
	return nil, fmt.Errorf("%w: input is neither PEM nor DER", ErrUnknownFormat)
}

func encodeKey(der []byte, blockType, format string) ([]byte, error) {
	switch format {
	case FormatDER:
		return der, nil
	case FormatPEM:
		return pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Export serializes the key in the OpenSSL DSAPrivateKey encoding.
func (k *DsaPrivateKey) Export(format string) ([]byte, error) {
	der, err := asn1.Marshal(dsaKeyASN1{
		Version: 0,
		P:       k.P,
		Q:       k.Q,
		G:       k.G,
		Y:       k.Y,
		X:       k.X,
	})
	if err != nil {
		return nil, err
	}
	return encodeKey(der, "DSA PRIVATE KEY", format)
}

// ImportDsaPrivateKey parses a PEM or DER encoded DSA private key.
func ImportDsaPrivateKey(data []byte) (*DsaPrivateKey, error) {
	der, err := derFrom(data, "DSA PRIVATE KEY")
	if err != nil {
		return nil, err
	}
	var raw dsaKeyASN1
	rest, err := asn1.Unmarshal(der, &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: trailing data after DSA key", ErrUnknownFormat)
	}
	if raw.Version != 0 {
		return nil, fmt.Errorf("%w: unsupported DSA key version %d", ErrUnknownFormat, raw.Version)
	}
	return &DsaPrivateKey{P: raw.P, Q: raw.Q, G: raw.G, Y: raw.Y, X: raw.X}, nil
}

// Export serializes the key in the SEC1 ECPrivateKey encoding with a named
// curve. Curves without a registered OID cannot be exported.
func (k *EcdsaPrivateKey) Export(format string) ([]byte, error) {
	oid, err := curveOID(k.Curve)
	if err != nil {
		return nil, err
	}
	byteLen := (k.Curve.Params().BitSize + 7) / 8
	priv := make([]byte, byteLen)
	k.D.FillBytes(priv)
	pub := marshalPoint(k.Curve, k.X, k.Y)
	der, err := asn1.Marshal(ecKeyASN1{
		Version:       1,
		PrivateKey:    priv,
		NamedCurveOID: oid,
		PublicKey:     asn1.BitString{Bytes: pub, BitLength: len(pub) * 8},
	})
	if err != nil {
		return nil, err
	}
	return encodeKey(der, "EC PRIVATE KEY", format)
}

// ImportEcdsaPrivateKey parses a PEM or DER encoded SEC1 EC private key.
// The public point is recomputed from the secret exponent.
func ImportEcdsaPrivateKey(data []byte) (*EcdsaPrivateKey, error) {
	der, err := derFrom(data, "EC PRIVATE KEY")
	if err != nil {
		return nil, err
	}
	var raw ecKeyASN1
	rest, err := asn1.Unmarshal(der, &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: trailing data after EC key", ErrUnknownFormat)
	}
	if raw.Version != 1 {
		return nil, fmt.Errorf("%w: unsupported EC key version %d", ErrUnknownFormat, raw.Version)
	}
	curve, err := curveByOID(raw.NamedCurveOID)
	if err != nil {
		return nil, err
	}
	d := new(big.Int).SetBytes(raw.PrivateKey)
	if d.Sign() <= 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, fmt.Errorf("%w: secret exponent out of range", ErrUnknownFormat)
	}
	x, y := curve.ScalarBaseMult(d.Bytes())
	return &EcdsaPrivateKey{Curve: curve, D: d, X: x, Y: y}, nil
}
