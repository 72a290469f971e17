package noncereuse

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testPairRecords(t *testing.T) ([]*SignatureRecord, string) {
	t.Helper()
	curve := Secp256k1()
	h1 := HashMessage([]byte("client message one"))
	h2 := HashMessage([]byte("client message two"))
	sigA := signEcdsaWithNonce(t, curve, testSecret, testNonce, h1)
	sigB := signEcdsaWithNonce(t, curve, testSecret, testNonce, h2)

	buf := make([]byte, 32)
	testSecret.FillBytes(buf)
	pubHex := hex.EncodeToString(secp256k1.PrivKeyFromBytes(buf).PubKey().SerializeCompressed())

	return []*SignatureRecord{
		{Digest: h1, R: sigA.R(), S: sigA.S()},
		{Digest: h2, R: sigB.R(), S: sigB.S()},
	}, pubHex
}

func TestClient_RecoverPair(t *testing.T) {
	records, pubHex := testPairRecords(t)
	path := writeTemp(t, "pair.json", fmt.Sprintf(`[
		{"z": "0x%s", "r": "0x%s", "s": "0x%s"},
		{"z": "0x%s", "r": "0x%s", "s": "0x%s"}
	]`,
		records[0].Digest.Text(16), records[0].R.Text(16), records[0].S.Text(16),
		records[1].Digest.Text(16), records[1].R.Text(16), records[1].S.Text(16),
	))

	result, err := NewClient().RecoverPair(context.Background(), path, pubHex)
	require.NoError(t, err)
	require.Equal(t, 0, result.PrivateKey.Cmp(testSecret))
	require.Equal(t, 0, result.Nonce.Cmp(testNonce))
	require.True(t, result.Verified)
	require.Equal(t, pubHex, hex.EncodeToString(result.PublicKey))

	pemOut, err := result.Key.Export(FormatPEM)
	require.NoError(t, err)
	imported, err := ImportEcdsaPrivateKey(pemOut)
	require.NoError(t, err)
	require.Equal(t, 0, imported.D.Cmp(testSecret))
}

func TestClient_RecoverPairCSV(t *testing.T) {
	records, pubHex := testPairRecords(t)
	path := writeTemp(t, "pair.csv", fmt.Sprintf("z,r,s\n0x%s,0x%s,0x%s\n0x%s,0x%s,0x%s\n",
		records[0].Digest.Text(16), records[0].R.Text(16), records[0].S.Text(16),
		records[1].Digest.Text(16), records[1].R.Text(16), records[1].S.Text(16),
	))

	result, err := NewClient().WithParser(&CSVParser{}).RecoverPair(context.Background(), path, pubHex)
	require.NoError(t, err)
	require.Equal(t, 0, result.PrivateKey.Cmp(testSecret))
}

func TestClient_RecoverPairFromRecords(t *testing.T) {
	records, pubHex := testPairRecords(t)

	t.Run("happy path", func(t *testing.T) {
		result, err := NewClient().RecoverPairFromRecords(context.Background(), records, pubHex)
		require.NoError(t, err)
		require.Equal(t, 0, result.PrivateKey.Cmp(testSecret))
		require.True(t, result.Verified)
	})

	t.Run("0x prefixed public key", func(t *testing.T) {
		_, err := NewClient().RecoverPairFromRecords(context.Background(), records, "0x"+pubHex)
		require.NoError(t, err)
	})

	t.Run("wrong record count", func(t *testing.T) {
		_, err := NewClient().RecoverPairFromRecords(context.Background(), records[:1], pubHex)
		require.ErrorIs(t, err, ErrInvalidSignature)

		_, err = NewClient().RecoverPairFromRecords(context.Background(), append(append([]*SignatureRecord{}, records...), records[0]), pubHex)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("bad public key hex", func(t *testing.T) {
		_, err := NewClient().RecoverPairFromRecords(context.Background(), records, "zz")
		require.ErrorIs(t, err, ErrInvalidPublicKey)
	})

	t.Run("mismatched public key", func(t *testing.T) {
		other := secp256k1.PrivKeyFromBytes([]byte{0x01}).PubKey().SerializeCompressed()
		_, err := NewClient().RecoverPairFromRecords(context.Background(), records, hex.EncodeToString(other))
		require.ErrorIs(t, err, ErrSignatureMismatch)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewClient().RecoverPairFromRecords(ctx, records, pubHex)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestClient_Logging(t *testing.T) {
	records, pubHex := testPairRecords(t)

	var buf bytes.Buffer
	log := zerolog.New(&buf)
	_, err := NewClient().WithLogger(log).RecoverPairFromRecords(context.Background(), records, pubHex)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "private key recovered")
	require.Contains(t, buf.String(), `"verified":true`)
}
