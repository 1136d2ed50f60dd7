package oracle

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestVerifyAcceptsGenuineProof(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	v := NewVerifier(crypto.PubkeyToAddress(key.PublicKey))

	plaintexts := EncodeWords([]uint64{1100, 1000})
	proof, err := Sign(key, 7, plaintexts)
	require.NoError(t, err)

	require.True(t, v.Verify(7, plaintexts, proof))
}

func TestVerifyRejectsForgedOrReplayed(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	v := NewVerifier(crypto.PubkeyToAddress(key.PublicKey))

	plaintexts := EncodeWords([]uint64{500, 1000})
	proof, err := Sign(key, 7, plaintexts)
	require.NoError(t, err)

	// 负载被篡改
	tampered := EncodeWords([]uint64{1500, 1000})
	require.False(t, v.Verify(7, tampered, proof))

	// 重放到其他请求
	require.False(t, v.Verify(8, plaintexts, proof))

	// 其他签名者
	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	forged, err := Sign(other, 7, plaintexts)
	require.NoError(t, err)
	require.False(t, v.Verify(7, plaintexts, forged))

	// 证明格式错误
	require.False(t, v.Verify(7, plaintexts, proof[:32]))
	require.False(t, v.Verify(7, plaintexts, nil))
}

func TestDecodeWordsFailsClosed(t *testing.T) {
	payload := EncodeWords([]uint64{42, 99})

	values, err := DecodeWords(payload, 2)
	require.NoError(t, err)
	require.Equal(t, []uint64{42, 99}, values)

	_, err = DecodeWords(payload, 1)
	require.Error(t, err)
	_, err = DecodeWords(payload[:15], 2)
	require.Error(t, err)
	_, err = DecodeWords(nil, 1)
	require.Error(t, err)
}
