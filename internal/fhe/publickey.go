package fhe

import (
	"encoding/hex"
	"errors"
	"math/big"
)

// Hex 公钥序列化，仅需模数n（g与n^2可推导）
func (pk *PublicKey) Hex() string {
	return hex.EncodeToString(pk.N.Bytes())
}

// PublicKeyFromHex 从十六进制模数还原公钥
func PublicKeyFromHex(s string) (*PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	n := new(big.Int).SetBytes(b)
	if n.Sign() <= 0 {
		return nil, errors.New("公钥模数无效")
	}
	return &PublicKey{
		N:  n,
		N2: new(big.Int).Mul(n, n),
		G:  new(big.Int).Add(n, one),
	}, nil
}
