package fhe

import (
	"errors"
	"math/big"
)

// Ciphertext 不透明密文，内部表示不对外暴露
type Ciphertext struct {
	c *big.Int
}

// Bytes 序列化密文，用于数据库存储
func (ct *Ciphertext) Bytes() []byte {
	if ct == nil || ct.c == nil {
		return nil
	}
	return ct.c.Bytes()
}

// CiphertextFromBytes 从序列化形式还原密文
func CiphertextFromBytes(b []byte) (*Ciphertext, error) {
	if len(b) == 0 {
		return nil, errors.New("密文字节为空")
	}
	return &Ciphertext{c: new(big.Int).SetBytes(b)}, nil
}
