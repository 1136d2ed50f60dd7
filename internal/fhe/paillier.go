// Package fhe 提供平台使用的加法同态加密能力（Paillier方案）。
// 密文对外不透明，仅支持同态加法、明文标量乘法和序列化；
// 解密私钥只存在于解密预言机一侧。
package fhe

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

var one = big.NewInt(1)

// PublicKey Paillier公钥
type PublicKey struct {
	N  *big.Int // 模数 n = p*q
	N2 *big.Int // n^2
	G  *big.Int // 生成元 g = n+1
}

// PrivateKey Paillier私钥（仅预言机持有）
type PrivateKey struct {
	Lambda *big.Int // lcm(p-1, q-1)
	Mu     *big.Int // lambda^-1 mod n
	PK     *PublicKey
}

// GenerateKey 生成指定比特长度的密钥对
func GenerateKey(bits int) (*PrivateKey, error) {
	if bits < 512 {
		return nil, errors.New("密钥长度过短")
	}

	p, err := rand.Prime(rand.Reader, bits/2)
	if err != nil {
		return nil, err
	}
	q, err := rand.Prime(rand.Reader, bits/2)
	if err != nil {
		return nil, err
	}
	if p.Cmp(q) == 0 {
		return nil, errors.New("素数重复")
	}

	n := new(big.Int).Mul(p, q)
	n2 := new(big.Int).Mul(n, n)
	g := new(big.Int).Add(n, one)

	pm1 := new(big.Int).Sub(p, one)
	qm1 := new(big.Int).Sub(q, one)
	gcd := new(big.Int).GCD(nil, nil, pm1, qm1)
	lambda := new(big.Int).Div(new(big.Int).Mul(pm1, qm1), gcd)

	mu := new(big.Int).ModInverse(lambda, n)
	if mu == nil {
		return nil, errors.New("无法计算lambda的模逆")
	}

	pk := &PublicKey{N: n, N2: n2, G: g}
	return &PrivateKey{Lambda: lambda, Mu: mu, PK: pk}, nil
}

// Encrypt 加密一个64位无符号整数，每次加密使用新鲜随机数
func (pk *PublicKey) Encrypt(m uint64) (*Ciphertext, error) {
	mInt := new(big.Int).SetUint64(m)
	if mInt.Cmp(pk.N) >= 0 {
		return nil, errors.New("明文超出模数范围")
	}

	// 随机数 r ∈ [1, n)，且 gcd(r, n) = 1
	var r *big.Int
	for {
		var err error
		r, err = rand.Int(rand.Reader, pk.N)
		if err != nil {
			return nil, err
		}
		if r.Sign() > 0 && new(big.Int).GCD(nil, nil, r, pk.N).Cmp(one) == 0 {
			break
		}
	}

	// c = g^m * r^n mod n^2，其中 g = n+1 时 g^m = 1 + m*n
	gm := new(big.Int).Mod(
		new(big.Int).Add(one, new(big.Int).Mul(mInt, pk.N)), pk.N2)
	rn := new(big.Int).Exp(r, pk.N, pk.N2)
	c := new(big.Int).Mod(new(big.Int).Mul(gm, rn), pk.N2)

	return &Ciphertext{c: c}, nil
}

// EncryptZero 加密零值，作为同态累加的初始值
func (pk *PublicKey) EncryptZero() (*Ciphertext, error) {
	return pk.Encrypt(0)
}

// Add 同态加法：密文相乘得到明文相加的密文
func (pk *PublicKey) Add(a, b *Ciphertext) (*Ciphertext, error) {
	if a == nil || b == nil || a.c == nil || b.c == nil {
		return nil, errors.New("密文为空")
	}
	c := new(big.Int).Mod(new(big.Int).Mul(a.c, b.c), pk.N2)
	return &Ciphertext{c: c}, nil
}

// MulScalar 同态标量乘法：密文求幂得到明文乘以标量的密文
func (pk *PublicKey) MulScalar(a *Ciphertext, k uint64) (*Ciphertext, error) {
	if a == nil || a.c == nil {
		return nil, errors.New("密文为空")
	}
	if k == 0 {
		return nil, errors.New("标量不能为零")
	}
	c := new(big.Int).Exp(a.c, new(big.Int).SetUint64(k), pk.N2)
	return &Ciphertext{c: c}, nil
}

// Decrypt 解密密文，结果必须在uint64范围内
func (sk *PrivateKey) Decrypt(ct *Ciphertext) (uint64, error) {
	if ct == nil || ct.c == nil {
		return 0, errors.New("密文为空")
	}
	pk := sk.PK

	// m = L(c^lambda mod n^2) * mu mod n，L(u) = (u-1)/n
	u := new(big.Int).Exp(ct.c, sk.Lambda, pk.N2)
	l := new(big.Int).Div(new(big.Int).Sub(u, one), pk.N)
	m := new(big.Int).Mod(new(big.Int).Mul(l, sk.Mu), pk.N)

	if !m.IsUint64() {
		return 0, fmt.Errorf("明文超出uint64范围: %s", m.String())
	}
	return m.Uint64(), nil
}
