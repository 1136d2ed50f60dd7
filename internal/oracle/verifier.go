// Package oracle 实现解密预言机边界：
// 响应证明的签发与校验、明文负载编解码，以及模拟预言机服务。
package oracle

import (
	"crypto/ecdsa"
	"encoding/binary"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ProofDigest 计算证明摘要：keccak256(requestId || plaintexts)。
// 摘要绑定请求标识，重放到其他请求的响应无法通过校验。
func ProofDigest(requestId int64, plaintexts []byte) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(requestId))
	return crypto.Keccak256(buf[:], plaintexts)
}

// Sign 预言机对响应签名，生成65字节证明
func Sign(key *ecdsa.PrivateKey, requestId int64, plaintexts []byte) ([]byte, error) {
	return crypto.Sign(ProofDigest(requestId, plaintexts), key)
}

// Verifier 校验预言机响应证明
type Verifier struct {
	oracleAddr common.Address
}

// NewVerifier 创建证明校验器
func NewVerifier(oracleAddr common.Address) *Verifier {
	return &Verifier{oracleAddr: oracleAddr}
}

// NewVerifierFromHex 从十六进制地址创建证明校验器
func NewVerifierFromHex(addr string) (*Verifier, error) {
	if !common.IsHexAddress(addr) {
		return nil, errors.New("预言机地址格式错误")
	}
	return NewVerifier(common.HexToAddress(addr)), nil
}

// Verify 校验证明是否由预言机对该请求和负载签发。
// 任何解析失败都视为校验失败。
func (v *Verifier) Verify(requestId int64, plaintexts, proof []byte) bool {
	if len(proof) != crypto.SignatureLength {
		return false
	}
	pub, err := crypto.SigToPub(ProofDigest(requestId, plaintexts), proof)
	if err != nil {
		return false
	}
	return crypto.PubkeyToAddress(*pub) == v.oracleAddr
}
