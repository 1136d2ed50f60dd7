package oracle

import (
	"encoding/binary"
	"fmt"
)

// 明文负载编码：每个值固定8字节大端序，严格长度校验。
// 解码失败时调用方不得做任何状态变更。

// EncodeWords 将明文值编码为负载字节
func EncodeWords(values []uint64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint64(out[i*8:], v)
	}
	return out
}

// DecodeWords 从负载字节解码出期望数量的明文值
func DecodeWords(payload []byte, count int) ([]uint64, error) {
	if len(payload) != 8*count {
		return nil, fmt.Errorf("负载长度不匹配: 期望%d字节, 实际%d字节", 8*count, len(payload))
	}
	values := make([]uint64, count)
	for i := range values {
		values[i] = binary.BigEndian.Uint64(payload[i*8:])
	}
	return values, nil
}
