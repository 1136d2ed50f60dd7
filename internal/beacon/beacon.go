// Package beacon 提供不可预测的外部随机信标，
// 作为混淆乘数推导的输入之一。
package beacon

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
)

// Beacon 随机信标接口
type Beacon interface {
	// Latest 返回最新一轮的轮次号和随机值
	Latest() (round uint64, randomness []byte, err error)
}

// HTTPBeacon 通过HTTP获取公共随机信标（drand风格接口）
type HTTPBeacon struct {
	url    string
	client *http.Client
}

// NewHTTPBeacon 创建HTTP信标客户端
func NewHTTPBeacon(url string) *HTTPBeacon {
	return &HTTPBeacon{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Latest 获取最新一轮随机值
func (b *HTTPBeacon) Latest() (uint64, []byte, error) {
	resp, err := b.client.Get(b.url)
	if err != nil {
		return 0, nil, fmt.Errorf("请求信标失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, nil, fmt.Errorf("信标返回状态码 %d", resp.StatusCode)
	}

	var payload struct {
		Round      uint64 `json:"round"`
		Randomness string `json:"randomness"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, nil, fmt.Errorf("解析信标响应失败: %w", err)
	}

	randomness, err := hex.DecodeString(payload.Randomness)
	if err != nil {
		return 0, nil, fmt.Errorf("信标随机值格式错误: %w", err)
	}
	if len(randomness) == 0 {
		return 0, nil, fmt.Errorf("信标随机值为空")
	}

	return payload.Round, randomness, nil
}

// LocalBeacon 本地哈希链信标，初始种子来自crypto/rand，
// 用于测试和HTTP信标不可用时的降级
type LocalBeacon struct {
	mu    sync.Mutex
	round uint64
	state []byte
}

// NewLocalBeacon 创建本地信标
func NewLocalBeacon() (*LocalBeacon, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	return &LocalBeacon{state: seed}, nil
}

// Latest 推进哈希链并返回新一轮随机值
func (b *LocalBeacon) Latest() (uint64, []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.round++
	b.state = crypto.Keccak256(b.state)
	out := make([]byte, len(b.state))
	copy(out, b.state)
	return b.round, out, nil
}
