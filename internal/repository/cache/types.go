package cache

import "time"

// Envelope 支持逻辑过期的缓存载体
type Envelope struct {
	Data      any       `json:"data"`
	ExpireAt  time.Time `json:"expire_at"`  // 逻辑过期时间
	CreatedAt time.Time `json:"created_at"` // 创建时间，用于调试
}

// Expired 检查是否逻辑过期
func (e *Envelope) Expired() bool {
	return time.Now().After(e.ExpireAt)
}

// NewEnvelope 创建带逻辑过期的缓存载体
func NewEnvelope(data any, ttl time.Duration) *Envelope {
	now := time.Now()
	return &Envelope{
		Data:      data,
		ExpireAt:  now.Add(ttl),
		CreatedAt: now,
	}
}
