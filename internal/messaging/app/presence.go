package app

import (
	"sync"

	"farmconnect/internal/messaging/domain"
)

// Pusher 活躍連線的控制代碼, 由 websocket session 實作
type Pusher interface {
	Push(event domain.PushEvent)
}

// PresenceRegistry process-scoped map userID → live connection handle.
// 連線驗證成功後註冊, 斷線時移除; 查不到代表走 REST 補拉, 不是錯誤.
type PresenceRegistry struct {
	mu    sync.RWMutex
	conns map[string]Pusher
}

// NewPresenceRegistry create an empty registry
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		conns: map[string]Pusher{},
	}
}

// Register add or replace the connection handle of a user (最後連線者生效)
func (p *PresenceRegistry) Register(userID string, conn Pusher) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[userID] = conn
}

// Unregister remove the user entry, idempotent
func (p *PresenceRegistry) Unregister(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.conns, userID)
}

// UnregisterConn remove the user entry only if it still points at conn.
// 舊連線被新連線取代後才斷線時, 它的清理不能把新連線踢下線.
func (p *PresenceRegistry) UnregisterConn(userID string, conn Pusher) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conns[userID] == conn {
		delete(p.conns, userID)
	}
}

// IsOnline check the user has an active connection
func (p *PresenceRegistry) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.conns[userID]
	return ok
}

// Notify push an event to the user's connection if present; 回傳是否送出
func (p *PresenceRegistry) Notify(userID string, event domain.PushEvent) bool {
	p.mu.RLock()
	conn, ok := p.conns[userID]
	p.mu.RUnlock()
	if !ok {
		return false
	}
	conn.Push(event)
	return true
}
