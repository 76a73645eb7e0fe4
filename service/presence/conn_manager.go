package presence

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"TeamHive/tools/ids"
)

// ===== 配置 =====

type ManagerConf struct {
	TTL        time.Duration    // 无心跳多久后清理（如 90s）
	SweepEvery time.Duration    // 清理周期（如 10s）
	SendQueue  int              // 每连接发送队列长度
	Clock      func() time.Time // 可注入时钟（单测用）；nil => time.Now
}

func (c *ManagerConf) norm() {
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.TTL <= 0 {
		c.TTL = 90 * time.Second
	}
	if c.SweepEvery <= 0 {
		c.SweepEvery = 10 * time.Second
	}
	if c.SendQueue <= 0 {
		c.SendQueue = 64
	}
}

// ===== 数据结构 =====

// Client 一条已通过会话校验的 presence 连接。
type Client struct {
	ConnID string
	UserID string
	WS     *websocket.Conn
	Send   chan []byte // 单写协程消费
	quit   chan struct{}

	CreatedAt time.Time
	Heartbeat time.Time
	ExpireAt  time.Time
}

// ConnManager tracks live connections per user from the verified session
// identity. Users are reference-counted across connections, so a second
// tab's disconnect does not mark them offline while the first tab lives.
type ConnManager struct {
	mu     sync.RWMutex
	byConn map[*websocket.Conn]*Client
	byUser map[string]map[string]*Client // userID -> (connID -> client)

	conf     ManagerConf
	stopOnce sync.Once
	stopCh   chan struct{}
	gwID     string // 节点ID
}

func NewConnManager(conf ManagerConf, gwID string) *ConnManager {
	conf.norm()
	m := &ConnManager{
		byConn: make(map[*websocket.Conn]*Client),
		byUser: make(map[string]map[string]*Client),
		conf:   conf,
		stopCh: make(chan struct{}),
		gwID:   gwID,
	}
	go m.sweeper()
	return m
}

func (m *ConnManager) GwID() string { return m.gwID }

// Add registers a connection for a verified user. first reports whether the
// user went from zero to one connection on this node.
func (m *ConnManager) Add(userID string, ws *websocket.Conn) (c *Client, first bool) {
	now := m.conf.Clock()
	c = &Client{
		ConnID:    ids.GenerateString(),
		UserID:    userID,
		WS:        ws,
		Send:      make(chan []byte, m.conf.SendQueue),
		quit:      make(chan struct{}),
		CreatedAt: now,
		Heartbeat: now,
		ExpireAt:  now.Add(m.conf.TTL),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.byConn[ws] = c
	mm := m.byUser[userID]
	if mm == nil {
		mm = make(map[string]*Client)
		m.byUser[userID] = mm
		first = true
	}
	mm[c.ConnID] = c
	return c, first
}

// Remove drops a connection. last reports whether the user now has no
// connections left on this node.
func (m *ConnManager) Remove(ws *websocket.Conn) (c *Client, last bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(ws)
}

func (m *ConnManager) removeLocked(ws *websocket.Conn) (c *Client, last bool) {
	c, ok := m.byConn[ws]
	if !ok {
		return nil, false
	}
	delete(m.byConn, ws)
	if mm := m.byUser[c.UserID]; mm != nil {
		delete(mm, c.ConnID)
		if len(mm) == 0 {
			delete(m.byUser, c.UserID)
			last = true
		}
	}
	close(c.quit)
	return c, last
}

// Done is closed when the connection is unregistered; the writer goroutine
// selects on it so the Send channel never has to be closed under readers.
func (c *Client) Done() <-chan struct{} { return c.quit }

// Touch renews the heartbeat deadline; called on pong.
func (m *ConnManager) Touch(ws *websocket.Conn) {
	now := m.conf.Clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.byConn[ws]; ok {
		c.Heartbeat = now
		c.ExpireAt = now.Add(m.conf.TTL)
	}
}

// CountFor returns the live connection count for a user on this node.
func (m *ConnManager) CountFor(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byUser[userID])
}

// Snapshot returns all live clients; broadcast targets.
func (m *ConnManager) Snapshot() []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Client, 0, len(m.byConn))
	for _, c := range m.byConn {
		out = append(out, c)
	}
	return out
}

func (m *ConnManager) Close() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.mu.Lock()
	defer m.mu.Unlock()
	for ws := range m.byConn {
		closeQuiet(ws)
		m.removeLocked(ws)
	}
}

func (m *ConnManager) sweeper() {
	t := time.NewTicker(m.conf.SweepEvery)
	defer t.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-t.C:
			now := m.conf.Clock()
			var stale []*websocket.Conn
			m.mu.RLock()
			for ws, c := range m.byConn {
				if now.After(c.ExpireAt) {
					stale = append(stale, ws)
				}
			}
			m.mu.RUnlock()
			for _, ws := range stale {
				// read 循环会因 close 退出并走正常的下线流程
				closeQuiet(ws)
			}
		}
	}
}

func closeQuiet(ws *websocket.Conn) {
	if ws != nil {
		_ = ws.Close()
	}
}
