package presence

import (
	"context"
	"encoding/json"
	"time"

	"TeamHive/logger"
	userservice "TeamHive/module/user/service"
	"TeamHive/service/natsx"
	storage "TeamHive/service/storage"
)

// StatusEvent is the userStatus frame every connected client receives on
// any connect/disconnect that flips a user's presence.
type StatusEvent struct {
	UserID   string     `json:"userId"`
	IsOnline bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

type statusFrame struct {
	Type    string      `json:"type"` // "userStatus"
	Payload StatusEvent `json:"payload"`
}

// Broadcaster turns connection lifecycle events into identity-store writes,
// presence-cache updates and fanned-out status frames. Only the edges count:
// a user with three tabs open flips once on the way up and once on the way
// down.
type Broadcaster struct {
	mgr   *ConnManager
	fan   *Fanout
	relay *natsx.Relay // nil: single-node deployment
	ttl   time.Duration
}

func NewBroadcaster(mgr *ConnManager, fan *Fanout, relay *natsx.Relay, ttl time.Duration) *Broadcaster {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Broadcaster{mgr: mgr, fan: fan, relay: relay, ttl: ttl}
}

// ClientConnected runs after the connection is registered. first is the
// manager's verdict on whether this was the user's 0→1 edge.
func (b *Broadcaster) ClientConnected(ctx context.Context, userID string, first bool) {
	if err := storage.PresenceOnline(userID, b.mgr.GwID(), b.ttl); err != nil {
		logger.Warnf("[presence] redis online userID=%s err=%v", userID, err)
	}
	if !first {
		return
	}
	if err := userservice.SetPresence(ctx, userID, true, nil); err != nil {
		logger.Errorf("[presence] set online userID=%s err=%v", userID, err)
	}
	b.emit(StatusEvent{UserID: userID, IsOnline: true})
}

// ClientDisconnected runs after the connection is unregistered.
func (b *Broadcaster) ClientDisconnected(ctx context.Context, userID string, last bool) {
	if !last {
		return
	}
	now := time.Now()
	if err := userservice.SetPresence(ctx, userID, false, &now); err != nil {
		logger.Errorf("[presence] set offline userID=%s err=%v", userID, err)
	}
	if err := storage.PresenceOffline(userID); err != nil {
		logger.Warnf("[presence] redis offline userID=%s err=%v", userID, err)
	}
	b.emit(StatusEvent{UserID: userID, IsOnline: false, LastSeen: &now})
}

// Renew extends the presence TTL on heartbeat.
func (b *Broadcaster) Renew(userID string) {
	if err := storage.PresenceRenew(userID, b.ttl); err != nil {
		logger.Warnf("[presence] renew userID=%s err=%v", userID, err)
	}
}

// HandleRemote re-broadcasts a status frame that originated on another
// gateway node. Locally it is fanout only: the origin already owns the
// store writes.
func (b *Broadcaster) HandleRemote(payload []byte) {
	b.fan.Broadcast(b.mgr.Snapshot(), payload)
}

func (b *Broadcaster) emit(ev StatusEvent) {
	payload, err := json.Marshal(statusFrame{Type: "userStatus", Payload: ev})
	if err != nil {
		logger.Errorf("[presence] marshal status err=%v", err)
		return
	}
	b.fan.Broadcast(b.mgr.Snapshot(), payload)
	if b.relay != nil {
		if err := b.relay.Publish(payload); err != nil {
			logger.Warnf("[presence] relay publish err=%v", err)
		}
	}
}
