package natsx

import (
	"time"

	"github.com/nats-io/nats.go"

	"TeamHive/logger"
)

// Relay carries presence status frames between gateway nodes over core NATS.
// Each node publishes its local connect/disconnect events and re-broadcasts
// frames that originated elsewhere, so every client sees every status change
// no matter which node it is attached to.

const StatusSubject = "teamhive.presence.status"

type Relay struct {
	nc   *nats.Conn
	sub  *nats.Subscription
	gwID string
}

type Config struct {
	URL           string
	Name          string
	ReconnectWait time.Duration
}

func NewRelay(cfg Config, gwID string) (*Relay, error) {
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	return &Relay{nc: nc, gwID: gwID}, nil
}

// Publish sends a status frame to the other nodes. The gateway id rides in
// the message header so receivers can skip their own frames.
func (r *Relay) Publish(payload []byte) error {
	msg := nats.NewMsg(StatusSubject)
	msg.Header.Set("gw", r.gwID)
	msg.Data = payload
	return r.nc.PublishMsg(msg)
}

// Subscribe registers the remote-frame handler. Frames from this node are
// dropped here, not in the handler.
func (r *Relay) Subscribe(handle func(payload []byte)) error {
	sub, err := r.nc.Subscribe(StatusSubject, func(m *nats.Msg) {
		if m.Header.Get("gw") == r.gwID {
			return
		}
		handle(m.Data)
	})
	if err != nil {
		return err
	}
	r.sub = sub
	return nil
}

func (r *Relay) Close() {
	if r.sub != nil {
		if err := r.sub.Unsubscribe(); err != nil {
			logger.Warnf("[natsx] unsubscribe err=%v", err)
		}
	}
	r.nc.Close()
}
