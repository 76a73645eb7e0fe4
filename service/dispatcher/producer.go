package dispatcher

import (
	"encoding/json"
	"time"

	"github.com/Shopify/sarama"

	"TeamHive/logger"
	"TeamHive/tools/safe"
)

// The dispatcher is the "notification sender" seam: domain events go out on
// a kafka topic and whatever consumes them (mailer, push service) is not our
// problem. Publishing is fire-and-forget; a broker outage never fails the
// originating request.

const EventTopic = "teamhive_events"

type Event struct {
	Type      string `json:"type"`                // e.g. friend.request.sent
	ActorID   string `json:"actorId"`             // who did it
	SubjectID string `json:"subjectId,omitempty"` // who it happened to
	ProjectID string `json:"projectId,omitempty"` // project scope, when any
	At        int64  `json:"at"`                  // unix ms
}

var producer sarama.AsyncProducer

func buildConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = false
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Partitioner = sarama.NewHashPartitioner // Key 控制分区
	cfg.Net.DialTimeout = 10 * time.Second
	return cfg
}

func InitProducer(brokers []string) error {
	p, err := sarama.NewAsyncProducer(brokers, buildConfig())
	if err != nil {
		return err
	}
	producer = p
	safe.Go(func() {
		for e := range p.Errors() {
			logger.Errorf("[dispatcher] publish failed topic=%s err=%v", e.Msg.Topic, e.Err)
		}
	})
	return nil
}

// Publish enqueues an event keyed by actor, so one user's events stay ordered.
// A nil producer (kafka disabled or not yet up) drops the event silently.
func Publish(ev Event) {
	if producer == nil {
		return
	}
	if ev.At == 0 {
		ev.At = time.Now().UnixMilli()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Errorf("[dispatcher] marshal event err=%v", err)
		return
	}
	producer.Input() <- &sarama.ProducerMessage{
		Topic: EventTopic,
		Key:   sarama.StringEncoder(ev.ActorID),
		Value: sarama.ByteEncoder(payload),
	}
}

func Close() {
	if producer != nil {
		_ = producer.Close()
	}
}
