package dispatcher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/bichon-mail/bichon/internal/logger"
	"github.com/bichon-mail/bichon/interfaces"
)

const (
	statusExchange     = "bichon-sync-status"
	statusRoutingKey   = "sync.status"
	publishTimeout     = 5 * time.Second
	reconnectBackoff   = time.Second
	maxReconnectBackoff = 30 * time.Second
)

// AMQPDispatcher fans out status events to an AMQP exchange, mirroring the
// reconnect-with-backoff shape of the publisher this module is adapted
// from. It is an optional sink layered on top of ChannelDispatcher, never
// a replacement for it.
type AMQPDispatcher struct {
	url    string
	log    logger.Logger
	mu     sync.Mutex
	conn   *amqp091.Connection
	ch     *amqp091.Channel
}

func NewAMQPDispatcher(url string, log logger.Logger) (*AMQPDispatcher, error) {
	d := &AMQPDispatcher{url: url, log: log}
	if err := d.connect(); err != nil {
		return nil, err
	}
	go d.watchReconnect()
	return d, nil
}

func (d *AMQPDispatcher) connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	conn, err := amqp091.Dial(d.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	if err := ch.ExchangeDeclare(statusExchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	d.conn = conn
	d.ch = ch
	return nil
}

func (d *AMQPDispatcher) watchReconnect() {
	backoff := reconnectBackoff
	for {
		d.mu.Lock()
		conn := d.conn
		d.mu.Unlock()
		if conn == nil {
			time.Sleep(backoff)
			continue
		}

		notifyClose := conn.NotifyClose(make(chan *amqp091.Error))
		err := <-notifyClose
		d.log.Warnf("amqp status dispatcher connection closed: %v, reconnecting", err)

		for {
			if err := d.connect(); err == nil {
				backoff = reconnectBackoff
				break
			}
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxReconnectBackoff {
				backoff = maxReconnectBackoff
			}
		}
	}
}

// Dispatch never blocks the caller beyond the publish timeout: the core
// must not stall a sync run waiting on a broker.
func (d *AMQPDispatcher) Dispatch(event interfaces.StatusEvent) {
	d.mu.Lock()
	ch := d.ch
	d.mu.Unlock()
	if ch == nil {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		d.log.Errorf("failed to marshal status event: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx, statusExchange, statusRoutingKey, false, false, amqp091.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   time.Now(),
	})
	if err != nil {
		d.log.Warnf("failed to publish status event for account %s: %v", event.AccountID, err)
	}
}

// FanoutDispatcher dispatches to multiple sinks, used to combine the
// required channel sink with the optional AMQP sink.
type FanoutDispatcher struct {
	sinks []interfaces.StatusDispatcher
}

func NewFanoutDispatcher(sinks ...interfaces.StatusDispatcher) *FanoutDispatcher {
	return &FanoutDispatcher{sinks: sinks}
}

func (f *FanoutDispatcher) Dispatch(event interfaces.StatusEvent) {
	for _, sink := range f.sinks {
		sink.Dispatch(event)
	}
}
