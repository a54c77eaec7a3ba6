package dispatcher

import (
	"github.com/bichon-mail/bichon/internal/logger"
	"github.com/bichon-mail/bichon/interfaces"
)

// ChannelDispatcher is the required in-process sink for status events: a
// fire-and-forget buffered channel. The core never blocks on it - a full
// buffer drops the event and logs a warning rather than stalling a sync.
type ChannelDispatcher struct {
	events chan interfaces.StatusEvent
	log    logger.Logger
}

func NewChannelDispatcher(bufferSize int, log logger.Logger) *ChannelDispatcher {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &ChannelDispatcher{
		events: make(chan interfaces.StatusEvent, bufferSize),
		log:    log,
	}
}

func (d *ChannelDispatcher) Dispatch(event interfaces.StatusEvent) {
	select {
	case d.events <- event:
	default:
		d.log.Warnf("status dispatcher buffer full, dropping event for account %s", event.AccountID)
	}
}

// Events exposes the read side for a consumer loop (e.g. the cmd/
// scheduler forwarding to logs or a dashboard poll).
func (d *ChannelDispatcher) Events() <-chan interfaces.StatusEvent {
	return d.events
}
