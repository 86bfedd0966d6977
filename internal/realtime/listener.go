package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	listenerPingInterval = 90 * time.Second
)

// Listener follows the remote store's change channel and reports the key of
// every document written by any instance. An empty key means notifications
// may have been missed and every cached document should be treated as stale.
type Listener struct {
	dsn      string
	channel  string
	onChange func(key string)
}

func NewListener(dsn, channel string, onChange func(key string)) *Listener {
	return &Listener{
		dsn:      dsn,
		channel:  channel,
		onChange: onChange,
	}
}

func (l *Listener) Run(ctx context.Context) error {
	listener := pq.NewListener(l.dsn, minReconnectInterval, maxReconnectInterval, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			zap.L().Warn("change feed connection problem", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	defer listener.Close()

	if err := listener.Listen(l.channel); err != nil {
		return fmt.Errorf("listener.Listen -> %w", err)
	}
	zap.L().Info("listening for document changes", zap.String("channel", l.channel))

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			if n == nil {
				// Reconnected.
				l.onChange("")
				continue
			}
			l.onChange(n.Extra)
		case <-time.After(listenerPingInterval):
			go func() {
				if err := listener.Ping(); err != nil {
					zap.L().Warn("change feed ping failed", zap.Error(err))
				}
			}()
		}
	}
}
