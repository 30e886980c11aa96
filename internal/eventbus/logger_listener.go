package eventbus

import (
	"context"

	"github.com/annel0/skirmish/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог уровня DEBUG.
// Функция неблокирующая.
func StartLoggingListener(bus EventBus, logger *logging.Logger) (Subscription, error) {
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		logger.Debug("[EventBus] %s %s src=%s t=%dms size=%dB", ev.ID, ev.EventType, ev.Source, ev.SimTimeMs, len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	logger.Info("🪵 LoggingListener: подписка на все события активирована")
	return sub, nil
}
