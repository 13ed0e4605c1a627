package eventbus

import (
	"fmt"

	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/logger"
)

// On subscribes a handler that receives the payload as T. Events whose
// payload is not a T are logged and skipped.
func On[T any](b *Bus, kind domain.EventKind, fn func(T)) Token {
	return b.Subscribe(kind, func(event domain.Event) {
		payload, ok := event.Payload.(T)
		if !ok {
			b.logger.WithField(logger.FieldEventKind, string(kind)).
				Warn(fmt.Sprintf("unexpected payload type %T", event.Payload))
			return
		}
		fn(payload)
	})
}
