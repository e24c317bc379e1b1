// Package lifecycle moves visitors, vehicles and staff through their entry
// and exit states and keeps the history ledger in step with the live records.
//
// Every transition is a read-modify-write of one subject row followed by a
// best-effort write to its history row. The two writes are not atomic: a
// failure between them leaves the subject updated and the history row open.
// Concurrent transitions on one subject are only guarded by the status check;
// the store's open-session uniqueness is the sole hard guarantee.
package lifecycle

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Notifier queues a push notification. Implementations must not block and
// must swallow their own failures.
type Notifier interface {
	SendAsync(token, title, body string)
}

type nopNotifier struct{}

func (nopNotifier) SendAsync(string, string, string) {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// clock returns the current time. Services keep one so tests can pin it.
type clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

func (c clock) stamp() *time.Time {
	t := c()
	return &t
}

// notifyAll fans one message out to every token.
func notifyAll(n Notifier, tokens []string, title, body string) {
	for _, token := range tokens {
		n.SendAsync(token, title, body)
	}
	if len(tokens) > 0 {
		log.Debug().Int("recipients", len(tokens)).Str("title", title).Msg("notifications queued")
	}
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
