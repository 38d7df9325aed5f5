package cmd

import (
	"context"
	"io"
	"strings"

	"github.com/zjrosen/darkpan/internal/log"
	"github.com/zjrosen/darkpan/internal/presentation"
	"github.com/zjrosen/darkpan/internal/pubsub"
	"github.com/zjrosen/darkpan/internal/repository/domain"
)

// changeFeed prints a summary line for every repository event. The
// coordinator publishes before an operation returns, so a flush right after
// the call sees that operation's event.
type changeFeed struct {
	events <-chan pubsub.Event[*domain.Distribution]
	out    *presentation.Formatter
	cancel context.CancelFunc
}

func newChangeFeed(broker pubsub.Subscriber[*domain.Distribution], w io.Writer) *changeFeed {
	ctx, cancel := context.WithCancel(context.Background())
	return &changeFeed{
		events: broker.Subscribe(ctx),
		out:    presentation.NewFormatter(w),
		cancel: cancel,
	}
}

// flush prints every event received so far without waiting for more.
func (f *changeFeed) flush() {
	for {
		select {
		case evt, ok := <-f.events:
			if !ok {
				return
			}
			f.out.Change(changeVerb(evt.Type), evt.Payload)
		default:
			return
		}
	}
}

// Close flushes pending events and unsubscribes.
func (f *changeFeed) Close() {
	f.flush()
	f.cancel()
}

func changeVerb(t pubsub.EventType) string {
	switch t {
	case pubsub.AddedEvent:
		return "added"
	case pubsub.ImportedEvent:
		return "imported"
	case pubsub.RemovedEvent:
		return "removed"
	default:
		return string(t)
	}
}

// echoLogProblems copies WARN and ERROR log entries to w until ctx is done.
// Nothing is echoed when no logger is installed.
func echoLogProblems(ctx context.Context, w io.Writer) <-chan struct{} {
	done := make(chan struct{})
	entries := log.Subscribe(ctx)
	if entries == nil {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		for evt := range entries {
			if strings.Contains(evt.Payload, "[WARN]") || strings.Contains(evt.Payload, "[ERROR]") {
				_, _ = io.WriteString(w, strings.TrimRight(evt.Payload, "\n")+"\n")
			}
		}
	}()
	return done
}
