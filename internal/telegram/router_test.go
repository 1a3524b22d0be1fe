package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"valley_bot/internal/metrics"
)

func TestRouterDispatchesCommandsAndLongestPrefix(t *testing.T) {
	router := NewRouter(nil, nil)

	var hits []string
	record := func(name string) HandlerFunc {
		return func(context.Context, Messenger, Event) error {
			hits = append(hits, name)
			return nil
		}
	}
	router.Command("points", record("points"))
	router.Callback("menu_", record("menu"))
	router.Callback("menu_ad", record("menu_ad"))

	ctx := context.Background()
	if !router.Dispatch(ctx, nil, Event{Command: "points"}) {
		t.Fatalf("expected command to be handled")
	}
	if !router.Dispatch(ctx, nil, Event{CallbackData: "menu_help"}) {
		t.Fatalf("expected menu callback to be handled")
	}
	if !router.Dispatch(ctx, nil, Event{CallbackData: "menu_ad"}) {
		t.Fatalf("expected menu_ad callback to be handled")
	}
	if router.Dispatch(ctx, nil, Event{Command: "unknown"}) {
		t.Fatalf("expected unknown command to be ignored")
	}
	if router.Dispatch(ctx, nil, Event{Text: "just chatting"}) {
		t.Fatalf("expected plain text to be ignored")
	}

	want := []string{"points", "menu", "menu_ad"}
	if len(hits) != len(want) {
		t.Fatalf("expected hits %v, got %v", want, hits)
	}
	for i := range want {
		if hits[i] != want[i] {
			t.Fatalf("expected hits %v, got %v", want, hits)
		}
	}
}

func TestRouterContainsErrorsAndPanics(t *testing.T) {
	hookLogger, hook := logtest.NewNullLogger()
	m := metrics.New()
	router := NewRouter(logrus.NewEntry(hookLogger), m)

	router.Command("fail", func(context.Context, Messenger, Event) error {
		return errors.New("send failed")
	})
	router.Command("boom", func(context.Context, Messenger, Event) error {
		panic("nil map")
	})

	ctx := context.Background()
	router.Dispatch(ctx, nil, Event{Command: "fail", ChatID: 1, ChatKind: "private", UserID: 1})
	if entry := hook.LastEntry(); entry == nil || entry.Data["event"] != "handler_error" || entry.Data["route"] != "/fail" {
		t.Fatalf("expected handler_error log, got %v", entry)
	}

	router.Dispatch(ctx, nil, Event{Command: "boom", ChatID: -5, ChatKind: "group"})
	entry := hook.LastEntry()
	if entry == nil || entry.Data["event"] != "handler_panic" || entry.Data["owner"] != "group_-5" {
		t.Fatalf("expected handler_panic log, got %v", entry)
	}

	if count, err := testutil.GatherAndCount(m.Registry(), "valley_bot_handler_errors_total"); err != nil || count != 2 {
		t.Fatalf("expected two handler error series, got %d (%v)", count, err)
	}
}

func TestRouterRepliesAfterPanic(t *testing.T) {
	hookLogger, hook := logtest.NewNullLogger()
	router := NewRouter(logrus.NewEntry(hookLogger), nil)

	var replied []int64
	router.OnPanic(func(_ context.Context, _ Messenger, ev Event) error {
		replied = append(replied, ev.ChatID)
		return nil
	})
	router.Command("boom", func(context.Context, Messenger, Event) error {
		panic("nil map")
	})
	router.Command("ok", func(context.Context, Messenger, Event) error {
		return nil
	})

	ctx := context.Background()
	router.Dispatch(ctx, &fakeMessenger{}, Event{Command: "ok", ChatID: 3, ChatKind: "private", UserID: 3})
	router.Dispatch(ctx, &fakeMessenger{}, Event{Command: "boom", ChatID: 4, ChatKind: "private", UserID: 4})

	if len(replied) != 1 || replied[0] != 4 {
		t.Fatalf("expected one reply to chat 4, got %v", replied)
	}
	if entry := hook.LastEntry(); entry == nil || entry.Data["event"] != "handler_panic" {
		t.Fatalf("expected handler_panic log, got %v", entry)
	}
}

func TestRouterContainsPanicInPanicReply(t *testing.T) {
	hookLogger, hook := logtest.NewNullLogger()
	router := NewRouter(logrus.NewEntry(hookLogger), nil)

	router.OnPanic(func(context.Context, Messenger, Event) error {
		panic("reply failed too")
	})
	router.Command("boom", func(context.Context, Messenger, Event) error {
		panic("nil map")
	})

	router.Dispatch(context.Background(), &fakeMessenger{}, Event{Command: "boom", ChatID: 4, ChatKind: "private", UserID: 4})

	if entry := hook.LastEntry(); entry == nil || entry.Data["event"] != "panic_reply_error" {
		t.Fatalf("expected panic_reply_error log, got %v", entry)
	}
}
