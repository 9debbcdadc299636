package plugin_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/xraph/promo/client"
	"github.com/xraph/promo/plugin"
	"github.com/xraph/promo/source"
	"github.com/xraph/promo/voucher"
)

type namedPlugin struct{ name string }

func (p namedPlugin) Name() string { return p.name }

type issueWatcher struct {
	namedPlugin

	mu     sync.Mutex
	issued []string
	err    error
}

func (w *issueWatcher) OnVouchersIssued(_ context.Context, src *source.Source, issued []*voucher.Voucher) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.issued = append(w.issued, src.EventID+":"+voucher.Codes(issued)[0])
	return w.err
}

type slowPlugin struct{ namedPlugin }

func (slowPlugin) OnClientCreated(ctx context.Context, _ *client.Client) error {
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
	}
	return nil
}

func quiet() *plugin.Registry {
	return plugin.NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegisterDuplicateName(t *testing.T) {
	r := quiet()
	if err := r.Register(namedPlugin{"a"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(namedPlugin{"a"}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if r.Count() != 1 {
		t.Errorf("count: got %d", r.Count())
	}
	if r.Get("a") == nil || r.Get("b") != nil {
		t.Error("Get returned the wrong plugin")
	}
}

func TestEmitDispatchesOnlyToImplementers(t *testing.T) {
	r := quiet()
	w := &issueWatcher{namedPlugin: namedPlugin{"watcher"}}
	if err := r.Register(namedPlugin{"bare"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(w); err != nil {
		t.Fatal(err)
	}

	src := source.New("E1")
	src.Append("A1")
	r.EmitVouchersIssued(context.Background(), src, []*voucher.Voucher{voucher.New("E1", voucher.Input{Code: "A1"})})
	r.EmitClientCreated(context.Background(), client.New("a", "a@example.com", ""))

	if len(w.issued) != 1 || w.issued[0] != "E1:A1" {
		t.Errorf("unexpected dispatch %v", w.issued)
	}
	if got := len(r.List()); got != 2 {
		t.Errorf("list: got %d", got)
	}
}

func TestHookErrorsAreSwallowed(t *testing.T) {
	r := quiet()
	w := &issueWatcher{namedPlugin: namedPlugin{"failing"}, err: errors.New("boom")}
	if err := r.Register(w); err != nil {
		t.Fatal(err)
	}

	src := source.New("E1")
	r.EmitVouchersIssued(context.Background(), src, []*voucher.Voucher{voucher.New("E1", voucher.Input{Code: "X"})})
	if len(w.issued) != 1 {
		t.Error("failing hook should still have been called")
	}
}

func TestHookTimeout(t *testing.T) {
	r := quiet().WithTimeout(20 * time.Millisecond)
	if err := r.Register(slowPlugin{namedPlugin{"slow"}}); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	r.EmitClientCreated(context.Background(), client.New("a", "a@example.com", ""))
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("emit blocked for %v", elapsed)
	}
}
