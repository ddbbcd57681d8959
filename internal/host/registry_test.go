package host

import (
	"context"
	"errors"
	"net/url"
	"testing"
)

type stubProvider struct{ id string }

func (p *stubProvider) ViewID() string                    { return p.id }
func (p *stubProvider) Resolve(_ context.Context) error   { return nil }

func TestViewRegistry_Register(t *testing.T) {
	reg := NewViewRegistry()

	if err := reg.Register(&stubProvider{id: "sidebar"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, ok := reg.Provider("sidebar"); !ok {
		t.Error("Provider() did not find registered view")
	}

	err := reg.Register(&stubProvider{id: "sidebar"})
	if !errors.Is(err, ErrViewRegistered) {
		t.Errorf("duplicate Register() error = %v, want ErrViewRegistered", err)
	}
}

func TestCommandRegistry_Execute(t *testing.T) {
	reg := NewCommandRegistry()

	called := 0
	err := reg.Register("ext.test", func(ctx context.Context, args ...any) (any, error) {
		called++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	out, err := reg.Execute(context.Background(), "ext.test")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "ok" || called != 1 {
		t.Errorf("Execute() = %v, called = %d", out, called)
	}

	if _, err := reg.Execute(context.Background(), "ext.unknown"); !errors.Is(err, ErrCommandNotFound) {
		t.Errorf("Execute() unknown command error = %v, want ErrCommandNotFound", err)
	}
}

func TestCommandRegistry_DuplicateCommand(t *testing.T) {
	reg := NewCommandRegistry()
	h := func(ctx context.Context, args ...any) (any, error) { return nil, nil }

	if err := reg.Register("ext.dup", h); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register("ext.dup", h); !errors.Is(err, ErrCommandRegistered) {
		t.Errorf("duplicate Register() error = %v, want ErrCommandRegistered", err)
	}
}

func TestCommandRegistry_URIHandler(t *testing.T) {
	reg := NewCommandRegistry()

	u, _ := url.Parse("ext://publisher.name/auth/callback?token=abc")
	if err := reg.HandleURI(context.Background(), u); !errors.Is(err, ErrNoURIHandler) {
		t.Errorf("HandleURI() without handler error = %v, want ErrNoURIHandler", err)
	}

	var seen *url.URL
	if err := reg.SetURIHandler(uriFunc(func(ctx context.Context, u *url.URL) error {
		seen = u
		return nil
	})); err != nil {
		t.Fatalf("SetURIHandler() error = %v", err)
	}

	if err := reg.HandleURI(context.Background(), u); err != nil {
		t.Fatalf("HandleURI() error = %v", err)
	}
	if seen == nil || seen.Path != "/auth/callback" {
		t.Errorf("handler saw %v, want /auth/callback", seen)
	}

	if err := reg.SetURIHandler(uriFunc(func(ctx context.Context, u *url.URL) error { return nil })); !errors.Is(err, ErrURIHandlerSet) {
		t.Errorf("second SetURIHandler() error = %v, want ErrURIHandlerSet", err)
	}
}

type uriFunc func(ctx context.Context, u *url.URL) error

func (f uriFunc) HandleURI(ctx context.Context, u *url.URL) error { return f(ctx, u) }

func TestChannel_OrderedLines(t *testing.T) {
	ch := NewChannel("Test", nil)
	ch.AppendLine("first")
	ch.AppendLine("second")
	ch.AppendLine("third")

	lines := ch.Lines()
	want := []string{"first", "second", "third"}
	if len(lines) != len(want) {
		t.Fatalf("Lines() length = %d, want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("Lines()[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRuntime_SharedChannel(t *testing.T) {
	rt, err := NewRuntime(RuntimeOptions{Metadata: Metadata{Name: "extd"}})
	if err != nil {
		t.Fatalf("NewRuntime() error = %v", err)
	}

	a := rt.CreateOutputChannel("Extd")
	b := rt.CreateOutputChannel("Extd")
	if a != b {
		t.Error("CreateOutputChannel() should return the same channel for the same name")
	}
}
