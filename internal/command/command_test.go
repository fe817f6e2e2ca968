package command

import (
	"testing"

	"github.com/nexusd/nexusd/internal/network"
)

func TestSplitArgv(t *testing.T) {
	got := SplitArgv("  gline  add  *@1.2.3.4   1h  spam  ")
	want := []string{"gline", "add", "*@1.2.3.4", "1h", "spam"}
	if len(got) != len(want) {
		t.Fatalf("SplitArgv() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SplitArgv()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDispatchNotFound(t *testing.T) {
	tbl := NewTable()
	outcome, ok := tbl.Dispatch([]string{"nosuch"}, DispatchRequest{}, &Context{})
	if outcome != NotFound || ok {
		t.Fatalf("Dispatch() = %v, %v, want NotFound, false", outcome, ok)
	}
}

func TestDispatchEmptyArgv(t *testing.T) {
	tbl := NewTable()
	outcome, ok := tbl.Dispatch(nil, DispatchRequest{}, &Context{})
	if outcome != NotFound || ok {
		t.Fatalf("Dispatch() = %v, %v, want NotFound, false", outcome, ok)
	}
}

func TestDispatchAccessDenied(t *testing.T) {
	tbl := NewTable()
	tbl.Register(&Command{Name: "die", Level: 900, Handler: func(*Context) bool { return true }})
	outcome, _ := tbl.Dispatch([]string{"die"}, DispatchRequest{Level: 100}, &Context{})
	if outcome != AccessDenied {
		t.Fatalf("Dispatch() = %v, want AccessDenied", outcome)
	}
}

func TestDispatchRequireAuth(t *testing.T) {
	tbl := NewTable()
	var called bool
	tbl.Register(&Command{Name: "set", Flags: RequireAuth, Handler: func(*Context) bool { called = true; return true }})

	outcome, _ := tbl.Dispatch([]string{"set"}, DispatchRequest{Authenticated: false}, &Context{})
	if outcome != NotAuthenticated || called {
		t.Fatalf("Dispatch() = %v, called=%v, want NotAuthenticated, false", outcome, called)
	}

	outcome, ok := tbl.Dispatch([]string{"set"}, DispatchRequest{Authenticated: true}, &Context{})
	if outcome != Dispatched || !ok || !called {
		t.Fatalf("Dispatch() = %v, %v, called=%v, want Dispatched, true, true", outcome, ok, called)
	}
}

func TestDispatchRequireChannel(t *testing.T) {
	tbl := NewTable()
	tbl.Register(&Command{Name: "op", Flags: RequireChannel, Handler: func(*Context) bool { return true }})

	outcome, _ := tbl.Dispatch([]string{"op"}, DispatchRequest{}, &Context{})
	if outcome != MissingChannel {
		t.Fatalf("Dispatch() = %v, want MissingChannel", outcome)
	}

	ch := &network.ChanNode{Name: "#test"}
	var gotChannel *network.ChanNode
	tbl.Register(&Command{Name: "op", Flags: RequireChannel, Handler: func(ctx *Context) bool {
		gotChannel = ctx.Channel
		return true
	}})
	outcome, ok := tbl.Dispatch([]string{"op"}, DispatchRequest{Channel: ch}, &Context{})
	if outcome != Dispatched || !ok || gotChannel != ch {
		t.Fatalf("Dispatch() = %v, %v, gotChannel=%v, want Dispatched, true, %v", outcome, ok, gotChannel, ch)
	}
}

func TestDispatchNeverViaOper(t *testing.T) {
	tbl := NewTable()
	tbl.Register(&Command{Name: "trust", Flags: NeverViaOper, Handler: func(*Context) bool { return true }})
	outcome, _ := tbl.Dispatch([]string{"trust"}, DispatchRequest{ViaOperInterface: true}, &Context{})
	if outcome != Forbidden {
		t.Fatalf("Dispatch() = %v, want Forbidden", outcome)
	}
	outcome, ok := tbl.Dispatch([]string{"trust"}, DispatchRequest{ViaOperInterface: false}, &Context{})
	if outcome != Dispatched || !ok {
		t.Fatalf("Dispatch() = %v, %v, want Dispatched, true", outcome, ok)
	}
}

func TestDispatchOperOnly(t *testing.T) {
	tbl := NewTable()
	tbl.Register(&Command{Name: "jupe", Flags: OperOnly, Handler: func(*Context) bool { return true }})
	outcome, _ := tbl.Dispatch([]string{"jupe"}, DispatchRequest{IsOper: false}, &Context{})
	if outcome != Forbidden {
		t.Fatalf("Dispatch() = %v, want Forbidden", outcome)
	}
	outcome, ok := tbl.Dispatch([]string{"jupe"}, DispatchRequest{IsOper: true}, &Context{})
	if outcome != Dispatched || !ok {
		t.Fatalf("Dispatch() = %v, %v, want Dispatched, true", outcome, ok)
	}
}

func TestDispatchCaseInsensitiveLookup(t *testing.T) {
	tbl := NewTable()
	tbl.Register(&Command{Name: "Gline", Handler: func(*Context) bool { return true }})
	outcome, ok := tbl.Dispatch([]string{"GLINE"}, DispatchRequest{}, &Context{})
	if outcome != Dispatched || !ok {
		t.Fatalf("Dispatch() = %v, %v, want Dispatched, true", outcome, ok)
	}
}

func TestDispatchHandlerFailureStillReportsDispatched(t *testing.T) {
	tbl := NewTable()
	tbl.Register(&Command{Name: "whois", Handler: func(*Context) bool { return false }})
	outcome, ok := tbl.Dispatch([]string{"whois"}, DispatchRequest{}, &Context{})
	if outcome != Dispatched || ok {
		t.Fatalf("Dispatch() = %v, %v, want Dispatched, false", outcome, ok)
	}
}

func TestFlagHas(t *testing.T) {
	f := RequireAuth | OperOnly
	if !f.Has(RequireAuth) || !f.Has(OperOnly) {
		t.Fatalf("Has() should report both set flags")
	}
	if f.Has(RequireChannel) {
		t.Fatalf("Has() should not report an unset flag")
	}
}
