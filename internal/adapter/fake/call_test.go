package fake

import (
	"slices"
	"testing"
	"time"
)

func TestCallRecorder_Calls(t *testing.T) {
	var r CallRecorder

	r.record("ContainerKill", "web_app_1", "SIGTERM")
	r.record("ContainerWait", "web_app_1", 10*time.Second)
	r.record("ContainerKill", "web_app_2", "SIGTERM")

	if n := len(r.Calls("")); n != 3 {
		t.Fatalf("Calls(\"\") returned %d calls, want 3", n)
	}
	kills := r.Calls("ContainerKill")
	if len(kills) != 2 || kills[1].Target() != "web_app_2" {
		t.Fatalf("Calls(ContainerKill) = %v", kills)
	}
	if n := len(r.Calls("ContainerRemove")); n != 0 {
		t.Fatalf("Calls(ContainerRemove) returned %d calls, want 0", n)
	}

	r.Reset()
	if n := len(r.Calls("")); n != 0 {
		t.Fatalf("Calls(\"\") after Reset returned %d calls, want 0", n)
	}
}

func TestCallRecorder_Methods(t *testing.T) {
	var r CallRecorder

	r.record("ContainerKill", "c1", "SIGTERM")
	r.record("ContainerKill", "c2", "SIGTERM")
	r.record("ContainerRemove", "c1")
	r.record("Ping")

	if got, want := r.Methods("c1"), []string{"ContainerKill", "ContainerRemove"}; !slices.Equal(got, want) {
		t.Fatalf("Methods(c1) = %v, want %v", got, want)
	}
	if all := r.Methods(""); len(all) != 4 {
		t.Fatalf("Methods(\"\") returned %d calls, want 4", len(all))
	}
}

func TestCall_Target(t *testing.T) {
	if got := (Call{Method: "Ping"}).Target(); got != "" {
		t.Fatalf("Target() = %q, want empty", got)
	}
	if got := (Call{Method: "ImageBuild", Args: []any{42}}).Target(); got != "" {
		t.Fatalf("Target() = %q for non-string arg", got)
	}
	if got := (Call{Method: "ContainerStart", Args: []any{"c1"}}).Target(); got != "c1" {
		t.Fatalf("Target() = %q, want c1", got)
	}
}
