package session

import "testing"

func TestDirectoryBindResolve(t *testing.T) {
	d := NewDirectory()

	if _, ok := d.Resolve("u1"); ok {
		t.Fatal("expected no binding for unknown user")
	}

	d.Bind("u1", "c1")
	got, ok := d.Resolve("u1")
	if !ok || got != "c1" {
		t.Fatalf("Resolve(u1) = %q, %v; want c1, true", got, ok)
	}

	// Last write wins.
	d.Bind("u1", "c2")
	got, _ = d.Resolve("u1")
	if got != "c2" {
		t.Fatalf("Resolve(u1) after rebind = %q; want c2", got)
	}
}

func TestDirectoryUnbindIfMatches(t *testing.T) {
	d := NewDirectory()
	d.Bind("u1", "c2")

	// A stale disconnect for the old connection must not remove the newer
	// binding.
	if d.UnbindIfMatches("u1", "c1") {
		t.Fatal("stale unbind should not remove a newer binding")
	}
	if got, _ := d.Resolve("u1"); got != "c2" {
		t.Fatalf("binding clobbered by stale unbind: got %q", got)
	}

	if !d.UnbindIfMatches("u1", "c2") {
		t.Fatal("matching unbind should remove the binding")
	}
	if _, ok := d.Resolve("u1"); ok {
		t.Fatal("binding should be gone after matching unbind")
	}
}
