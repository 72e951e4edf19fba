package version

import "testing"

func TestString(t *testing.T) {
	Version, Commit, Date = "v1.2.0", "abc123", "2026-01-01"
	t.Cleanup(func() { Version, Commit, Date = "dev", "unknown", "unknown" })

	want := "resumerank v1.2.0 (commit abc123, built 2026-01-01)"
	if got := String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
