package postgres

import "testing"

func TestClampLimit(t *testing.T) {
	cases := map[int]int{
		-1:    200,
		0:     200,
		50:    50,
		10000: 10000,
		20000: 10000,
	}
	for in, want := range cases {
		if got := clampLimit(in); got != want {
			t.Errorf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestGetEnvDefault(t *testing.T) {
	t.Setenv("PGHOST", "")
	if got := getEnv("PGHOST", "127.0.0.1"); got != "127.0.0.1" {
		t.Errorf("expected default host, got %q", got)
	}
	t.Setenv("PGHOST", "db.internal")
	if got := getEnv("PGHOST", "127.0.0.1"); got != "db.internal" {
		t.Errorf("expected env host, got %q", got)
	}
}
