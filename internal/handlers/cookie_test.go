package handlers

import "testing"

func TestSessionRoundTrip(t *testing.T) {
	t.Parallel()
	secret := []byte("test-secret")

	value := signSession(secret, 42)
	id, ok := parseSession(secret, value)
	if !ok || id != 42 {
		t.Fatalf("parse = (%d, %v)", id, ok)
	}
}

func TestSessionRejectsTampering(t *testing.T) {
	t.Parallel()
	secret := []byte("test-secret")
	value := signSession(secret, 42)

	cases := []string{
		"",
		"42",
		"42.",
		"43." + value[len("42."):], // id swapped, mac kept
		value[:len(value)-1] + "0", // mac bit flipped
		"abc.def",
		"-1.deadbeef",
	}
	for _, c := range cases {
		if id, ok := parseSession(secret, c); ok {
			t.Fatalf("accepted %q as user %d", c, id)
		}
	}

	if _, ok := parseSession([]byte("other-secret"), value); ok {
		t.Fatal("accepted a cookie signed with a different secret")
	}
}
