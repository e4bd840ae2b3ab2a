package chatclient

import "testing"

func TestWebsocketURL(t *testing.T) {
	cases := []struct {
		name string
		base string
		want string
	}{
		{name: "http", base: "http://localhost:5000", want: "ws://localhost:5000/ws?token=abc"},
		{name: "https", base: "https://chat.example.com", want: "wss://chat.example.com/ws?token=abc"},
		{name: "trailing slash", base: "http://localhost:5000/", want: "ws://localhost:5000/ws?token=abc"},
		{name: "already ws", base: "ws://localhost:5000", want: "ws://localhost:5000/ws?token=abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := websocketURL(tc.base, "abc")
			if err != nil {
				t.Fatalf("websocketURL returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}

	if _, err := websocketURL("ftp://example.com", "abc"); err == nil {
		t.Fatalf("unsupported scheme was accepted")
	}
}

func TestComputeAcceptMatchesRFCVector(t *testing.T) {
	got := computeAccept("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Fatalf("accept mismatch: got %q want %q", got, want)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	if got := normalizeBaseURL(" http://localhost:5000/ "); got != "http://localhost:5000" {
		t.Fatalf("unexpected normalization %q", got)
	}
}
