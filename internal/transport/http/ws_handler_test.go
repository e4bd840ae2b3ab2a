package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"quickchat/pkg/chatclient"
)

func TestWSRejectsUnauthenticatedHandshake(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.srv.Client().Get(env.srv.URL + "/ws")
	if err != nil {
		t.Fatalf("ws request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token returned %d", resp.StatusCode)
	}

	resp, err = env.srv.Client().Get(env.srv.URL + "/ws?token=garbage")
	if err != nil {
		t.Fatalf("ws request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token returned %d", resp.StatusCode)
	}
}

// waitForEvent drains events until match returns true or the deadline passes.
func waitForEvent(t *testing.T, events <-chan chatclient.Event, match func(chatclient.Event) bool, what string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("stream closed while waiting for %s", what)
			}
			if match(ev) {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestWSPresenceAndMessagePush(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.signup(t, "Alice", "alice@example.com")
	bobID, bobToken := env.signup(t, "Bob", "bob@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice := chatclient.New(env.srv.URL, aliceToken)
	aliceEvents, err := alice.Listen(ctx)
	if err != nil {
		t.Fatalf("alice listen: %v", err)
	}
	waitForEvent(t, aliceEvents, func(ev chatclient.Event) bool {
		return ev.Name == "getOnlineUsers" && containsID(ev.OnlineUsers, aliceID)
	}, "alice's own presence snapshot")

	bob := chatclient.New(env.srv.URL, bobToken)
	bobEvents, err := bob.Listen(ctx)
	if err != nil {
		t.Fatalf("bob listen: %v", err)
	}
	waitForEvent(t, aliceEvents, func(ev chatclient.Event) bool {
		return ev.Name == "getOnlineUsers" && containsID(ev.OnlineUsers, bobID)
	}, "broadcast announcing bob")

	if _, err := bob.Send(ctx, aliceID, "hi alice", ""); err != nil {
		t.Fatalf("bob send: %v", err)
	}
	waitForEvent(t, aliceEvents, func(ev chatclient.Event) bool {
		return ev.Name == "newMessage" && ev.Message != nil &&
			ev.Message.Text == "hi alice" && ev.Message.SenderID == bobID
	}, "pushed message")

	// Bob must not receive a copy of his own message push.
	select {
	case ev := <-bobEvents:
		if ev.Name == "newMessage" {
			t.Fatalf("sender received its own push: %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
	}

	// Disconnecting removes the user from the presence set.
	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for len(env.registry.OnlineIDs()) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("registry still holds %v after disconnect", env.registry.OnlineIDs())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWSNewConnectionSupersedesOld(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.signup(t, "Alice", "alice@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := chatclient.New(env.srv.URL, aliceToken)
	firstEvents, err := first.Listen(ctx)
	if err != nil {
		t.Fatalf("first listen: %v", err)
	}
	waitForEvent(t, firstEvents, func(ev chatclient.Event) bool {
		return ev.Name == "getOnlineUsers" && containsID(ev.OnlineUsers, aliceID)
	}, "first connection's presence snapshot")

	second := chatclient.New(env.srv.URL, aliceToken)
	secondEvents, err := second.Listen(ctx)
	if err != nil {
		t.Fatalf("second listen: %v", err)
	}
	waitForEvent(t, secondEvents, func(ev chatclient.Event) bool {
		return ev.Name == "getOnlineUsers" && containsID(ev.OnlineUsers, aliceID)
	}, "second connection's presence snapshot")

	// The server closes the superseded connection; its stream ends.
	deadline := time.After(2 * time.Second)
	for {
		var done bool
		select {
		case _, ok := <-firstEvents:
			done = !ok
		case <-deadline:
			t.Fatalf("superseded connection was never closed")
		}
		if done {
			break
		}
	}

	// The old handle's teardown must not knock the new connection offline.
	time.Sleep(50 * time.Millisecond)
	if !containsID(env.registry.OnlineIDs(), aliceID) {
		t.Fatalf("user went offline after supersession, online: %v", env.registry.OnlineIDs())
	}

	cancel()
	waitEmpty := time.Now().Add(2 * time.Second)
	for len(env.registry.OnlineIDs()) != 0 {
		if time.Now().After(waitEmpty) {
			t.Fatalf("registry still holds %v after disconnect", env.registry.OnlineIDs())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
