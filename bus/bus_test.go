package bus

import (
	"testing"
	"time"
)

func recv(t *testing.T, s *Subscription) *Message {
	t.Helper()
	select {
	case m := <-s.Channel():
		return m
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func expectNone(t *testing.T, s *Subscription) {
	t.Helper()
	select {
	case m := <-s.Channel():
		t.Fatalf("unexpected message on %v: %v", s.Pattern(), m.Payload)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("config", "hal"))
	conn.Publish(conn.NewMessage(T("config", "hal"), "hello", false))

	if got := recv(t, sub); got.Payload.(string) != "hello" {
		t.Fatalf("payload: %v", got.Payload)
	}
}

func TestRetainedMessageReplay(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("hal", "state"), "ready", true))

	sub := conn.Subscribe(T("hal", "state"))
	if got := recv(t, sub); got.Payload.(string) != "ready" {
		t.Fatalf("retained payload: %v", got.Payload)
	}

	// nil payload clears the retained slot.
	conn.Publish(conn.NewMessage(T("hal", "state"), nil, true))
	late := conn.Subscribe(T("hal", "state"))
	expectNone(t, late)
}

func TestWildcard_SingleLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	s1 := c.Subscribe(T("hal", "+", "value"))
	s2 := c.Subscribe(T("hal", "+", "+"))
	sNo := c.Subscribe(T("hal", "+", "info"))

	c.Publish(c.NewMessage(T("hal", "pin0", "value"), "m1", false))

	if recv(t, s1).Payload != "m1" {
		t.Fatal("s1 missed")
	}
	if recv(t, s2).Payload != "m1" {
		t.Fatal("s2 missed")
	}
	expectNone(t, sNo)
}

func TestWildcard_Tail(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	all := c.Subscribe(T("hal", "#"))

	c.Publish(c.NewMessage(T("hal", "cap", "pin", "relay0", "value"), 1, false))
	c.Publish(c.NewMessage(T("hal", "state"), 2, false))
	c.Publish(c.NewMessage(T("config", "hal"), 3, false))

	if recv(t, all).Payload != 1 || recv(t, all).Payload != 2 {
		t.Fatal("tail wildcard missed hal traffic")
	}
	expectNone(t, all)
}

func TestWildcard_RetainedReplay(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	c.Publish(c.NewMessage(T("hal", "cap", "pin", "a", "info"), "ia", true))
	c.Publish(c.NewMessage(T("hal", "cap", "pin", "b", "info"), "ib", true))

	sub := c.Subscribe(T("hal", "cap", "pin", "+", "info"))
	got := map[any]bool{}
	got[recv(t, sub).Payload] = true
	got[recv(t, sub).Payload] = true
	if !got["ia"] || !got["ib"] {
		t.Fatalf("retained replay incomplete: %v", got)
	}
}

func TestDropOldestWhenLagging(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	sub := c.Subscribe(T("x"))

	for i := 0; i < 5; i++ {
		c.Publish(c.NewMessage(T("x"), i, false))
	}
	// Queue depth 2: the two newest survive.
	if recv(t, sub).Payload != 3 || recv(t, sub).Payload != 4 {
		t.Fatal("expected the newest two messages to survive")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")

	sub := c.Subscribe(T("a", "b"))
	sub.Unsubscribe()
	c.Publish(c.NewMessage(T("a", "b"), "gone", false))

	if _, open := <-sub.Channel(); open {
		t.Fatal("channel must be closed after unsubscribe")
	}
}

func TestDisconnectClosesAll(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")
	s1 := c.Subscribe(T("a"))
	s2 := c.Subscribe(T("b"))

	c.Disconnect()

	if _, open := <-s1.Channel(); open {
		t.Fatal("s1 open after disconnect")
	}
	if _, open := <-s2.Channel(); open {
		t.Fatal("s2 open after disconnect")
	}
}

func TestReply(t *testing.T) {
	b := NewBus(4)
	svc := b.NewConnection("svc")
	cli := b.NewConnection("cli")

	inbox := cli.Subscribe(T("cli", "inbox"))
	req := &Message{Topic: T("svc", "do"), Payload: "work", ReplyTo: T("cli", "inbox")}
	svc.Reply(req, "done", false)

	if got := recv(t, inbox); got.Payload != "done" {
		t.Fatalf("reply payload: %v", got.Payload)
	}

	// Requests without ReplyTo are fire-and-forget.
	svc.Reply(&Message{Topic: T("svc", "do")}, "lost", false)
	expectNone(t, inbox)
}

func TestTopicString(t *testing.T) {
	if T("hal", "cap", "pin").String() != "hal/cap/pin" {
		t.Fatal("topic string")
	}
	if !T("a", "b").Equal(T("a", "b")) || T("a").Equal(T("a", "b")) {
		t.Fatal("topic equality")
	}
}
