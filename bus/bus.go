// Package bus is the in-process publish/subscribe fabric the services talk
// over: config distribution, capability discovery, control requests and
// event fan-out. Topics are slash-free string paths; subscriptions may use
// "+" for one level and a trailing "#" for the rest.
package bus

import (
	"sync"
)

// Topic is a sequence of path tokens, e.g. {"hal", "cap", "pin", "relay0"}.
type Topic []string

// T builds a topic from its tokens.
func T(parts ...string) Topic { return Topic(parts) }

func (t Topic) String() string {
	if len(t) == 0 {
		return ""
	}
	n := len(t) - 1
	for _, p := range t {
		n += len(p)
	}
	buf := make([]byte, 0, n)
	for i, p := range t {
		if i > 0 {
			buf = append(buf, '/')
		}
		buf = append(buf, p...)
	}
	return string(buf)
}

// Equal reports token-wise equality.
func (t Topic) Equal(o Topic) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if t[i] != o[i] {
			return false
		}
	}
	return true
}

const (
	// WildcardOne matches exactly one token.
	WildcardOne = "+"
	// WildcardTail matches all remaining tokens; only valid as the last token.
	WildcardTail = "#"
)

// Message is what travels over the bus. Retained messages are stored at
// their topic and replayed to later subscribers; publishing a retained
// message with a nil payload clears the slot.
type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// Subscription is one pattern registration owned by a Connection.
type Subscription struct {
	pattern Topic
	ch      chan *Message
	conn    *Connection
}

func (s *Subscription) Pattern() Topic           { return s.pattern }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

type node struct {
	children map[string]*node
	subs     []*Subscription
	retained *Message
}

// Bus is the shared trie of subscriptions and retained messages.
type Bus struct {
	mu   sync.Mutex
	root *node
	qLen int
}

// NewBus creates a bus; queueLen is the per-subscription buffer depth.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{root: &node{}, qLen: queueLen}
}

// NewMessage is a small convenience constructor.
func (b *Bus) NewMessage(t Topic, payload any, retained bool) *Message {
	return &Message{Topic: t, Payload: payload, Retained: retained}
}

// Publish delivers msg to every subscription whose pattern matches the
// topic. Delivery never blocks: a full subscriber queue drops its oldest
// message. Publish topics must be concrete (no wildcards).
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.deliver(b.root, msg.Topic, msg)

	if msg.Retained {
		n := b.root
		for _, tok := range msg.Topic {
			if n.children == nil {
				n.children = make(map[string]*node)
			}
			child, ok := n.children[tok]
			if !ok {
				child = &node{}
				n.children[tok] = child
			}
			n = child
		}
		if msg.Payload == nil {
			n.retained = nil
		} else {
			n.retained = msg
		}
	}
}

// deliver walks the trie along topic, following literal tokens, "+" and "#"
// branches.
func (b *Bus) deliver(n *node, rest Topic, msg *Message) {
	if n == nil {
		return
	}
	if tail, ok := n.children[WildcardTail]; ok {
		push(tail.subs, msg)
	}
	if len(rest) == 0 {
		push(n.subs, msg)
		return
	}
	if n.children == nil {
		return
	}
	b.deliver(n.children[rest[0]], rest[1:], msg)
	b.deliver(n.children[WildcardOne], rest[1:], msg)
}

func push(subs []*Subscription, msg *Message) {
	for _, s := range subs {
		select {
		case s.ch <- msg:
		default:
			// Drop oldest; the subscriber is lagging.
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- msg:
			default:
			}
		}
	}
}

func (b *Bus) addSubscription(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range sub.pattern {
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}
	n.subs = append(n.subs, sub)

	// Replay retained messages matching the pattern.
	b.replayRetained(b.root, sub.pattern, sub)
}

// replayRetained finds retained messages whose concrete topic matches the
// given pattern and queues them on the new subscription.
func (b *Bus) replayRetained(n *node, pattern Topic, sub *Subscription) {
	if n == nil {
		return
	}
	if len(pattern) == 0 {
		if n.retained != nil {
			push([]*Subscription{sub}, n.retained)
		}
		return
	}
	switch pattern[0] {
	case WildcardTail:
		b.replayAll(n, sub)
	case WildcardOne:
		for _, child := range n.children {
			b.replayRetained(child, pattern[1:], sub)
		}
	default:
		b.replayRetained(n.children[pattern[0]], pattern[1:], sub)
	}
}

func (b *Bus) replayAll(n *node, sub *Subscription) {
	if n.retained != nil {
		push([]*Subscription{sub}, n.retained)
	}
	for _, child := range n.children {
		b.replayAll(child, sub)
	}
}

func (b *Bus) removeSubscription(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	stack := make([]*node, 0, len(sub.pattern))
	for _, tok := range sub.pattern {
		if n.children == nil {
			return
		}
		child, ok := n.children[tok]
		if !ok {
			return
		}
		stack = append(stack, n)
		n = child
	}
	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}
	// Prune empty branches.
	for i := len(sub.pattern) - 1; i >= 0; i-- {
		parent := stack[i]
		key := sub.pattern[i]
		child := parent.children[key]
		if len(child.subs) == 0 && len(child.children) == 0 && child.retained == nil {
			delete(parent.children, key)
		} else {
			break
		}
	}
}

// Connection scopes a set of subscriptions to one service.
type Connection struct {
	bus  *Bus
	mu   sync.Mutex
	subs []*Subscription
	id   string
}

// NewConnection creates a connection bound to this bus. The id is
// diagnostic only.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

func (c *Connection) ID() string { return c.id }

// NewMessage mirrors Bus.NewMessage for call-site convenience.
func (c *Connection) NewMessage(t Topic, payload any, retained bool) *Message {
	return &Message{Topic: t, Payload: payload, Retained: retained}
}

// Publish sends a message via the bus.
func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

// Reply answers a request on its ReplyTo topic. Requests without a
// ReplyTo are fire-and-forget; Reply is then a no-op.
func (c *Connection) Reply(req *Message, payload any, retained bool) {
	if req == nil || len(req.ReplyTo) == 0 {
		return
	}
	c.bus.Publish(&Message{Topic: req.ReplyTo, Payload: payload, Retained: retained})
}

// Subscribe registers a pattern subscription owned by this connection.
func (c *Connection) Subscribe(pattern Topic) *Subscription {
	sub := &Subscription{
		pattern: pattern,
		ch:      make(chan *Message, c.bus.qLen),
		conn:    c,
	}
	c.bus.addSubscription(sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscription owned by this connection.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.removeSubscription(sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	close(sub.ch)
}

// Disconnect closes all subscriptions and clears them.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.removeSubscription(sub)
		close(sub.ch)
	}
}
