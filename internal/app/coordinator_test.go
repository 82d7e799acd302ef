package app

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/softcube/presence/internal/core"
	"github.com/softcube/presence/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return core.ErrBackpressure
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

// events decodes every frame the connection received so far.
func (f *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, fr := range f.frames {
		var m map[string]any
		if err := json.Unmarshal(fr, &m); err != nil {
			t.Fatalf("received unparseable frame %s: %v", fr, err)
		}
		out = append(out, m)
	}
	return out
}

func (f *fakeConn) eventsOfType(t *testing.T, typ string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, ev := range f.events(t) {
		if ev["type"] == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeConn) lastEvent(t *testing.T) map[string]any {
	t.Helper()
	evs := f.events(t)
	if len(evs) == 0 {
		t.Fatal("expected at least one event")
	}
	return evs[len(evs)-1]
}

func join(c *Coordinator, id domain.ClientID, room, name string) {
	payload, _ := json.Marshal(map[string]string{"type": "join", "room": room, "name": name})
	c.Handle(id, payload)
}

func peerIDs(ev map[string]any) []string {
	raw, _ := ev["peers"].([]any)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		out = append(out, p.(string))
	}
	return out
}

func TestRegisterSendsWelcome(t *testing.T) {
	c := NewCoordinator(nil, nil)
	conn := &fakeConn{}
	c.Register("A", conn)

	ev := conn.lastEvent(t)
	if ev["type"] != "welcome" || ev["id"] != "A" {
		t.Fatalf("expected welcome for A, got %v", ev)
	}
}

// TestPresenceScenario walks the full join/share/disconnect flow between
// three connections in one room.
func TestPresenceScenario(t *testing.T) {
	c := NewCoordinator(nil, nil)
	a, b := &fakeConn{}, &fakeConn{}
	c.Register("A", a)
	c.Register("B", b)

	join(c, "A", "LOBBY", "")
	ev := a.lastEvent(t)
	if ev["type"] != "peers" || len(peerIDs(ev)) != 0 {
		t.Fatalf("first joiner should see an empty room, got %v", ev)
	}

	join(c, "B", "LOBBY", "")
	ev = b.lastEvent(t)
	if ev["type"] != "peers" {
		t.Fatalf("expected peers reply, got %v", ev)
	}
	if ids := peerIDs(ev); len(ids) != 1 || ids[0] != "A" {
		t.Fatalf("B should see [A], got %v", ids)
	}
	joined := a.eventsOfType(t, "peer-joined")
	if len(joined) != 1 || joined[0]["id"] != "B" {
		t.Fatalf("A should see peer-joined B, got %v", joined)
	}

	c.Handle("B", []byte(`{"type":"share-start","trackId":"t1","position":{"x":0,"y":2,"z":3}}`))
	starts := a.eventsOfType(t, "share-start")
	if len(starts) != 1 || starts[0]["id"] != "B" || starts[0]["trackId"] != "t1" {
		t.Fatalf("A should see B's share-start, got %v", starts)
	}
	pos := starts[0]["position"].(map[string]any)
	if pos["x"] != 0.0 || pos["y"] != 2.0 || pos["z"] != 3.0 {
		t.Fatalf("unexpected share position: %v", pos)
	}

	c.Disconnect("B")
	left := a.eventsOfType(t, "peer-left")
	if len(left) != 1 || left[0]["id"] != "B" {
		t.Fatalf("A should see exactly one peer-left B, got %v", left)
	}

	cc := &fakeConn{}
	c.Register("C", cc)
	join(c, "C", "LOBBY", "")
	ev = cc.lastEvent(t)
	if ids := peerIDs(ev); len(ids) != 1 || ids[0] != "A" {
		t.Fatalf("C should see [A], got %v", ids)
	}
	if shares := ev["shares"].([]any); len(shares) != 0 {
		t.Fatalf("C should see no shares after B left, got %v", shares)
	}
}

func TestJoinSanitizationAgreesAcrossSpellings(t *testing.T) {
	c := NewCoordinator(nil, nil)
	a, b := &fakeConn{}, &fakeConn{}
	c.Register("A", a)
	c.Register("B", b)

	join(c, "A", "abc ", "")
	join(c, "B", "ABC", "")

	ev := b.lastEvent(t)
	if ids := peerIDs(ev); len(ids) != 1 || ids[0] != "A" {
		t.Fatalf("differently spelled names must land in one room, B saw %v", ids)
	}
}

func TestRejoinLeavesPreviousRoom(t *testing.T) {
	c := NewCoordinator(nil, nil)
	a, b := &fakeConn{}, &fakeConn{}
	c.Register("A", a)
	c.Register("B", b)

	join(c, "A", "ONE", "")
	join(c, "B", "ONE", "")
	join(c, "B", "TWO", "")

	left := a.eventsOfType(t, "peer-left")
	if len(left) != 1 || left[0]["id"] != "B" {
		t.Fatalf("A should see peer-left when B switches rooms, got %v", left)
	}

	// B must not still be a member of ONE: A's pose reaches nobody.
	c.Handle("A", []byte(`{"type":"pose","position":[0,0,0]}`))
	if poses := b.eventsOfType(t, "pose"); len(poses) != 0 {
		t.Fatalf("B left ONE but still received %v", poses)
	}

	rooms := c.Rooms()
	if len(rooms) != 2 {
		t.Fatalf("expected rooms ONE and TWO, got %v", rooms)
	}
	for _, r := range rooms {
		if r.MemberCount != 1 {
			t.Errorf("room %s should have one member, has %d", r.Name, r.MemberCount)
		}
	}
}

func TestShareStartThenStopLeavesNothing(t *testing.T) {
	c := NewCoordinator(nil, nil)
	a := &fakeConn{}
	c.Register("A", a)
	join(c, "A", "LOBBY", "")

	c.Handle("A", []byte(`{"type":"share-start","trackId":"t1","position":{"x":0,"y":0,"z":0}}`))
	c.Handle("A", []byte(`{"type":"share-stop"}`))

	b := &fakeConn{}
	c.Register("B", b)
	join(c, "B", "LOBBY", "")
	ev := b.lastEvent(t)
	if shares := ev["shares"].([]any); len(shares) != 0 {
		t.Fatalf("stopped share leaked into peers reply: %v", shares)
	}
}

func TestShareStartWithoutTrackIgnored(t *testing.T) {
	c := NewCoordinator(nil, nil)
	a, b := &fakeConn{}, &fakeConn{}
	c.Register("A", a)
	c.Register("B", b)
	join(c, "A", "LOBBY", "")
	join(c, "B", "LOBBY", "")

	c.Handle("B", []byte(`{"type":"share-start","trackId":"","position":{"x":0,"y":0,"z":0}}`))
	if starts := a.eventsOfType(t, "share-start"); len(starts) != 0 {
		t.Fatalf("empty track id must be ignored, got %v", starts)
	}
}

func TestRelay(t *testing.T) {
	c := NewCoordinator(nil, nil)
	a, b := &fakeConn{}, &fakeConn{}
	c.Register("A", a)
	c.Register("B", b)
	join(c, "A", "LOBBY", "")
	join(c, "B", "LOBBY", "")

	c.Handle("A", []byte(`{"type":"offer","to":"B","sdp":{"type":"offer","sdp":"v=0"}}`))
	offers := b.eventsOfType(t, "offer")
	if len(offers) != 1 || offers[0]["from"] != "A" {
		t.Fatalf("B should receive the offer stamped from A, got %v", offers)
	}
	sdp := offers[0]["sdp"].(map[string]any)
	if sdp["sdp"] != "v=0" {
		t.Fatalf("sdp payload not relayed verbatim: %v", sdp)
	}

	// Relay to a dead identity: no crash, no state change, no echo.
	before := len(a.events(t))
	c.Handle("A", []byte(`{"type":"ice","to":"GHOST","candidate":{"candidate":"candidate:1"}}`))
	if len(a.events(t)) != before {
		t.Error("relay to unknown target must produce no observable effect")
	}
}

func TestMessagesBeforeJoinIgnored(t *testing.T) {
	c := NewCoordinator(nil, nil)
	a, b := &fakeConn{}, &fakeConn{}
	c.Register("A", a)
	c.Register("B", b)
	join(c, "B", "LOBBY", "")

	// A never joined. Room-scoped messages go nowhere.
	c.Handle("A", []byte(`{"type":"share-start","trackId":"t1","position":{"x":0,"y":0,"z":0}}`))
	c.Handle("A", []byte(`{"type":"name-update","name":"Ghost"}`))
	c.Handle("A", []byte(`{"type":"pose","position":[0,0,0]}`))
	for _, typ := range []string{"share-start", "name-update", "pose"} {
		if evs := b.eventsOfType(t, typ); len(evs) != 0 {
			t.Errorf("unjoined sender's %s leaked: %v", typ, evs)
		}
	}
}

func TestMalformedFramesDroppedSilently(t *testing.T) {
	c := NewCoordinator(nil, nil)
	a, b := &fakeConn{}, &fakeConn{}
	c.Register("A", a)
	c.Register("B", b)
	join(c, "A", "LOBBY", "")
	join(c, "B", "LOBBY", "")

	before := len(a.events(t)) + len(b.events(t))
	c.Handle("A", []byte(`not json at all`))
	c.Handle("A", []byte(`{"type":"teleport"}`))
	if got := len(a.events(t)) + len(b.events(t)); got != before {
		t.Errorf("malformed frames must be silent, saw %d new events", got-before)
	}
}

func TestNameUpdateBroadcastAndClear(t *testing.T) {
	c := NewCoordinator(nil, nil)
	a, b := &fakeConn{}, &fakeConn{}
	c.Register("A", a)
	c.Register("B", b)
	join(c, "A", "LOBBY", "Ada")
	join(c, "B", "LOBBY", "")

	ev := b.lastEvent(t)
	names, _ := ev["names"].(map[string]any)
	if names["A"] != "Ada" {
		t.Fatalf("B's peers reply should carry A's name, got %v", ev)
	}

	c.Handle("A", []byte(`{"type":"name-update","name":"  Countess  "}`))
	updates := b.eventsOfType(t, "name-update")
	if len(updates) != 1 || updates[0]["name"] != "Countess" {
		t.Fatalf("expected sanitized name-update, got %v", updates)
	}

	// Clearing the name removes it from later snapshots.
	c.Handle("A", []byte(`{"type":"name-update","name":"   "}`))
	cc := &fakeConn{}
	c.Register("C", cc)
	join(c, "C", "LOBBY", "")
	if names, ok := cc.lastEvent(t)["names"].(map[string]any); ok && names["A"] != nil {
		t.Fatalf("cleared name leaked into snapshot: %v", names)
	}
}

func TestDisconnectIdempotentAndComplete(t *testing.T) {
	c := NewCoordinator(nil, nil)
	a, b := &fakeConn{}, &fakeConn{}
	c.Register("A", a)
	c.Register("B", b)
	join(c, "A", "LOBBY", "Ada")
	join(c, "B", "LOBBY", "")
	c.Handle("A", []byte(`{"type":"share-start","trackId":"t1","position":{"x":0,"y":0,"z":0}}`))

	c.Disconnect("A")
	c.Disconnect("A")

	left := b.eventsOfType(t, "peer-left")
	if len(left) != 1 {
		t.Fatalf("exactly one peer-left expected, got %d", len(left))
	}

	cc := &fakeConn{}
	c.Register("C", cc)
	join(c, "C", "LOBBY", "")
	ev := cc.lastEvent(t)
	if ids := peerIDs(ev); len(ids) != 1 || ids[0] != "B" {
		t.Fatalf("A must be fully gone, C saw %v", ids)
	}
	if shares := ev["shares"].([]any); len(shares) != 0 {
		t.Fatalf("A's share survived teardown: %v", shares)
	}
	if names, ok := ev["names"].(map[string]any); ok && names["A"] != nil {
		t.Fatalf("A's name survived teardown: %v", names)
	}
}

func TestDisconnectWithoutJoinBroadcastsNothing(t *testing.T) {
	c := NewCoordinator(nil, nil)
	a, b := &fakeConn{}, &fakeConn{}
	c.Register("A", a)
	c.Register("B", b)
	join(c, "B", "LOBBY", "")

	c.Disconnect("A")
	if left := b.eventsOfType(t, "peer-left"); len(left) != 0 {
		t.Fatalf("no broadcast expected for an unjoined connection, got %v", left)
	}
}

func TestLastMemberLeavingDropsRoom(t *testing.T) {
	c := NewCoordinator(nil, nil)
	a := &fakeConn{}
	c.Register("A", a)
	join(c, "A", "LOBBY", "")

	if len(c.Rooms()) != 1 {
		t.Fatal("room should exist while occupied")
	}
	c.Disconnect("A")
	if rooms := c.Rooms(); len(rooms) != 0 {
		t.Fatalf("empty room should be dropped, got %v", rooms)
	}
}

func TestScreenPoseMovesLiveShare(t *testing.T) {
	c := NewCoordinator(nil, nil)
	a, b := &fakeConn{}, &fakeConn{}
	c.Register("A", a)
	c.Register("B", b)
	join(c, "A", "LOBBY", "")
	join(c, "B", "LOBBY", "")

	c.Handle("A", []byte(`{"type":"share-start","trackId":"t1","position":{"x":0,"y":0,"z":0}}`))
	c.Handle("A", []byte(`{"type":"screenpose","position":{"x":5,"y":6,"z":7}}`))

	moves := b.eventsOfType(t, "screenpose")
	if len(moves) != 1 {
		t.Fatalf("expected one screenpose broadcast, got %v", moves)
	}

	cc := &fakeConn{}
	c.Register("C", cc)
	join(c, "C", "LOBBY", "")
	shares := cc.lastEvent(t)["shares"].([]any)
	if len(shares) != 1 {
		t.Fatalf("expected A's share, got %v", shares)
	}
	pos := shares[0].(map[string]any)["position"].(map[string]any)
	if pos["x"] != 5.0 || pos["y"] != 6.0 || pos["z"] != 7.0 {
		t.Fatalf("share position not moved: %v", pos)
	}
}
