package core

import (
	"sort"
	"testing"

	"github.com/softcube/presence/internal/domain"
)

type nopConn struct{}

func (nopConn) TrySend(Frame) error { return nil }
func (nopConn) Close()              {}

func TestRoomStateMembership(t *testing.T) {
	s := NewRoomState()
	if !s.Empty() {
		t.Fatal("new room should be empty")
	}

	s.Add("a", nopConn{})
	s.Add("b", nopConn{})
	if s.Len() != 2 || !s.Has("a") || !s.Has("b") {
		t.Fatalf("expected members a,b, got len=%d", s.Len())
	}

	if !s.Remove("a") {
		t.Error("Remove of a member should report true")
	}
	if s.Remove("a") {
		t.Error("second Remove should report false")
	}
	if s.Has("a") || s.Len() != 1 {
		t.Error("a should be gone")
	}
}

func TestRoomStateRemoveCleansEverything(t *testing.T) {
	s := NewRoomState()
	s.Add("a", nopConn{})
	s.Add("b", nopConn{})
	s.SetShare("a", domain.Share{TrackID: "t1"})
	s.SetName("a", "Ada")

	s.Remove("a")

	peers, shares, names := s.Peers("")
	if len(peers) != 1 || peers[0] != "b" {
		t.Errorf("expected only b, got %v", peers)
	}
	if len(shares) != 0 {
		t.Errorf("share should be gone, got %v", shares)
	}
	if len(names) != 0 {
		t.Errorf("name should be gone, got %v", names)
	}
}

func TestRoomStatePeersExcludesJoiner(t *testing.T) {
	s := NewRoomState()
	s.Add("a", nopConn{})
	s.Add("b", nopConn{})
	s.Add("c", nopConn{})
	s.SetShare("b", domain.Share{TrackID: "t1", Position: domain.Position{Y: 2, Z: 3}})
	s.SetName("c", "Carol")

	peers, shares, names := s.Peers("a")
	sort.Slice(peers, func(i, j int) bool { return peers[i] < peers[j] })
	if len(peers) != 2 || peers[0] != "b" || peers[1] != "c" {
		t.Errorf("expected peers b,c, got %v", peers)
	}
	if len(shares) != 1 || shares[0].ID != "b" || shares[0].TrackID != "t1" {
		t.Errorf("expected b's share, got %v", shares)
	}
	if shares[0].Position != (domain.Position{Y: 2, Z: 3}) {
		t.Errorf("unexpected share position: %+v", shares[0].Position)
	}
	if len(names) != 1 || names["c"] != "Carol" {
		t.Errorf("expected c's name, got %v", names)
	}

	// The excluded member's own share must not leak into its reply.
	_, shares, _ = s.Peers("b")
	if len(shares) != 0 {
		t.Errorf("b's own share leaked: %v", shares)
	}
}

func TestRoomStateShareLifecycle(t *testing.T) {
	s := NewRoomState()
	s.Add("a", nopConn{})

	if s.MoveShare("a", domain.Position{X: 1}) {
		t.Error("MoveShare without a share should report false")
	}

	s.SetShare("a", domain.Share{TrackID: "t1", Position: domain.Position{X: 1}})
	if !s.MoveShare("a", domain.Position{X: 9}) {
		t.Error("MoveShare with live share should report true")
	}
	_, shares, _ := s.Peers("")
	if len(shares) != 1 || shares[0].Position.X != 9 {
		t.Errorf("position not updated: %v", shares)
	}

	s.ClearShare("a")
	_, shares, _ = s.Peers("")
	if len(shares) != 0 {
		t.Errorf("share should be cleared, got %v", shares)
	}
}

func TestRoomStateEmptyNameClears(t *testing.T) {
	s := NewRoomState()
	s.Add("a", nopConn{})
	s.SetName("a", "Ada")
	s.SetName("a", "")

	_, _, names := s.Peers("")
	if len(names) != 0 {
		t.Errorf("empty name should clear the entry, got %v", names)
	}
}

func TestRoomStateEachExcludesSender(t *testing.T) {
	s := NewRoomState()
	s.Add("a", nopConn{})
	s.Add("b", nopConn{})
	s.Add("c", nopConn{})

	var visited []domain.ClientID
	s.Each("b", func(id domain.ClientID, _ SignalConn) {
		visited = append(visited, id)
	})
	sort.Slice(visited, func(i, j int) bool { return visited[i] < visited[j] })
	if len(visited) != 2 || visited[0] != "a" || visited[1] != "c" {
		t.Errorf("expected a,c visited, got %v", visited)
	}
}
