package rooms

import "testing"

type fakeMember struct {
	id       string
	received [][]byte
	dead     bool
}

func (m *fakeMember) ID() string { return m.id }

func (m *fakeMember) Enqueue(data []byte) bool {
	if m.dead {
		return false
	}
	m.received = append(m.received, data)
	return true
}

func TestJoinAndEmit(t *testing.T) {
	r := NewRouter()
	a := &fakeMember{id: "a"}
	b := &fakeMember{id: "b"}

	r.Join(a, "lobby")
	r.Join(b, "lobby")
	r.Join(a, "private")

	r.Emit("lobby", []byte("hello"))
	if len(a.received) != 1 || len(b.received) != 1 {
		t.Fatalf("lobby emit reached %d/%d members, want 1/1", len(a.received), len(b.received))
	}

	r.Emit("private", []byte("secret"))
	if len(a.received) != 2 {
		t.Error("private emit missed its member")
	}
	if len(b.received) != 1 {
		t.Error("private emit leaked to a non-member")
	}

	r.Emit("empty", []byte("void")) // no members, no panic
}

func TestJoinTwiceIsNoop(t *testing.T) {
	r := NewRouter()
	a := &fakeMember{id: "a"}
	r.Join(a, "lobby")
	r.Join(a, "lobby")

	r.Emit("lobby", []byte("once"))
	if len(a.received) != 1 {
		t.Errorf("received %d payloads, want 1", len(a.received))
	}
	if r.MemberCount("lobby") != 1 {
		t.Errorf("member count = %d, want 1", r.MemberCount("lobby"))
	}
}

func TestInRoom(t *testing.T) {
	r := NewRouter()
	a := &fakeMember{id: "a"}
	r.Join(a, "lobby")

	if !r.InRoom("a", "lobby") {
		t.Error("expected a in lobby")
	}
	if r.InRoom("a", "other") {
		t.Error("a is not in other")
	}
	if r.InRoom("ghost", "lobby") {
		t.Error("unknown id must not be in any room")
	}
}

func TestLeaveAll(t *testing.T) {
	r := NewRouter()
	a := &fakeMember{id: "a"}
	r.Join(a, "lobby")
	r.Join(a, "private")

	r.LeaveAll("a")
	if r.InRoom("a", "lobby") || r.InRoom("a", "private") {
		t.Error("LeaveAll left memberships behind")
	}
	if r.MemberCount("lobby") != 0 {
		t.Errorf("member count = %d, want 0", r.MemberCount("lobby"))
	}
}

func TestEmitEvictsDeadMembers(t *testing.T) {
	r := NewRouter()
	alive := &fakeMember{id: "alive"}
	dead := &fakeMember{id: "dead", dead: true}

	r.Join(alive, "lobby")
	r.Join(dead, "lobby")
	r.Join(dead, "private")

	r.Emit("lobby", []byte("x"))

	if r.InRoom("dead", "lobby") || r.InRoom("dead", "private") {
		t.Error("dead member must be evicted from every room")
	}
	if !r.InRoom("alive", "lobby") {
		t.Error("live member must stay")
	}
}
