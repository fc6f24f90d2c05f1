// Package rooms tracks which connections belong to which named broadcast
// scopes and fans payloads out to them.
package rooms

import "sync"

// Member is one connection's participation in the router. Enqueue must
// not block; it reports false when the member can no longer accept
// payloads, at which point the router drops it from every room.
type Member interface {
	ID() string
	Enqueue(data []byte) bool
}

// Router is a shared, synchronized room registry. Each server instance
// owns its own router; membership is connection-lifetime state.
type Router struct {
	mu      sync.RWMutex
	rooms   map[string]map[string]Member
	members map[string]map[string]struct{}
}

func NewRouter() *Router {
	return &Router{
		rooms:   make(map[string]map[string]Member),
		members: make(map[string]map[string]struct{}),
	}
}

// Join adds m to room. Joining twice is a no-op; a connection may belong
// to any number of rooms.
func (r *Router) Join(m Member, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]Member)
	}
	r.rooms[room][m.ID()] = m

	if r.members[m.ID()] == nil {
		r.members[m.ID()] = make(map[string]struct{})
	}
	r.members[m.ID()][room] = struct{}{}
}

// Leave removes m from a single room.
func (r *Router) Leave(m Member, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(m.ID(), room)
}

// LeaveAll clears every membership of the given member id. Called on
// disconnect and by the router itself when a member goes dead.
func (r *Router) LeaveAll(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room := range r.members[id] {
		r.remove(id, room)
	}
}

func (r *Router) remove(id, room string) {
	if members := r.rooms[room]; members != nil {
		delete(members, id)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if set := r.members[id]; set != nil {
		delete(set, room)
		if len(set) == 0 {
			delete(r.members, id)
		}
	}
}

// InRoom reports whether the member id currently belongs to room.
func (r *Router) InRoom(id, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[id][room]
	return ok
}

// Emit fans data out to every member of room, fire and forget. Members
// that can no longer accept are evicted from all rooms.
func (r *Router) Emit(room string, data []byte) {
	r.mu.RLock()
	targets := make([]Member, 0, len(r.rooms[room]))
	for _, m := range r.rooms[room] {
		targets = append(targets, m)
	}
	r.mu.RUnlock()

	var dead []string
	for _, m := range targets {
		if !m.Enqueue(data) {
			dead = append(dead, m.ID())
		}
	}
	for _, id := range dead {
		r.LeaveAll(id)
	}
}

// MemberCount reports how many connections are in room.
func (r *Router) MemberCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}
