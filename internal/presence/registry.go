/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package presence keeps track of live connections and of the two-party groups they joined.
// State is in memory only and rebuilt from scratch when clients reconnect.
package presence

import (
	"slices"
	"strings"
	"sync"

	"dmcore/internal/entity"
)

const separator = ":"

// GroupNameFor returns the name of the conversation between userA and userB, the same whoever asks
func GroupNameFor(userA, userB string) string {
	a, b := strings.ToLower(userA), strings.ToLower(userB)
	if a > b {
		a, b = b, a
	}
	return a + separator + b
}

// Group is the set of connections currently open on one conversation
type Group struct {
	name string

	lock        sync.Mutex
	connections map[string]entity.Connection // Connection id -> connection
}

func newGroup(name string) *Group {
	return &Group{name: name, connections: make(map[string]entity.Connection)}
}

func (g *Group) Name() string { return g.name }

func (g *Group) add(c entity.Connection) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.connections[c.ConnectionID] = c
}

func (g *Group) remove(connectionID string) (entity.Connection, bool) {
	g.lock.Lock()
	defer g.lock.Unlock()
	c, ok := g.connections[connectionID]
	delete(g.connections, connectionID)
	return c, ok
}

// Snapshot copies the membership, sorted by connection id
func (g *Group) Snapshot() entity.GroupSnapshot {
	g.lock.Lock()
	defer g.lock.Unlock()
	connections := make([]entity.Connection, 0, len(g.connections))
	for _, c := range g.connections {
		connections = append(connections, c)
	}
	slices.SortFunc(connections, func(a, b entity.Connection) int {
		return strings.Compare(a.ConnectionID, b.ConnectionID)
	})
	return entity.GroupSnapshot{Name: g.name, Connections: connections}
}

func (g *Group) connectionsOf(username string, into []string) []string {
	g.lock.Lock()
	defer g.lock.Unlock()
	for id, c := range g.connections {
		if strings.EqualFold(c.Username, username) {
			into = append(into, id)
		}
	}
	return into
}

// Registry maps connections to groups. It's safe for concurrent use:
// the group arena has its own lock, membership changes lock only the group they touch.
type Registry struct {
	lock   sync.RWMutex
	groups map[string]*Group // Group name -> group. Groups are never removed, they just get empty

	membership sync.Map // Connection id -> *Group
}

func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*Group)}
}

// group retrieves the named group, creating it if absent
func (r *Registry) group(name string) *Group {
	r.lock.RLock()
	g, ok := r.groups[name]
	r.lock.RUnlock()
	if ok {
		return g
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	if g, ok = r.groups[name]; !ok {
		g = newGroup(name)
		r.groups[name] = g
	}
	return g
}

// JoinGroup adds the connection to the conversation between username and otherUser, returning the group's name.
// A connection is in at most one group: joining again moves it.
func (r *Registry) JoinGroup(connectionID, username, otherUser string) string {
	g := r.group(GroupNameFor(username, otherUser))
	g.add(entity.Connection{ConnectionID: connectionID, Username: username})

	if previous, loaded := r.membership.Swap(connectionID, g); loaded && previous.(*Group) != g {
		previous.(*Group).remove(connectionID)
	}
	return g.name
}

// LeaveGroup removes the connection from its group. Unknown connections are ignored.
// It returns the removed connection and the name of the group it left, if any.
func (r *Registry) LeaveGroup(connectionID string) (entity.Connection, string, bool) {
	value, ok := r.membership.LoadAndDelete(connectionID)
	if !ok {
		return entity.Connection{}, "", false
	}
	g := value.(*Group)
	c, removed := g.remove(connectionID)
	return c, g.name, removed
}

// ConnectionsForUser returns the ids of every live connection of username, in any group
func (r *Registry) ConnectionsForUser(username string) []string {
	var ids []string
	for _, g := range r.snapshotGroups() {
		ids = g.connectionsOf(username, ids)
	}
	slices.Sort(ids)
	return ids
}

// GroupForConnection returns the name of the group containing the connection
func (r *Registry) GroupForConnection(connectionID string) (string, bool) {
	value, ok := r.membership.Load(connectionID)
	if !ok {
		return "", false
	}
	return value.(*Group).name, true
}

// Group returns a snapshot of the named group
func (r *Registry) Group(name string) (entity.GroupSnapshot, bool) {
	r.lock.RLock()
	g, ok := r.groups[name]
	r.lock.RUnlock()
	if !ok {
		return entity.GroupSnapshot{}, false
	}
	return g.Snapshot(), true
}

// IsOnline tells if username holds at least one live connection
func (r *Registry) IsOnline(username string) bool {
	for _, g := range r.snapshotGroups() {
		if len(g.connectionsOf(username, nil)) > 0 {
			return true
		}
	}
	return false
}

// OnlineUsers lists, sorted and lowercase, the users holding at least one live connection
func (r *Registry) OnlineUsers() []string {
	seen := make(map[string]struct{})
	for _, g := range r.snapshotGroups() {
		for _, c := range g.Snapshot().Connections {
			seen[strings.ToLower(c.Username)] = struct{}{}
		}
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	slices.Sort(users)
	return users
}

// GroupCount is the number of groups ever created, empty ones included
func (r *Registry) GroupCount() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.groups)
}

func (r *Registry) snapshotGroups() []*Group {
	r.lock.RLock()
	defer r.lock.RUnlock()
	groups := make([]*Group, 0, len(r.groups))
	for _, g := range r.groups {
		groups = append(groups, g)
	}
	return groups
}
