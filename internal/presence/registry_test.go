/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package presence

import (
	"fmt"
	"sync"
	"testing"

	"dmcore/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupNameIsOrderIndependent(t *testing.T) {
	pairs := [][2]string{{"alice", "bob"}, {"zed", "amy"}, {"Bob", "alice"}, {"x", "x1"}}
	for _, p := range pairs {
		assert.Equal(t, GroupNameFor(p[0], p[1]), GroupNameFor(p[1], p[0]), p)
	}
	assert.Equal(t, "alice:bob", GroupNameFor("bob", "alice"))
	assert.Equal(t, "alice:bob", GroupNameFor("Alice", "BOB"))
}

func TestJoinAndLeave(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, "alice:bob", r.JoinGroup("c1", "alice", "bob"))
	assert.Equal(t, "alice:bob", r.JoinGroup("c2", "bob", "alice"))

	assert.Equal(t, []string{"c1"}, r.ConnectionsForUser("alice"))
	assert.Equal(t, []string{"c2"}, r.ConnectionsForUser("bob"))

	group, ok := r.Group("alice:bob")
	require.True(t, ok)
	assert.Equal(t, []entity.Connection{
		{ConnectionID: "c1", Username: "alice"},
		{ConnectionID: "c2", Username: "bob"},
	}, group.Connections)

	left, name, ok := r.LeaveGroup("c1")
	require.True(t, ok)
	assert.Equal(t, "alice:bob", name)
	assert.Equal(t, "alice", left.Username)

	group, _ = r.Group("alice:bob")
	assert.Equal(t, []entity.Connection{{ConnectionID: "c2", Username: "bob"}}, group.Connections)
	assert.Empty(t, r.ConnectionsForUser("alice"))
}

func TestLeaveUnknownConnectionIsSilent(t *testing.T) {
	r := NewRegistry()
	_, _, ok := r.LeaveGroup("ghost")
	assert.False(t, ok)

	r.JoinGroup("c1", "alice", "bob")
	r.LeaveGroup("c1")
	_, _, ok = r.LeaveGroup("c1")
	assert.False(t, ok)
}

func TestEmptyGroupsStay(t *testing.T) {
	r := NewRegistry()
	r.JoinGroup("c1", "alice", "bob")
	r.LeaveGroup("c1")

	group, ok := r.Group("alice:bob")
	require.True(t, ok)
	assert.Empty(t, group.Connections)
	assert.Equal(t, 1, r.GroupCount())
}

func TestMultipleDevicesAndConversations(t *testing.T) {
	r := NewRegistry()
	r.JoinGroup("phone", "alice", "bob")
	r.JoinGroup("laptop", "alice", "bob")
	r.JoinGroup("tablet", "alice", "carol")

	assert.Equal(t, []string{"laptop", "phone", "tablet"}, r.ConnectionsForUser("alice"))
	assert.Equal(t, []string{"laptop", "phone", "tablet"}, r.ConnectionsForUser("ALICE"))
	assert.Empty(t, r.ConnectionsForUser("bob"))

	name, ok := r.GroupForConnection("tablet")
	require.True(t, ok)
	assert.Equal(t, "alice:carol", name)

	assert.True(t, r.IsOnline("alice"))
	assert.False(t, r.IsOnline("carol"))
	assert.Equal(t, []string{"alice"}, r.OnlineUsers())
}

func TestRejoinMovesConnection(t *testing.T) {
	r := NewRegistry()
	r.JoinGroup("c1", "alice", "bob")
	r.JoinGroup("c1", "alice", "carol")

	bob, _ := r.Group("alice:bob")
	assert.Empty(t, bob.Connections)

	carol, _ := r.Group("alice:carol")
	assert.Len(t, carol.Connections, 1)
	assert.Equal(t, []string{"c1"}, r.ConnectionsForUser("alice"))
}

func TestConcurrentJoinLeave(t *testing.T) {
	r := NewRegistry()
	const workers = 32
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			user := fmt.Sprintf("user%d", w%4)
			for i := 0; i < perWorker; i++ {
				id := fmt.Sprintf("w%d-c%d", w, i)
				r.JoinGroup(id, user, "hub")
				if i%2 == 0 {
					r.LeaveGroup(id)
				}
				r.ConnectionsForUser(user)
			}
		}(w)
	}
	wg.Wait()

	total := 0
	for _, user := range r.OnlineUsers() {
		if user == "hub" {
			continue
		}
		total += len(r.ConnectionsForUser(user))
	}
	assert.Equal(t, workers*perWorker/2, total)
	assert.Equal(t, 4, r.GroupCount())
}
