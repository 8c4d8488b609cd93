/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"dmcore/internal/apperr"
	"dmcore/internal/data"
	"dmcore/internal/entity"
	"dmcore/internal/nlog"
	"dmcore/internal/pagination"
	"dmcore/internal/repository"
	"dmcore/internal/repository/mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

// steppingClock returns base, base+1s, base+2s, ...
func steppingClock(base time.Time) func() time.Time {
	tick := 0
	return func() time.Time {
		now := base.Add(time.Duration(tick) * time.Second)
		tick++
		return now
	}
}

var epoch = time.Date(2026, time.June, 10, 9, 0, 0, 0, time.UTC)

func newServices(t *testing.T) (UserService, MessageService) {
	t.Helper()
	db, err := data.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), nlog.Discard{})
	require.NoError(t, err)

	ctx := context.Background()
	storage, err := data.NewStorageManager(ctx, db)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })
	require.NoError(t, storage.SeedUsers(ctx, []string{"alice", "bob", "carol"}))

	users := NewLocalUserService(storage.GetUserRepository(), nlog.Discard{})
	messages := NewLocalMessageService(users, storage.GetMessageRepository(), nlog.Discard{}, WithClock(steppingClock(epoch)))
	return users, messages
}

func TestResolveUser(t *testing.T) {
	users, _ := newServices(t)
	ctx := context.Background()

	user, err := users.ResolveUser(ctx, "Bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)

	_, err = users.ResolveUser(ctx, "mallory")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)

	_, err = users.ResolveUser(ctx, "  ")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestListUsers(t *testing.T) {
	users, _ := newServices(t)
	ctx := context.Background()

	page, err := users.ListUsers(ctx, pagination.Params{PageNumber: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "carol", page.Items[0].Username)
	assert.Equal(t, int64(3), page.Metadata.TotalItems)
	assert.Equal(t, 2, page.Metadata.TotalPages)

	_, err = users.ListUsers(ctx, pagination.Params{PageNumber: 0, PageSize: 2})
	assert.ErrorIs(t, err, apperr.ErrInvalidPage)
}

func TestSendRoundTrip(t *testing.T) {
	_, messages := newServices(t)
	ctx := context.Background()

	_, err := messages.Send(ctx, "bob", "alice", "earlier")
	require.NoError(t, err)

	sent, err := messages.Send(ctx, "alice", "BOB", "hi")
	require.NoError(t, err)
	assert.Equal(t, "alice", sent.SenderUsername)
	assert.Equal(t, "bob", sent.RecipientUsername)
	assert.Nil(t, sent.ReadAt)

	thread, err := messages.GetThread(ctx, "bob", "alice")
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "earlier", thread[0].Content)

	last := thread[1]
	assert.Equal(t, sent.UUID, last.UUID)
	assert.Equal(t, "hi", last.Content)
	assert.Equal(t, "alice", last.SenderUsername)
	assert.Equal(t, "bob", last.RecipientUsername)
	assert.True(t, last.SentAt.After(thread[0].SentAt))
}

func TestSendRejections(t *testing.T) {
	_, messages := newServices(t)
	ctx := context.Background()

	_, err := messages.Send(ctx, "alice", "ALICE", "x")
	assert.ErrorIs(t, err, apperr.ErrSelfMessage)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	_, err = messages.Send(ctx, "alice", "nobody", "x")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)

	_, err = messages.Send(ctx, "alice", "bob", "   ")
	assert.ErrorIs(t, err, apperr.ErrEmptyContent)

	// None of the above stored anything
	outbox, err := messages.ListForUser(ctx, "alice", entity.ContainerOutbox, pagination.Params{PageNumber: 1})
	require.NoError(t, err)
	assert.Empty(t, outbox.Items)
}

func TestReadReceiptIsSetOnce(t *testing.T) {
	_, messages := newServices(t)
	ctx := context.Background()

	_, err := messages.Send(ctx, "bob", "alice", "ping")
	require.NoError(t, err)

	first, err := messages.GetThread(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.NotNil(t, first[0].ReadAt)
	stamp := *first[0].ReadAt

	second, err := messages.GetThread(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NotNil(t, second[0].ReadAt)
	assert.True(t, stamp.Equal(*second[0].ReadAt))

	unread, err := messages.ListForUser(ctx, "alice", entity.ContainerUnread, pagination.Params{PageNumber: 1})
	require.NoError(t, err)
	assert.Empty(t, unread.Items)
}

func TestListForUserPagination(t *testing.T) {
	_, messages := newServices(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := messages.Send(ctx, "carol", "alice", fmt.Sprintf("note %d", i))
		require.NoError(t, err)
	}

	page, err := messages.ListForUser(ctx, "alice", entity.ContainerUnread, pagination.Params{PageNumber: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "note 4", page.Items[0].Content)
	assert.Equal(t, pagination.Metadata{CurrentPage: 1, ItemsPerPage: 2, TotalItems: 5, TotalPages: 3}, page.Metadata)

	page, err = messages.ListForUser(ctx, "alice", entity.ContainerUnread, pagination.Params{PageNumber: 10, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(5), page.Metadata.TotalItems)
	assert.Equal(t, 3, page.Metadata.TotalPages)

	_, err = messages.ListForUser(ctx, "alice", entity.ContainerUnread, pagination.Params{PageNumber: 0})
	assert.ErrorIs(t, err, apperr.ErrInvalidPage)

	_, err = messages.ListForUser(ctx, "nobody", entity.ContainerUnread, pagination.Params{PageNumber: 1})
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestDeleteKeepsOtherPartyHistory(t *testing.T) {
	_, messages := newServices(t)
	ctx := context.Background()

	sent, err := messages.Send(ctx, "alice", "bob", "secret")
	require.NoError(t, err)

	_, err = messages.Delete(ctx, sent.UUID, "carol")
	assert.ErrorIs(t, err, apperr.ErrNotParticipant)

	for i := 0; i < 2; i++ {
		outcome, err := messages.Delete(ctx, sent.UUID, "alice")
		require.NoError(t, err)
		assert.Equal(t, repository.DeleteHidden, outcome)

		thread, err := messages.GetThread(ctx, "bob", "alice")
		require.NoError(t, err)
		assert.Len(t, thread, 1)
	}

	outcome, err := messages.Delete(ctx, sent.UUID, "bob")
	require.NoError(t, err)
	assert.Equal(t, repository.DeleteDestroyed, outcome)

	for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
		thread, err := messages.GetThread(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.Empty(t, thread)
	}
	inbox, err := messages.ListForUser(ctx, "bob", entity.ContainerInbox, pagination.Params{PageNumber: 1})
	require.NoError(t, err)
	assert.Empty(t, inbox.Items)

	outcome, err = messages.Delete(ctx, sent.UUID, "bob")
	require.NoError(t, err)
	assert.Equal(t, repository.DeleteAbsent, outcome)
}

type staticUsers map[string]*entity.User

func (s staticUsers) ResolveUser(_ context.Context, name string) (*entity.User, error) {
	if user, ok := s[name]; ok {
		return user, nil
	}
	return nil, apperr.ErrUserNotFound
}

func (s staticUsers) ListUsers(_ context.Context, params pagination.Params) (*pagination.Page[*entity.User], error) {
	users := make([]*entity.User, 0, len(s))
	for _, user := range s {
		users = append(users, user)
	}
	return pagination.Slice(users, params)
}

var pair = staticUsers{
	"alice": {UUID: "u-alice", Username: "alice"},
	"bob":   {UUID: "u-bob", Username: "bob"},
}

func TestGetThreadCommitFailureKeepsView(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMessageRepository(ctrl)
	now := epoch.Add(time.Hour)
	messages := NewLocalMessageService(pair, repo, nlog.Discard{}, WithClock(func() time.Time { return now }))

	stamped := now
	view := []*entity.Message{{UUID: "m-1", SenderUUID: "u-bob", RecipientUUID: "u-alice", ReadAt: &stamped}}
	repo.EXPECT().
		GetThread(gomock.Any(), "u-alice", "u-bob", now).
		Return(view, errors.New("database is locked"))

	thread, err := messages.GetThread(context.Background(), "alice", "bob")
	assert.Equal(t, apperr.CodePersistenceFailure, apperr.CodeOf(err))
	require.Len(t, thread, 1)
	assert.Equal(t, now, *thread[0].ReadAt)
}

func TestSendStorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMessageRepository(ctrl)
	messages := NewLocalMessageService(pair, repo, nlog.Discard{}, WithUUIDs(func() string { return "m-fixed" }))

	repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m *entity.Message) (uint64, error) {
			assert.Equal(t, "m-fixed", m.UUID)
			assert.False(t, m.SenderDeleted || m.RecipientDeleted)
			return 0, errors.New("disk full")
		})

	_, err := messages.Send(context.Background(), "alice", "bob", "hello")
	assert.Equal(t, apperr.CodePersistenceFailure, apperr.CodeOf(err))
	assert.ErrorContains(t, err, "disk full")
}

func TestDeleteStorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMessageRepository(ctrl)
	messages := NewLocalMessageService(pair, repo, nlog.Discard{})

	repo.EXPECT().Delete(gomock.Any(), "m-1", "u-bob").Return(repository.DeleteAbsent, errors.New("connection reset"))

	_, err := messages.Delete(context.Background(), "m-1", "bob")
	assert.Equal(t, apperr.CodePersistenceFailure, apperr.CodeOf(err))
}
