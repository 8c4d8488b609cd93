/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package data

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"dmcore/internal"
	"dmcore/internal/entity"
	"dmcore/internal/nlog"
	"dmcore/internal/pagination"
	"dmcore/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
)

func openMemory(t *testing.T) *StorageManager {
	t.Helper()
	db, err := Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), nlog.Discard{})
	require.NoError(t, err)

	storage, err := NewStorageManager(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestDialector(t *testing.T) {
	config := &internal.Config{FolderPath: "/tmp/dm", DBDriver: internal.DriverSQLite, DBName: "dm.db"}
	d, err := Dialector(config)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Dialector{}, d)
	assert.Equal(t, "/tmp/dm/dm.db?"+sqliteOptions, d.(*sqlite.Dialector).DSN)

	config = &internal.Config{DBDriver: internal.DriverPostgres, DBDSN: "host=db user=dm"}
	d, err = Dialector(config)
	require.NoError(t, err)
	assert.IsType(t, &postgres.Dialector{}, d)

	_, err = Dialector(&internal.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}

func TestNewStorageManagerCreatesState(t *testing.T) {
	storage := openMemory(t)
	ctx := context.Background()

	state, err := storage.GetGlobalRepository().GetSystemState(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), state.ID)
	assert.Equal(t, uint64(0), storage.GetCachedEpoch())
}

func TestSeedUsers(t *testing.T) {
	storage := openMemory(t)
	ctx := context.Background()

	require.NoError(t, storage.SeedUsers(ctx, []string{"alice", "Bob"}))
	require.NoError(t, storage.SeedUsers(ctx, []string{"ALICE"}))

	page, err := storage.GetUserRepository().List(ctx, pagination.Params{PageNumber: 1})
	require.NoError(t, err)
	users := page.Items
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, "Bob", users[1].KnownAs)
	assert.Equal(t, uint64(2), storage.GetCachedEpoch())
}

func TestConcurrentSendsOnFileDatabase(t *testing.T) {
	config := &internal.Config{FolderPath: t.TempDir(), DBDriver: internal.DriverSQLite, DBName: "dm.db"}
	db, err := OpenDatabase(config, nlog.Discard{})
	require.NoError(t, err)

	ctx := context.Background()
	storage, err := NewStorageManager(ctx, db)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })
	require.NoError(t, storage.SeedUsers(ctx, []string{"alice", "bob"}))

	users := service.NewLocalUserService(storage.GetUserRepository(), nlog.Discard{})
	messages := service.NewLocalMessageService(users, storage.GetMessageRepository(), nlog.Discard{})

	const senders = 20
	var wg sync.WaitGroup
	errs := make(chan error, senders)
	for i := 0; i < senders; i++ {
		from, to := "alice", "bob"
		if i%2 == 1 {
			from, to = to, from
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := messages.Send(ctx, from, to, fmt.Sprintf("message %d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Send failed: %v", err)
	}

	inbox, err := messages.ListForUser(ctx, "bob", entity.ContainerInbox, pagination.Params{PageNumber: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(senders/2), inbox.Metadata.TotalItems)

	epoch, err := storage.GetGlobalRepository().GetCurrentEpoch(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2+senders), epoch)
}
