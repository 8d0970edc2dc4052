package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumechat/plume/internal/profile"
	"github.com/plumechat/plume/store"
)

func newTestDB(t *testing.T) store.Driver {
	t.Helper()
	driver, err := NewDB(&profile.Profile{
		Mode:     "dev",
		LocalDSN: filepath.Join(t.TempDir(), "plume_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { driver.Close() })
	return driver
}

func testSession(persona string, contents ...string) *store.Session {
	s := store.NewSession("", persona, "greeting")
	for _, c := range contents {
		s.Append(store.NewMessage(store.MessageRoleUser, c))
	}
	return s
}

func TestDB_UpsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	session := testSession("default", "hello")
	session.Messages[1].Attachments = []store.Attachment{
		{Kind: store.AttachmentKindImage, URL: "https://example.com/p.png", MimeType: "image/png"},
	}
	require.NoError(t, db.UpsertSession(ctx, session))

	list, err := db.ListSessions(ctx, &store.FindSession{ID: &session.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, "default", got.Persona)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "hello", got.Messages[1].Content)
	require.Len(t, got.Messages[1].Attachments, 1)
	assert.Equal(t, store.AttachmentKindImage, got.Messages[1].Attachments[0].Kind)
}

func TestDB_UpsertIsIdempotentByID(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	session := testSession("default", "v1")
	require.NoError(t, db.UpsertSession(ctx, session))

	session.Append(store.NewMessage(store.MessageRoleAssistant, "v2"))
	require.NoError(t, db.UpsertSession(ctx, session))

	list, err := db.ListSessions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Messages, 3)
}

func TestDB_ListOrdersByRecency(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	older := testSession("default", "old")
	older.UpdatedTs = time.Now().Add(-time.Hour).Unix()
	newer := testSession("pro", "new")

	require.NoError(t, db.UpsertSession(ctx, older))
	require.NoError(t, db.UpsertSession(ctx, newer))

	list, err := db.ListSessions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
}

func TestDB_DeleteSession(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	session := testSession("default", "hi")
	require.NoError(t, db.UpsertSession(ctx, session))
	require.NoError(t, db.DeleteSession(ctx, &store.DeleteSession{ID: session.ID}))

	// Deleting an absent id is not an error.
	require.NoError(t, db.DeleteSession(ctx, &store.DeleteSession{ID: "absent"}))

	list, err := db.ListSessions(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDB_RenameSession(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	session := testSession("default", "hi")
	require.NoError(t, db.UpsertSession(ctx, session))
	require.NoError(t, db.RenameSession(ctx, &store.RenameSession{ID: session.ID, Name: "Renamed"}))

	list, err := db.ListSessions(ctx, &store.FindSession{ID: &session.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Renamed", list[0].Name)

	err = db.RenameSession(ctx, &store.RenameSession{ID: "absent", Name: "x"})
	assert.Error(t, err)
}

func TestDB_ClearSessions(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, db.UpsertSession(ctx, testSession("default", "a")))
	require.NoError(t, db.UpsertSession(ctx, testSession("pro", "b")))
	require.NoError(t, db.ClearSessions(ctx))

	list, err := db.ListSessions(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}
