/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikeb26/chorus/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]ChatStore {
	dir := t.TempDir()

	js, err := NewJSONStore(filepath.Join(dir, "chats"))
	require.NoError(t, err)
	sq, err := NewSQLiteStore(filepath.Join(dir, "chats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]ChatStore{
		"memory": NewMemoryStore(),
		"json":   js,
		"sqlite": sq,
	}
}

func history(id, text string, ts time.Time) *types.ChatHistory {
	return &types.ChatHistory{
		ID: id,
		Messages: []types.ChatMessage{
			types.NewTextMessage(types.LlmRoleUser, text),
			{Role: types.LlmRoleAssistant, Parts: []types.Part{
				{Type: types.PartReasoning, Text: "thinking"},
				{Type: types.PartToolInvocation, ToolName: "web_search",
					ToolCallID: "c1", Args: `{"query":"q"}`, Result: `{}`},
				{Type: types.PartText, Text: "answer"},
			}},
		},
		Timestamp: ts,
	}
}

func TestChatStore_Contract(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, "missing"), ErrNotFound)
			assert.ErrorIs(t, s.Put(ctx, &types.ChatHistory{}), ErrMissingID)

			older := history("a", "first chat", base)
			newer := history("b", "second chat", base.Add(time.Hour))
			require.NoError(t, s.Put(ctx, older))
			require.NoError(t, s.Put(ctx, newer))

			got, err := s.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, older.Messages, got.Messages)
			assert.True(t, older.Timestamp.Equal(got.Timestamp))

			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "b", list[0].ID)
			assert.Equal(t, "a", list[1].ID)

			updated := history("a", "first chat, again", base.Add(2*time.Hour))
			require.NoError(t, s.Put(ctx, updated))
			list, err = s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "a", list[0].ID)
			assert.Equal(t, "first chat, again", list[0].Messages[0].Text())

			require.NoError(t, s.Delete(ctx, "a"))
			_, err = s.Get(ctx, "a")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestJSONStore_SkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), history("ok", "hi", time.Now())))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o600))

	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ok", list[0].ID)

	_, err = os.Stat(filepath.Join(dir, "ok.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestJSONStore_RejectsFilePath(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, nil, 0o600))

	_, err := NewJSONStore(f)
	assert.Error(t, err)
}

func TestJSONStore_RejectsTraversal(t *testing.T) {
	s, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, s.Put(context.Background(), history("../x", "hi", time.Now())))
	_, err = s.Get(context.Background(), "../x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen(t *testing.T) {
	s, err := Open("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open("postgres", "")
	assert.ErrorContains(t, err, "unsupported store backend")

	s, err = Open(BackendJSON, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, s)
}
