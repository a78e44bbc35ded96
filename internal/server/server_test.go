/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/golang/mock/gomock"
	"github.com/mikeb26/chorus/internal/composer"
	"github.com/mikeb26/chorus/internal/events"
	"github.com/mikeb26/chorus/internal/quota"
	"github.com/mikeb26/chorus/internal/render"
	"github.com/mikeb26/chorus/internal/store"
	"github.com/mikeb26/chorus/internal/stream"
	"github.com/mikeb26/chorus/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answering(ctrl *gomock.Controller, text string) *types.MockLlmChatModel {
	m := types.NewMockLlmChatModel(ctrl)
	m.EXPECT().WithTools(gomock.Any()).Return(m, nil).AnyTimes()
	m.EXPECT().Stream(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, []*schema.Message,
			...model.Option) (*schema.StreamReader[*schema.Message], error) {

			return schema.StreamReaderFromArray([]*schema.Message{
				{Role: schema.Assistant, Content: text},
			}), nil
		}).AnyTimes()
	return m
}

func newTestServer(t *testing.T, dispatcher types.LlmChatModel,
	counter *quota.Counter) (*httptest.Server, store.ChatStore) {

	chats := store.NewMemoryStore()
	srv := New(composer.Agents{Dispatcher: dispatcher},
		composer.Config{Counter: counter}, chats)
	srv.now = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, chats
}

func TestServer_ChatStreamsAndStores(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ts, chats := newTestServer(t, answering(ctrl, "Hello there"), nil)
	client := stream.NewClient(ts.URL)

	consumer := render.NewConsumer(nil)
	err := client.Chat(context.Background(), types.ChatRequest{
		ID:       "c1",
		Messages: []types.ChatMessage{types.NewTextMessage(types.LlmRoleUser, "hi")},
	}, consumer)
	require.NoError(t, err)

	snap := consumer.Snapshot()
	assert.True(t, snap.Finished)
	assert.Equal(t, composer.FinishStop, snap.FinishReason)
	require.Len(t, snap.Fragments, 1)
	assert.Equal(t, "Hello there", snap.Fragments[0].Text)

	h, err := chats.Get(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, types.LlmRoleAssistant, h.Messages[1].Role)
	assert.Equal(t, "Hello there", h.Messages[1].Text())
	assert.Equal(t, 2026, h.Timestamp.Year())
}

func TestServer_ChatAssignsID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ts, chats := newTestServer(t, answering(ctrl, "ok"), nil)

	body, err := json.Marshal(types.ChatRequest{Messages: []types.ChatMessage{
		types.NewTextMessage(types.LlmRoleUser, "hi")}})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/api/chat", "application/json",
		bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	id := resp.Header.Get(ChatIDHeader)
	require.NotEmpty(t, id)

	rec := &events.Recorder{}
	require.NoError(t, stream.Decode(context.Background(), resp.Body, rec))
	evs := rec.Events()
	require.NotEmpty(t, evs)
	assert.Equal(t, events.TypeFinish, evs[len(evs)-1].Type)

	_, err = chats.Get(context.Background(), id)
	assert.NoError(t, err)
}

func TestServer_ChatRejectsBadRequests(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ts, _ := newTestServer(t, types.NewMockLlmChatModel(ctrl), nil)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"no messages", `{"messages":[]}`},
		{"last not user", `{"messages":[{"role":"assistant","parts":[{"type":"text","text":"x"}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/chat", "application/json",
				bytes.NewBufferString(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var out map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestServer_ChatsResource(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ts, chats := newTestServer(t, types.NewMockLlmChatModel(ctrl), nil)
	ctx := context.Background()
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, chats.Put(ctx, &types.ChatHistory{ID: "old",
		Timestamp: older,
		Messages:  []types.ChatMessage{types.NewTextMessage(types.LlmRoleUser, "a")}}))
	require.NoError(t, chats.Put(ctx, &types.ChatHistory{ID: "new",
		Timestamp: older.Add(time.Hour),
		Messages:  []types.ChatMessage{types.NewTextMessage(types.LlmRoleUser, "b")}}))

	resp, err := http.Get(ts.URL + "/api/chats")
	require.NoError(t, err)
	var list []*types.ChatHistory
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)

	resp, err = http.Get(ts.URL + "/api/chats/old")
	require.NoError(t, err)
	var h types.ChatHistory
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	resp.Body.Close()
	assert.Equal(t, "a", h.Messages[0].Text())

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/chats/old", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/chats/old")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Quota(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	counter := quota.NewCounter(10)
	for i := 0; i < 9; i++ {
		require.True(t, counter.Reserve())
	}
	ts, _ := newTestServer(t, types.NewMockLlmChatModel(ctrl), counter)
	client := stream.NewClient(ts.URL)

	st, err := client.Quota(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), st.Used)
	assert.Equal(t, int64(1), st.Remaining)
	assert.Equal(t, quota.StatusWarning, st.Status)

	st, err = client.ResetQuota(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.Used)
	assert.Equal(t, quota.StatusOK, st.Status)
}

func TestServer_Health(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ts, _ := newTestServer(t, types.NewMockLlmChatModel(ctrl), nil)
	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestServer_ChatsViaClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ts, chats := newTestServer(t, types.NewMockLlmChatModel(ctrl), nil)
	ctx := context.Background()
	require.NoError(t, chats.Put(ctx, &types.ChatHistory{ID: "c1",
		Timestamp: time.Now(),
		Messages:  []types.ChatMessage{types.NewTextMessage(types.LlmRoleUser, "hello")}}))

	client := stream.NewClient(ts.URL)
	list, err := client.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hello", list[0].Title())

	h, err := client.GetChat(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", h.ID)

	require.NoError(t, client.DeleteChat(ctx, "c1"))
	_, err = client.GetChat(ctx, "c1")
	assert.ErrorContains(t, err, "404")
}
