package sse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestPublishReachesSubscribers(t *testing.T) {
	h := NewHub(nil)
	ch, unsub := h.Subscribe(7)
	defer unsub()

	first := h.Publish(context.Background(), 7, "project.updated", map[string]any{"name": "a"})
	second := h.Publish(context.Background(), 7, "project.updated", map[string]any{"name": "b"})
	assert.Equal(t, int64(0), first.ID)
	assert.Equal(t, int64(1), second.ID)

	for _, want := range []int64{0, 1} {
		select {
		case ev := <-ch:
			assert.Equal(t, want, ev.ID)
			assert.Equal(t, "project.updated", ev.Type)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestPublishIsolatesProjects(t *testing.T) {
	h := NewHub(nil)
	ch, unsub := h.Subscribe(1)
	defer unsub()

	h.Publish(context.Background(), 2, "workspace.updated", nil)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub(nil)
	ch, unsub := h.Subscribe(3)
	require.Equal(t, 1, h.SubscriberCount(3))

	unsub()
	unsub()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.SubscriberCount(3))
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(nil)
	_, unsub := h.Subscribe(4)
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			h.Publish(context.Background(), 4, "tick", i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked")
	}
}

func TestReplayWithoutBacklog(t *testing.T) {
	h := NewHub(nil)
	events, err := h.ReplayFrom(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParseLastEventID(t *testing.T) {
	assert.Equal(t, int64(0), ParseLastEventID("abc", ""))
	assert.Equal(t, int64(5), ParseLastEventID("abc", "abc-4"))
	assert.Equal(t, int64(0), ParseLastEventID("abc", "4"))
	assert.Equal(t, int64(0), ParseLastEventID("abc", "other-4"))
	assert.Equal(t, int64(0), ParseLastEventID("abc", "abc-x"))
	assert.Equal(t, int64(0), ParseLastEventID("abc", "abc--3"))
}

func TestEpochDiffersPerHubWithoutRedis(t *testing.T) {
	assert.NotEqual(t, NewHub(nil).Epoch(), NewHub(nil).Epoch())
}

func TestResumeFromIgnoresForeignAndFutureIDs(t *testing.T) {
	ctx := context.Background()
	h := NewHub(nil)
	for i := 0; i < 3; i++ {
		h.Publish(ctx, 1, "project.updated", i)
	}

	assert.Equal(t, int64(2), h.ResumeFrom(ctx, 1, h.Epoch()+"-1"))
	assert.Equal(t, int64(3), h.ResumeFrom(ctx, 1, h.Epoch()+"-2"))
	assert.Equal(t, int64(0), h.ResumeFrom(ctx, 1, h.Epoch()+"-5"))
	assert.Equal(t, int64(0), h.ResumeFrom(ctx, 1, "5"))

	restarted := NewHub(nil)
	assert.Equal(t, int64(0), restarted.ResumeFrom(ctx, 1, h.FormatID(Event{ID: 2})))
}

func TestRedisBacklogAssignsIDsAndReplays(t *testing.T) {
	ctx := context.Background()
	_, rdb := newRedis(t)
	h := NewHub(rdb)

	for i := 0; i < 4; i++ {
		ev := h.Publish(ctx, 9, "project.updated", map[string]any{"n": i})
		assert.Equal(t, int64(i), ev.ID)
	}

	events, err := h.ReplayFrom(ctx, 9, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].ID)
	assert.Equal(t, int64(3), events[1].ID)
	assert.Equal(t, "project.updated", events[1].Type)

	all, err := h.ReplayFrom(ctx, 9, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRedisEpochSharedAcrossHubs(t *testing.T) {
	ctx := context.Background()
	_, rdb := newRedis(t)
	first := NewHub(rdb)
	first.Publish(ctx, 3, "project.updated", nil)
	first.Publish(ctx, 3, "project.updated", nil)

	second := NewHub(rdb)
	assert.Equal(t, first.Epoch(), second.Epoch())
	assert.Equal(t, int64(2), second.ResumeFrom(ctx, 3, first.FormatID(Event{ID: 1})))
	assert.Equal(t, int64(2), second.Publish(ctx, 3, "project.updated", nil).ID)
}

func TestRedisIDsSurviveBacklogExpiry(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	h := NewHub(rdb)
	h.Publish(ctx, 4, "project.updated", nil)
	h.Publish(ctx, 4, "project.updated", nil)

	mr.FastForward(backlogTTL + time.Minute)
	assert.False(t, mr.Exists(backlogKey(4)))

	ev := h.Publish(ctx, 4, "project.updated", nil)
	assert.Equal(t, int64(2), ev.ID)
	events, err := h.ReplayFrom(ctx, 4, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(2), events[0].ID)
}

func TestRedisBacklogIsCapped(t *testing.T) {
	ctx := context.Background()
	_, rdb := newRedis(t)
	h := NewHub(rdb)
	for i := 0; i < backlogMax+5; i++ {
		h.Publish(ctx, 6, "tick", i)
	}
	events, err := h.ReplayFrom(ctx, 6, 0)
	require.NoError(t, err)
	require.Len(t, events, backlogMax)
	assert.Equal(t, int64(5), events[0].ID)
}

func TestRedisDropDeletesBacklog(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	h := NewHub(rdb)
	h.Publish(ctx, 8, "project.updated", nil)
	require.True(t, mr.Exists(backlogKey(8)))
	require.True(t, mr.Exists(seqKey(8)))

	h.Drop(ctx, 8)
	assert.False(t, mr.Exists(backlogKey(8)))
	assert.False(t, mr.Exists(seqKey(8)))
	events, err := h.ReplayFrom(ctx, 8, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRedisFailureFallsBackToLocalIDs(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	h := NewHub(rdb)
	ch, unsub := h.Subscribe(2)
	defer unsub()

	mr.Close()
	ev := h.Publish(ctx, 2, "project.updated", nil)
	assert.Equal(t, int64(0), ev.ID)
	select {
	case got := <-ch:
		assert.Equal(t, fmt.Sprintf("%s-0", h.Epoch()), h.FormatID(got))
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}
