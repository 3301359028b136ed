package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/supertrooper/backend/internal/logging"
)

const (
	backlogTTL = 24 * time.Hour
	backlogMax = 1000
	epochKey   = "supertrooper:events:epoch"
)

type Event struct {
	ID   int64       `json:"id"`
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type subscriber struct {
	ch chan Event
}

// Hub fans project events out to live subscribers. When a redis client is
// set every event is also appended to a per-project backlog for replay.
//
// Event ids are sequence numbers scoped to an epoch. Without redis the epoch
// is fresh for every hub; with redis it is shared and the sequence counters
// never expire, so ids stay monotonic across restarts and backlog expiry.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint][]*subscriber // projectID -> subscribers
	seq         map[uint]int64
	rdb         *redis.Client
	epoch       string
}

func NewHub(rdb *redis.Client) *Hub {
	h := &Hub{
		subscribers: make(map[uint][]*subscriber),
		seq:         make(map[uint]int64),
		rdb:         rdb,
		epoch:       newEpoch(),
	}
	if rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rdb.SetNX(ctx, epochKey, h.epoch, 0).Err(); err != nil {
			logging.Log.Warnf("store event epoch: %v", err)
		} else if shared, err := rdb.Get(ctx, epochKey).Result(); err == nil {
			h.epoch = shared
		}
	}
	return h
}

func newEpoch() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func backlogKey(projectID uint) string {
	return fmt.Sprintf("supertrooper:events:project:%d", projectID)
}

func seqKey(projectID uint) string {
	return fmt.Sprintf("supertrooper:events:project:%d:seq", projectID)
}

// Epoch identifies the id space of this hub.
func (h *Hub) Epoch() string {
	return h.epoch
}

// FormatID renders an event id for the SSE id field.
func (h *Hub) FormatID(ev Event) string {
	return fmt.Sprintf("%s-%d", h.epoch, ev.ID)
}

func (h *Hub) Subscribe(projectID uint) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscriber{ch: make(chan Event, 64)}
	h.subscribers[projectID] = append(h.subscribers[projectID], sub)

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			subs := h.subscribers[projectID]
			for i, s := range subs {
				if s == sub {
					h.subscribers[projectID] = append(subs[:i], subs[i+1:]...)
					close(sub.ch)
					break
				}
			}
			if len(h.subscribers[projectID]) == 0 {
				delete(h.subscribers, projectID)
			}
		})
	}
	return sub.ch, unsub
}

// Publish assigns the next event id for the project, stores the event in the
// backlog and delivers it to current subscribers. Slow subscribers miss
// events rather than block the publisher.
func (h *Hub) Publish(ctx context.Context, projectID uint, eventType string, data interface{}) Event {
	ev := Event{Type: eventType, Data: data}

	if h.rdb != nil {
		n, err := h.rdb.Incr(ctx, seqKey(projectID)).Result()
		if err != nil {
			logging.Log.Warnf("next event id of project %d: %v", projectID, err)
			ev.ID = h.nextLocal(projectID)
		} else {
			ev.ID = n - 1
			h.appendBacklog(ctx, projectID, ev)
		}
	} else {
		ev.ID = h.nextLocal(projectID)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subscribers[projectID] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
	return ev
}

func (h *Hub) appendBacklog(ctx context.Context, projectID uint, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logging.Log.Warnf("encode event %s: %v", ev.Type, err)
		return
	}
	key := backlogKey(projectID)
	_, err = h.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(ev.ID), Member: string(payload)})
		pipe.ZRemRangeByRank(ctx, key, 0, -backlogMax-1)
		pipe.Expire(ctx, key, backlogTTL)
		return nil
	})
	if err != nil {
		logging.Log.Warnf("append event backlog %s: %v", key, err)
	}
}

func (h *Hub) nextLocal(projectID uint) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.seq[projectID]
	h.seq[projectID] = id + 1
	return id
}

// issued reports how many ids the project has handed out in this epoch.
func (h *Hub) issued(ctx context.Context, projectID uint) (int64, error) {
	if h.rdb == nil {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return h.seq[projectID], nil
	}
	n, err := h.rdb.Get(ctx, seqKey(projectID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// ResumeFrom turns a Last-Event-ID header into the first id the client still
// needs. Ids from another epoch, malformed ids and ids that were never issued
// resume from the start.
func (h *Hub) ResumeFrom(ctx context.Context, projectID uint, header string) int64 {
	next := ParseLastEventID(h.epoch, header)
	if next == 0 {
		return 0
	}
	issued, err := h.issued(ctx, projectID)
	if err != nil {
		logging.Log.Warnf("event counter of project %d: %v", projectID, err)
		return 0
	}
	if next > issued {
		return 0
	}
	return next
}

// ReplayFrom returns backlog events with id >= fromID in id order. Without
// redis there is no backlog and the result is empty.
func (h *Hub) ReplayFrom(ctx context.Context, projectID uint, fromID int64) ([]Event, error) {
	if h.rdb == nil {
		return nil, nil
	}
	items, err := h.rdb.ZRangeByScore(ctx, backlogKey(projectID), &redis.ZRangeBy{
		Min: strconv.FormatInt(fromID, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(items))
	for _, item := range items {
		var ev Event
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// Drop removes the backlog and counter of a deleted project.
func (h *Hub) Drop(ctx context.Context, projectID uint) {
	h.mu.Lock()
	delete(h.seq, projectID)
	h.mu.Unlock()
	if h.rdb != nil {
		h.rdb.Del(ctx, backlogKey(projectID), seqKey(projectID))
	}
}

func (h *Hub) SubscriberCount(projectID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[projectID])
}

// ParseLastEventID returns the id to resume from, i.e. one past the header,
// or 0 when the header is empty, malformed or from another epoch.
func ParseLastEventID(epoch, header string) int64 {
	i := strings.LastIndexByte(header, '-')
	if i <= 0 || header[:i] != epoch {
		return 0
	}
	id, err := strconv.ParseInt(header[i+1:], 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id + 1
}
