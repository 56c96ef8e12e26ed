package monitor

import (
	"context"
	"errors"
	"sync"

	"github.com/go-redis/redis/v8"
)

// CardStore remembers the message ID of each guild's status card.
// Get returns "" when the guild has no card yet.
type CardStore interface {
	Get(ctx context.Context, guildID string) (string, error)
	Set(ctx context.Context, guildID, messageID string) error
}

// MemoryCardStore keeps card references for the lifetime of the process
type MemoryCardStore struct {
	mu    sync.Mutex
	cards map[string]string
}

// NewMemoryCardStore creates an empty in-memory card store
func NewMemoryCardStore() *MemoryCardStore {
	return &MemoryCardStore{cards: make(map[string]string)}
}

func (m *MemoryCardStore) Get(ctx context.Context, guildID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cards[guildID], nil
}

func (m *MemoryCardStore) Set(ctx context.Context, guildID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[guildID] = messageID
	return nil
}

const redisCardKeyPrefix = "mcstatus:card:"

// RedisCardStore keeps card references in Redis so a restarted bot keeps
// editing the same message instead of posting a new one
type RedisCardStore struct {
	client *redis.Client
}

// NewRedisCardStore creates a card store on top of client
func NewRedisCardStore(client *redis.Client) *RedisCardStore {
	return &RedisCardStore{client: client}
}

func (r *RedisCardStore) Get(ctx context.Context, guildID string) (string, error) {
	val, err := r.client.Get(ctx, redisCardKeyPrefix+guildID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

func (r *RedisCardStore) Set(ctx context.Context, guildID, messageID string) error {
	return r.client.Set(ctx, redisCardKeyPrefix+guildID, messageID, 0).Err()
}
