package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"firmbill/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "firmbill"

type CacheService interface {
	// Firm caching
	GetFirm(ctx context.Context, firmID uuid.UUID) (*models.Firm, error)
	SetFirm(ctx context.Context, firm *models.Firm, ttl time.Duration) error
	DeleteFirm(ctx context.Context, firmID uuid.UUID) error

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

// NewRedisClient parses addr, accepting redis:// and rediss:// prefixes, and
// returns a client. A failed ping is logged, not fatal.
func NewRedisClient(addr, password string, db int, logger zerolog.Logger) *redis.Client {
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", parsedAddr).Msg("redis ping failed on initialization")
	} else {
		logger.Debug().Str("addr", parsedAddr).Msg("redis connection established")
	}
	return client
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(client *redis.Client) CacheService {
	return &redisCacheService{client: client}
}

func firmKey(firmID uuid.UUID) string {
	return fmt.Sprintf("%s:firm:%s", keyPrefix, firmID.String())
}

func (r *redisCacheService) GetFirm(ctx context.Context, firmID uuid.UUID) (*models.Firm, error) {
	data, err := r.client.Get(ctx, firmKey(firmID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var firm models.Firm
	if err := json.Unmarshal(data, &firm); err != nil {
		return nil, err
	}
	return &firm, nil
}

func (r *redisCacheService) SetFirm(ctx context.Context, firm *models.Firm, ttl time.Duration) error {
	data, err := json.Marshal(firm)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, firmKey(firm.ID), data, ttl).Err()
}

func (r *redisCacheService) DeleteFirm(ctx context.Context, firmID uuid.UUID) error {
	return r.client.Del(ctx, firmKey(firmID)).Err()
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// memoryCacheService backs single-instance deployments without redis.
type memoryCacheService struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryCacheService() CacheService {
	return &memoryCacheService{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *memoryCacheService) GetFirm(ctx context.Context, firmID uuid.UUID) (*models.Firm, error) {
	data, err := m.GetString(ctx, firmKey(firmID))
	if err != nil || data == "" {
		return nil, err
	}
	var firm models.Firm
	if err := json.Unmarshal([]byte(data), &firm); err != nil {
		return nil, err
	}
	return &firm, nil
}

func (m *memoryCacheService) SetFirm(ctx context.Context, firm *models.Firm, ttl time.Duration) error {
	data, err := json.Marshal(firm)
	if err != nil {
		return err
	}
	return m.SetString(ctx, firmKey(firm.ID), string(data), ttl)
}

func (m *memoryCacheService) DeleteFirm(ctx context.Context, firmID uuid.UUID) error {
	return m.Delete(ctx, firmKey(firmID))
}

func (m *memoryCacheService) SetString(_ context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

func (m *memoryCacheService) GetString(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return "", nil
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return "", nil
	}
	return entry.value, nil
}

func (m *memoryCacheService) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memoryCacheService) Ping(context.Context) error {
	return nil
}
