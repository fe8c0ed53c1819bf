package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"fabworks/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// cachedRequirementView is the stored envelope: the view plus the order
// generation it was computed against. A bumped generation makes it stale.
type cachedRequirementView struct {
	Generation int64                   `json:"generation"`
	View       *models.RequirementView `json:"view"`
}

type CacheService interface {
	// Derived requirement views, keyed by order and guarded by a
	// generation counter bumped on every stock/reservation mutation.
	GetRequirementView(ctx context.Context, tenantID, orderID uuid.UUID, applyCoverage bool) (*models.RequirementView, int64, error)
	SetRequirementView(ctx context.Context, tenantID, orderID uuid.UUID, applyCoverage bool, view *models.RequirementView, generation int64, ttl time.Duration) error
	DeleteRequirementViews(ctx context.Context, tenantID, orderID uuid.UUID) error

	GetOrderGeneration(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error)
	BumpOrderGeneration(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error)

	// Per-user "apply FG coverage" preference; presentation state, not
	// business state.
	GetCoveragePreference(ctx context.Context, tenantID, userID uuid.UUID) (bool, bool, error)
	SetCoveragePreference(ctx context.Context, tenantID, userID uuid.UUID, apply bool, ttl time.Duration) error

	InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func requirementKey(tenantID, orderID uuid.UUID, applyCoverage bool) string {
	return fmt.Sprintf("fabworks:requirements:%s:%s:%t", tenantID.String(), orderID.String(), applyCoverage)
}

func generationKey(tenantID, orderID uuid.UUID) string {
	return fmt.Sprintf("fabworks:generation:%s:%s", tenantID.String(), orderID.String())
}

func coverageKey(tenantID, userID uuid.UUID) string {
	return fmt.Sprintf("fabworks:pref:coverage:%s:%s", tenantID.String(), userID.String())
}

func (r *redisCacheService) GetRequirementView(ctx context.Context, tenantID, orderID uuid.UUID, applyCoverage bool) (*models.RequirementView, int64, error) {
	data, err := r.client.Get(ctx, requirementKey(tenantID, orderID, applyCoverage)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, 0, nil // cache miss
		}
		return nil, 0, err
	}

	var cached cachedRequirementView
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, 0, err
	}
	return cached.View, cached.Generation, nil
}

func (r *redisCacheService) SetRequirementView(ctx context.Context, tenantID, orderID uuid.UUID, applyCoverage bool, view *models.RequirementView, generation int64, ttl time.Duration) error {
	data, err := json.Marshal(&cachedRequirementView{Generation: generation, View: view})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, requirementKey(tenantID, orderID, applyCoverage), data, ttl).Err()
}

func (r *redisCacheService) DeleteRequirementViews(ctx context.Context, tenantID, orderID uuid.UUID) error {
	keys := []string{
		requirementKey(tenantID, orderID, true),
		requirementKey(tenantID, orderID, false),
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *redisCacheService) GetOrderGeneration(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey(tenantID, orderID)).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return gen, nil
}

func (r *redisCacheService) BumpOrderGeneration(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error) {
	return r.client.Incr(ctx, generationKey(tenantID, orderID)).Result()
}

func (r *redisCacheService) GetCoveragePreference(ctx context.Context, tenantID, userID uuid.UUID) (bool, bool, error) {
	val, err := r.client.Get(ctx, coverageKey(tenantID, userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return false, false, nil // not set
		}
		return false, false, err
	}
	return val == "1", true, nil
}

func (r *redisCacheService) SetCoveragePreference(ctx context.Context, tenantID, userID uuid.UUID, apply bool, ttl time.Duration) error {
	val := "0"
	if apply {
		val = "1"
	}
	return r.client.Set(ctx, coverageKey(tenantID, userID), val, ttl).Err()
}

func (r *redisCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("fabworks:*:%s:*", tenantID.String())
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}
