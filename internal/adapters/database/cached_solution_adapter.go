package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/verifix/backend/internal/domain/entities"
	"github.com/verifix/backend/internal/domain/providers"
	"github.com/verifix/backend/internal/domain/repositories"
)

// CachedSolutionAdapter wraps SolutionAdapter with caching. Reads of
// single solutions and recent lists hit the cache first; every write
// invalidates the affected keys.
type CachedSolutionAdapter struct {
	adapter repositories.SolutionRepository
	cache   providers.CacheProvider
}

// NewCachedSolutionAdapter creates a new cached solution adapter
func NewCachedSolutionAdapter(adapter repositories.SolutionRepository, cache providers.CacheProvider) repositories.SolutionRepository {
	return &CachedSolutionAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs (in seconds)
const (
	solutionByIDTTL  = 300 // 5 minutes for single solution
	solutionListTTL  = 60  // 1 minute for lists; investigations mutate often
	solutionListGlob = "solutions:list:*"
)

func solutionCacheKey(id string) string {
	return fmt.Sprintf("solution:%s", id)
}

func solutionListCacheKey(limit int) string {
	return fmt.Sprintf("solutions:list:%d", limit)
}

// GetByID retrieves a solution by ID with caching
func (a *CachedSolutionAdapter) GetByID(ctx context.Context, id string) (*entities.Solution, error) {
	cacheKey := solutionCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var solution entities.Solution
		if err := json.Unmarshal(cached, &solution); err == nil {
			return &solution, nil
		}
		log.Printf("Failed to unmarshal cached solution %s: %v", id, err)
	}

	solution, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(solution); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, solutionByIDTTL); err != nil {
				log.Printf("Failed to cache solution %s: %v", id, err)
			}
		}
	}()

	return solution, nil
}

// List retrieves all solutions with caching
func (a *CachedSolutionAdapter) List(ctx context.Context) ([]*entities.Solution, error) {
	return a.cachedList(ctx, 0, func(ctx context.Context) ([]*entities.Solution, error) {
		return a.adapter.List(ctx)
	})
}

// ListRecent retrieves the most recent solutions with caching
func (a *CachedSolutionAdapter) ListRecent(ctx context.Context, limit int) ([]*entities.Solution, error) {
	return a.cachedList(ctx, limit, func(ctx context.Context) ([]*entities.Solution, error) {
		return a.adapter.ListRecent(ctx, limit)
	})
}

func (a *CachedSolutionAdapter) cachedList(ctx context.Context, limit int, fetch func(context.Context) ([]*entities.Solution, error)) ([]*entities.Solution, error) {
	cacheKey := solutionListCacheKey(limit)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var solutions []*entities.Solution
		if err := json.Unmarshal(cached, &solutions); err == nil {
			return solutions, nil
		}
		log.Printf("Failed to unmarshal cached solution list: %v", err)
	}

	solutions, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(solutions); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, solutionListTTL); err != nil {
				log.Printf("Failed to cache solution list: %v", err)
			}
		}
	}()

	return solutions, nil
}

// Create creates a solution and invalidates list caches
func (a *CachedSolutionAdapter) Create(ctx context.Context, solution *entities.Solution) error {
	if err := a.adapter.Create(ctx, solution); err != nil {
		return err
	}

	a.invalidate(solution.ID)
	return nil
}

// Update updates a solution and invalidates its caches
func (a *CachedSolutionAdapter) Update(ctx context.Context, solution *entities.Solution) error {
	if err := a.adapter.Update(ctx, solution); err != nil {
		return err
	}

	a.invalidate(solution.ID)
	return nil
}

// UpdateStatus updates a solution status and invalidates its caches
func (a *CachedSolutionAdapter) UpdateStatus(ctx context.Context, id string, status entities.SolutionStatus) error {
	if err := a.adapter.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	a.invalidate(id)
	return nil
}

// Delete deletes a solution and invalidates its caches
func (a *CachedSolutionAdapter) Delete(ctx context.Context, id string) error {
	if err := a.adapter.Delete(ctx, id); err != nil {
		return err
	}

	a.invalidate(id)
	return nil
}

func (a *CachedSolutionAdapter) invalidate(id string) {
	go func() {
		bgCtx := context.Background()
		if err := a.cache.Delete(bgCtx, solutionCacheKey(id)); err != nil {
			log.Printf("Failed to invalidate solution cache %s: %v", id, err)
		}
		if err := a.cache.DeletePattern(bgCtx, solutionListGlob); err != nil {
			log.Printf("Failed to invalidate solution list cache: %v", err)
		}
	}()
}
