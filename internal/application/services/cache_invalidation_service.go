package services

import (
	"context"
	"fmt"
	"log"

	"github.com/verifix/backend/internal/domain/providers"
)

// CacheInvalidationService watches the global investigation event
// stream and drops cached solution entries as their state changes, so
// pollers never read a stale status from the cache.
type CacheInvalidationService struct {
	bus    providers.EventBus
	cache  providers.CacheProvider
	cancel context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(bus providers.EventBus, cache providers.CacheProvider) *CacheInvalidationService {
	return &CacheInvalidationService{bus: bus, cache: cache}
}

// Start subscribes to the global event channel and begins invalidating.
func (s *CacheInvalidationService) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	events, err := s.bus.Subscribe(ctx, providers.EventChannelAll)
	if err != nil {
		return err
	}

	go func() {
		for event := range events {
			if event == nil {
				continue
			}
			key := fmt.Sprintf("solution:%s", event.SolutionID)
			if err := s.cache.Delete(ctx, key); err != nil {
				log.Printf("Failed to invalidate cache for solution %s: %v", event.SolutionID, err)
			}
			if err := s.cache.DeletePattern(ctx, "solutions:list:*"); err != nil {
				log.Printf("Failed to invalidate solution list cache: %v", err)
			}
		}
	}()

	log.Println("Cache invalidation service started")
	return nil
}

// Stop ends the subscription.
func (s *CacheInvalidationService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("Cache invalidation service stopped")
}
