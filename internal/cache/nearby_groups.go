// Package cache holds short-lived, process-local lookups that sit in front of the database.
package cache

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultNearbyCacheSize = 1024
	DefaultNearbyCacheTTL  = 10 * time.Minute
)

// NearbyKey identifies a cached nearby-groups lookup.
type NearbyKey struct {
	UserID uuid.UUID
	TripID uuid.UUID
}

// NearbyGroupsCache remembers which groups were found near a trip for a user.
// It is safe for concurrent use.
type NearbyGroupsCache struct {
	lru *expirable.LRU[NearbyKey, []uuid.UUID]
}

// NewNearbyGroupsCache creates a cache bounded by capacity entries, each living at most maxAge.
// Non-positive arguments fall back to the defaults.
func NewNearbyGroupsCache(capacity int, maxAge time.Duration) *NearbyGroupsCache {
	if capacity <= 0 {
		capacity = DefaultNearbyCacheSize
	}
	if maxAge <= 0 {
		maxAge = DefaultNearbyCacheTTL
	}
	return &NearbyGroupsCache{
		lru: expirable.NewLRU[NearbyKey, []uuid.UUID](capacity, nil, maxAge),
	}
}

// Get returns the cached group IDs for the key. Expired entries are reported as misses.
func (c *NearbyGroupsCache) Get(userID, tripID uuid.UUID) ([]uuid.UUID, bool) {
	ids, ok := c.lru.Get(NearbyKey{UserID: userID, TripID: tripID})
	if !ok {
		return nil, false
	}
	return slices.Clone(ids), true
}

// Put stores the group IDs for the key, replacing any previous entry.
func (c *NearbyGroupsCache) Put(userID, tripID uuid.UUID, groupIDs []uuid.UUID) {
	c.lru.Add(NearbyKey{UserID: userID, TripID: tripID}, slices.Clone(groupIDs))
}

// InvalidateTrip drops every entry cached for tripID and returns how many were removed.
func (c *NearbyGroupsCache) InvalidateTrip(tripID uuid.UUID) int {
	removed := 0
	for _, k := range c.lru.Keys() {
		if k.TripID == tripID && c.lru.Remove(k) {
			removed++
		}
	}
	return removed
}

// Purge empties the cache.
func (c *NearbyGroupsCache) Purge() {
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *NearbyGroupsCache) Len() int {
	return c.lru.Len()
}
