package cachestore

import "time"

// Entry is owned exclusively by the category map it lives in. It is created
// on miss, touched on every hit and destroyed on TTL expiry or eviction.
type Entry struct {
	key         Key
	data        any
	createdAt   int64 // unix nano
	touchedAt   int64 // unix nano, drives recency-based eviction
	accessCount int64
}

func newEntry(key Key, data any, now time.Time) *Entry {
	n := now.UnixNano()
	return &Entry{key: key, data: data, createdAt: n, touchedAt: n}
}

func (e *Entry) touch(now time.Time) {
	e.touchedAt = now.UnixNano()
	e.accessCount++
}

func (e *Entry) isExpired(ttl time.Duration, now time.Time) bool {
	return now.UnixNano()-e.createdAt > ttl.Nanoseconds()
}

func (e *Entry) Data() any          { return e.data }
func (e *Entry) AccessCount() int64 { return e.accessCount }
