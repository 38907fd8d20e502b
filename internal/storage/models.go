package storage

import (
	"time"
)

// Timestamps on worlds' timelines are minutes since the world's origin.

type World struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Calendar    string    `json:"calendar"`
	TimeOrigin  int64     `json:"time_origin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Actor struct {
	ID          string    `json:"id"`
	WorldID     string    `json:"world_id"`
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Event struct {
	ID          string    `json:"id"`
	WorldID     string    `json:"world_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Timestamp   int64     `json:"timestamp"`
	RevokedAt   *int64    `json:"revoked_at,omitempty"`
	Icon        string    `json:"icon"`
	ActorIDs    []string  `json:"actor_ids"`
	SourceURL   string    `json:"source_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Delta is a change to an event's state at a later point in time.
type Delta struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	WorldID     string    `json:"world_id"`
	Timestamp   int64     `json:"timestamp"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Article is a wiki page with markdown content.
type Article struct {
	ID        string    `json:"id"`
	WorldID   string    `json:"world_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FetchMetadata records conditional-request state for imported feeds.
type FetchMetadata struct {
	WorldID      string    `json:"world_id"`
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	LastFetched  time.Time `json:"last_fetched"`
}

// ActiveAt reports whether the event has happened and is not yet revoked
// at ts.
func (e *Event) ActiveAt(ts int64) bool {
	if ts < e.Timestamp {
		return false
	}
	return e.RevokedAt == nil || ts < *e.RevokedAt
}
