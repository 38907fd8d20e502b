package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("not found")

var (
	worldsBucket   = []byte("worlds")
	actorsBucket   = []byte("actors")
	eventsBucket   = []byte("events")
	deltasBucket   = []byte("deltas")
	articlesBucket = []byte("articles")
	metaBucket     = []byte("metadata")
)

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return NewStoreWithTimeout(dbPath, time.Second)
}

// NewStoreWithTimeout opens the database, waiting up to timeout for the file
// lock held by another process.
func NewStoreWithTimeout(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{worldsBucket, actorsBucket, eventsBucket, deltasBucket, articlesBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

func put(tx *bolt.Tx, bucket []byte, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tx.Bucket(bucket).Put([]byte(id), data)
}

func get(tx *bolt.Tx, bucket []byte, id string, v any) error {
	data := tx.Bucket(bucket).Get([]byte(id))
	if data == nil {
		return fmt.Errorf("%s %q: %w", strings.TrimSuffix(string(bucket), "s"), id, ErrNotFound)
	}
	return json.Unmarshal(data, v)
}

// each decodes every value in bucket into a fresh T and calls fn.
// Undecodable records are skipped.
func each[T any](tx *bolt.Tx, bucket []byte, fn func(*T)) {
	_ = tx.Bucket(bucket).ForEach(func(_ []byte, v []byte) error {
		var item T
		if err := json.Unmarshal(v, &item); err != nil {
			return nil
		}
		fn(&item)
		return nil
	})
}

// deleteWhere removes every record in bucket for which match returns true.
// Keys are collected first; deleting under a live cursor skips entries.
func deleteWhere[T any](tx *bolt.Tx, bucket []byte, match func(*T) bool) ([]string, error) {
	b := tx.Bucket(bucket)
	var keys [][]byte
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var item T
		if err := json.Unmarshal(v, &item); err == nil && match(&item) {
			keys = append(keys, append([]byte(nil), k...))
		}
	}

	deleted := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return nil, err
		}
		deleted = append(deleted, string(k))
	}
	return deleted, nil
}

func touch(created *time.Time, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

func (s *Store) SaveWorld(world *World) error {
	if world.ID == "" {
		world.ID = NewID()
	}
	touch(&world.CreatedAt, &world.UpdatedAt)
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, worldsBucket, world.ID, world)
	})
}

func (s *Store) GetWorld(id string) (*World, error) {
	var world World
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx, worldsBucket, id, &world)
	})
	if err != nil {
		return nil, err
	}
	return &world, nil
}

// GetAllWorlds returns worlds sorted by name, case-insensitively.
func (s *Store) GetAllWorlds() ([]*World, error) {
	var worlds []*World
	err := s.db.View(func(tx *bolt.Tx) error {
		each(tx, worldsBucket, func(w *World) { worlds = append(worlds, w) })
		return nil
	})
	sort.Slice(worlds, func(i, j int) bool {
		return strings.ToLower(worlds[i].Name) < strings.ToLower(worlds[j].Name)
	})
	return worlds, err
}

// DeleteWorld removes a world and everything that belongs to it.
func (s *Store) DeleteWorld(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(worldsBucket).Get([]byte(id)) == nil {
			return fmt.Errorf("world %q: %w", id, ErrNotFound)
		}
		if err := tx.Bucket(worldsBucket).Delete([]byte(id)); err != nil {
			return err
		}
		if _, err := deleteWhere(tx, actorsBucket, func(a *Actor) bool { return a.WorldID == id }); err != nil {
			return err
		}
		if _, err := deleteWhere(tx, eventsBucket, func(e *Event) bool { return e.WorldID == id }); err != nil {
			return err
		}
		if _, err := deleteWhere(tx, deltasBucket, func(d *Delta) bool { return d.WorldID == id }); err != nil {
			return err
		}
		if _, err := deleteWhere(tx, articlesBucket, func(a *Article) bool { return a.WorldID == id }); err != nil {
			return err
		}
		_, err := deleteWhere(tx, metaBucket, func(m *FetchMetadata) bool { return m.WorldID == id })
		return err
	})
}

func (s *Store) SaveActor(actor *Actor) error {
	if actor.ID == "" {
		actor.ID = NewID()
	}
	touch(&actor.CreatedAt, &actor.UpdatedAt)
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, actorsBucket, actor.ID, actor)
	})
}

// GetActors returns a world's actors sorted by name.
func (s *Store) GetActors(worldID string) ([]*Actor, error) {
	var actors []*Actor
	err := s.db.View(func(tx *bolt.Tx) error {
		each(tx, actorsBucket, func(a *Actor) {
			if a.WorldID == worldID {
				actors = append(actors, a)
			}
		})
		return nil
	})
	sort.Slice(actors, func(i, j int) bool {
		return strings.ToLower(actors[i].Name) < strings.ToLower(actors[j].Name)
	})
	return actors, err
}

func (s *Store) DeleteActor(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(actorsBucket).Delete([]byte(id))
	})
}

func (s *Store) SaveEvent(event *Event) error {
	return s.SaveEvents([]*Event{event})
}

func (s *Store) SaveEvents(events []*Event) error {
	for _, event := range events {
		if event.ID == "" {
			event.ID = NewID()
		}
		touch(&event.CreatedAt, &event.UpdatedAt)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, event := range events {
			if err := put(tx, eventsBucket, event.ID, event); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetEvent(id string) (*Event, error) {
	var event Event
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx, eventsBucket, id, &event)
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetEvents returns a world's events in timeline order.
func (s *Store) GetEvents(worldID string) ([]*Event, error) {
	var events []*Event
	err := s.db.View(func(tx *bolt.Tx) error {
		each(tx, eventsBucket, func(e *Event) {
			if e.WorldID == worldID {
				events = append(events, e)
			}
		})
		return nil
	})
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp == events[j].Timestamp {
			return events[i].Name < events[j].Name
		}
		return events[i].Timestamp < events[j].Timestamp
	})
	return events, err
}

// DeleteEvent removes an event and its deltas.
func (s *Store) DeleteEvent(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(eventsBucket).Delete([]byte(id)); err != nil {
			return err
		}
		_, err := deleteWhere(tx, deltasBucket, func(d *Delta) bool { return d.EventID == id })
		return err
	})
}

func (s *Store) SaveDelta(delta *Delta) error {
	if delta.ID == "" {
		delta.ID = NewID()
	}
	touch(&delta.CreatedAt, nil)
	return s.db.Update(func(tx *bolt.Tx) error {
		var event Event
		if err := get(tx, eventsBucket, delta.EventID, &event); err != nil {
			return err
		}
		delta.WorldID = event.WorldID
		return put(tx, deltasBucket, delta.ID, delta)
	})
}

// GetDeltas returns an event's deltas in timeline order.
func (s *Store) GetDeltas(eventID string) ([]*Delta, error) {
	var deltas []*Delta
	err := s.db.View(func(tx *bolt.Tx) error {
		each(tx, deltasBucket, func(d *Delta) {
			if d.EventID == eventID {
				deltas = append(deltas, d)
			}
		})
		return nil
	})
	sort.SliceStable(deltas, func(i, j int) bool {
		return deltas[i].Timestamp < deltas[j].Timestamp
	})
	return deltas, err
}

// GetWorldDeltas returns every delta of every event in a world.
func (s *Store) GetWorldDeltas(worldID string) ([]*Delta, error) {
	var deltas []*Delta
	err := s.db.View(func(tx *bolt.Tx) error {
		each(tx, deltasBucket, func(d *Delta) {
			if d.WorldID == worldID {
				deltas = append(deltas, d)
			}
		})
		return nil
	})
	sort.SliceStable(deltas, func(i, j int) bool {
		return deltas[i].Timestamp < deltas[j].Timestamp
	})
	return deltas, err
}

func (s *Store) SaveArticle(article *Article) error {
	if article.ID == "" {
		article.ID = NewID()
	}
	touch(&article.CreatedAt, &article.UpdatedAt)
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, articlesBucket, article.ID, article)
	})
}

func (s *Store) GetArticle(id string) (*Article, error) {
	var article Article
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx, articlesBucket, id, &article)
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// GetArticles returns a world's articles ordered by position, then name.
func (s *Store) GetArticles(worldID string) ([]*Article, error) {
	var articles []*Article
	err := s.db.View(func(tx *bolt.Tx) error {
		each(tx, articlesBucket, func(a *Article) {
			if a.WorldID == worldID {
				articles = append(articles, a)
			}
		})
		return nil
	})
	sort.SliceStable(articles, func(i, j int) bool {
		if articles[i].Position == articles[j].Position {
			return strings.ToLower(articles[i].Name) < strings.ToLower(articles[j].Name)
		}
		return articles[i].Position < articles[j].Position
	})
	return articles, err
}

func (s *Store) DeleteArticle(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(articlesBucket).Delete([]byte(id))
	})
}

func metaKey(worldID, url string) string {
	return worldID + "|" + url
}

func (s *Store) SaveFetchMetadata(meta *FetchMetadata) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, metaBucket, metaKey(meta.WorldID, meta.URL), meta)
	})
}

// GetFetchMetadata returns ErrNotFound if the feed was never imported into
// the world.
func (s *Store) GetFetchMetadata(worldID, url string) (*FetchMetadata, error) {
	var meta FetchMetadata
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx, metaBucket, metaKey(worldID, url), &meta)
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}
