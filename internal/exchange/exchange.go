// Package exchange reads and writes whole worlds as TOML documents so they
// can be shared or kept under version control.
package exchange

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pders01/timelines/internal/calendar"
	"github.com/pders01/timelines/internal/storage"
)

// FormatVersion is written to every document and checked on import.
const FormatVersion = 1

var ErrUnsupportedFormat = errors.New("unsupported world document format")

type Document struct {
	Format     int          `toml:"format"`
	ExportedAt time.Time    `toml:"exported_at"`
	World      WorldDoc     `toml:"world"`
	Actors     []ActorDoc   `toml:"actors,omitempty"`
	Events     []EventDoc   `toml:"events,omitempty"`
	Articles   []ArticleDoc `toml:"articles,omitempty"`
}

type WorldDoc struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description,omitempty"`
	Calendar    string `toml:"calendar"`
	TimeOrigin  int64  `toml:"time_origin"`
}

type ActorDoc struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Title       string `toml:"title,omitempty"`
	Description string `toml:"description,omitempty"`
	Color       string `toml:"color,omitempty"`
}

type EventDoc struct {
	ID          string     `toml:"id"`
	Name        string     `toml:"name"`
	Description string     `toml:"description,omitempty"`
	Timestamp   int64      `toml:"timestamp"`
	RevokedAt   *int64     `toml:"revoked_at,omitempty"`
	Icon        string     `toml:"icon,omitempty"`
	ActorIDs    []string   `toml:"actors,omitempty"`
	SourceURL   string     `toml:"source_url,omitempty"`
	Deltas      []DeltaDoc `toml:"deltas,omitempty"`
}

type DeltaDoc struct {
	ID          string `toml:"id"`
	Timestamp   int64  `toml:"timestamp"`
	Name        string `toml:"name"`
	Description string `toml:"description,omitempty"`
}

type ArticleDoc struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	Position int    `toml:"position"`
	Content  string `toml:"content,multiline"`
}

// Export writes the world and everything it owns to w.
func Export(store *storage.Store, worldID string, w io.Writer) error {
	doc, err := Snapshot(store, worldID)
	if err != nil {
		return err
	}
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding world %s: %w", worldID, err)
	}
	return nil
}

// Snapshot collects a world into a Document.
func Snapshot(store *storage.Store, worldID string) (*Document, error) {
	world, err := store.GetWorld(worldID)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		Format:     FormatVersion,
		ExportedAt: time.Now().UTC().Truncate(time.Second),
		World: WorldDoc{
			ID:          world.ID,
			Name:        world.Name,
			Description: world.Description,
			Calendar:    world.Calendar,
			TimeOrigin:  world.TimeOrigin,
		},
	}

	actors, err := store.GetActors(worldID)
	if err != nil {
		return nil, fmt.Errorf("loading actors: %w", err)
	}
	for _, a := range actors {
		doc.Actors = append(doc.Actors, ActorDoc{ID: a.ID, Name: a.Name, Title: a.Title, Description: a.Description, Color: a.Color})
	}

	deltas, err := store.GetWorldDeltas(worldID)
	if err != nil {
		return nil, fmt.Errorf("loading deltas: %w", err)
	}
	byEvent := map[string][]DeltaDoc{}
	for _, d := range deltas {
		byEvent[d.EventID] = append(byEvent[d.EventID], DeltaDoc{ID: d.ID, Timestamp: d.Timestamp, Name: d.Name, Description: d.Description})
	}

	events, err := store.GetEvents(worldID)
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	for _, e := range events {
		doc.Events = append(doc.Events, EventDoc{
			ID:          e.ID,
			Name:        e.Name,
			Description: e.Description,
			Timestamp:   e.Timestamp,
			RevokedAt:   e.RevokedAt,
			Icon:        e.Icon,
			ActorIDs:    e.ActorIDs,
			SourceURL:   e.SourceURL,
			Deltas:      byEvent[e.ID],
		})
	}

	articles, err := store.GetArticles(worldID)
	if err != nil {
		return nil, fmt.Errorf("loading articles: %w", err)
	}
	for _, a := range articles {
		doc.Articles = append(doc.Articles, ArticleDoc{ID: a.ID, Name: a.Name, Position: a.Position, Content: a.Content})
	}
	return doc, nil
}

// Import reads a document from r and stores it. Records keep their IDs, so
// importing a world that already exists overwrites it record by record.
func Import(store *storage.Store, r io.Reader) (*storage.World, error) {
	var doc Document
	if err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding world document: %w", err)
	}
	return Restore(store, &doc)
}

// Restore stores a decoded document.
func Restore(store *storage.Store, doc *Document) (*storage.World, error) {
	if doc.Format != FormatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedFormat, doc.Format)
	}
	if doc.World.ID == "" || doc.World.Name == "" {
		return nil, fmt.Errorf("%w: world needs an id and a name", ErrUnsupportedFormat)
	}
	if _, err := calendar.Lookup(doc.World.Calendar); err != nil {
		return nil, err
	}

	world := &storage.World{
		ID:          doc.World.ID,
		Name:        doc.World.Name,
		Description: doc.World.Description,
		Calendar:    doc.World.Calendar,
		TimeOrigin:  doc.World.TimeOrigin,
	}
	if existing, err := store.GetWorld(world.ID); err == nil {
		world.CreatedAt = existing.CreatedAt
	}
	if err := store.SaveWorld(world); err != nil {
		return nil, fmt.Errorf("saving world: %w", err)
	}

	for _, a := range doc.Actors {
		actor := &storage.Actor{ID: a.ID, WorldID: world.ID, Name: a.Name, Title: a.Title, Description: a.Description, Color: a.Color}
		if err := store.SaveActor(actor); err != nil {
			return nil, fmt.Errorf("saving actor %s: %w", a.ID, err)
		}
	}

	events := make([]*storage.Event, 0, len(doc.Events))
	for _, e := range doc.Events {
		events = append(events, &storage.Event{
			ID:          e.ID,
			WorldID:     world.ID,
			Name:        e.Name,
			Description: e.Description,
			Timestamp:   e.Timestamp,
			RevokedAt:   e.RevokedAt,
			Icon:        e.Icon,
			ActorIDs:    e.ActorIDs,
			SourceURL:   e.SourceURL,
		})
	}
	if err := store.SaveEvents(events); err != nil {
		return nil, fmt.Errorf("saving events: %w", err)
	}
	for _, e := range doc.Events {
		for _, d := range e.Deltas {
			delta := &storage.Delta{ID: d.ID, EventID: e.ID, Timestamp: d.Timestamp, Name: d.Name, Description: d.Description}
			if err := store.SaveDelta(delta); err != nil {
				return nil, fmt.Errorf("saving delta %s: %w", d.ID, err)
			}
		}
	}

	for _, a := range doc.Articles {
		article := &storage.Article{ID: a.ID, WorldID: world.ID, Name: a.Name, Position: a.Position, Content: a.Content}
		if err := store.SaveArticle(article); err != nil {
			return nil, fmt.Errorf("saving article %s: %w", a.ID, err)
		}
	}
	return world, nil
}
