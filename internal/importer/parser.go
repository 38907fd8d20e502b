package importer

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"github.com/pders01/timelines/internal/calendar"
	"github.com/pders01/timelines/internal/palette"
	"github.com/pders01/timelines/internal/storage"
)

const feedIcon = "rss"

// Feed is the parsed form of a feed document, ready to be stored in a world.
type Feed struct {
	Title   string
	Events  []*storage.Event
	Actors  []*storage.Actor
	Skipped int
}

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{parser: gofeed.NewParser()}
}

// Parse turns each dated item into an event of worldID. Item times are
// converted with cal; items without a date are skipped. Authors become
// actors. IDs are derived from the world and the item GUID so importing the
// same feed twice updates events in place.
func (p *Parser) Parse(r io.Reader, worldID string, cal calendar.Calendar) (*Feed, error) {
	parsed, err := p.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	out := &Feed{Title: strings.TrimSpace(parsed.Title)}
	actors := map[string]*storage.Actor{}

	for _, item := range parsed.Items {
		when := itemTime(item)
		if when == nil {
			out.Skipped++
			continue
		}

		ev := &storage.Event{
			ID:          stableID(worldID, "item", itemKey(item)),
			WorldID:     worldID,
			Name:        strings.TrimSpace(html.UnescapeString(item.Title)),
			Description: toMarkdown(itemBody(item)),
			Timestamp:   cal.FromTime(*when),
			Icon:        feedIcon,
			SourceURL:   item.Link,
		}
		if ev.Name == "" {
			ev.Name = "Untitled"
		}

		for _, person := range itemAuthors(item) {
			a, ok := actors[person.Name]
			if !ok {
				id := stableID(worldID, "author", person.Name)
				a = &storage.Actor{
					ID:          id,
					WorldID:     worldID,
					Name:        person.Name,
					Description: person.Email,
					Color:       palette.ForID(id),
				}
				actors[person.Name] = a
				out.Actors = append(out.Actors, a)
			}
			ev.ActorIDs = append(ev.ActorIDs, a.ID)
		}

		out.Events = append(out.Events, ev)
	}
	return out, nil
}

func itemTime(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	return item.UpdatedParsed
}

func itemKey(item *gofeed.Item) string {
	switch {
	case item.GUID != "":
		return item.GUID
	case item.Link != "":
		return item.Link
	}
	return item.Title + "|" + item.Published
}

func itemBody(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Description
}

func itemAuthors(item *gofeed.Item) []*gofeed.Person {
	var people []*gofeed.Person
	for _, p := range item.Authors {
		if p != nil && strings.TrimSpace(p.Name) != "" {
			people = append(people, p)
		}
	}
	if len(people) == 0 && item.Author != nil && strings.TrimSpace(item.Author.Name) != "" {
		people = append(people, item.Author)
	}
	return people
}

func stableID(worldID, kind, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(worldID+"|"+kind+"|"+key)).String()
}

var (
	tagRe   = regexp.MustCompile(`(?s)<[^>]*>`)
	blankRe = regexp.MustCompile(`\n{3,}`)
)

// toMarkdown converts item HTML for the reader. Markup the converter rejects
// is reduced to plain text.
func toMarkdown(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		md = html.UnescapeString(tagRe.ReplaceAllString(s, ""))
	}

	lines := strings.Split(md, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	md = strings.Join(lines, "\n")
	return strings.TrimSpace(blankRe.ReplaceAllString(md, "\n\n"))
}
