package search

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pders01/timelines/internal/storage"
)

const (
	minQueryLength = 2
	defaultLimit   = 50
	snippetLength  = 160
)

// Engine scores store records in process without an index. It is the
// fallback when the bleve index cannot be opened.
type Engine struct {
	store *storage.Store
}

func NewEngine(store *storage.Store) *Engine {
	return &Engine{store: store}
}

func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	worlds, err := e.store.GetAllWorlds()
	if err != nil {
		return nil, err
	}

	results := []*Result{}
	for _, w := range worlds {
		events, err := e.store.GetEvents(w.ID)
		if err != nil {
			return nil, err
		}
		for _, ev := range events {
			if r := scoreRecord(KindEvent, ev.ID, w.ID, terms, []field{
				{"name", ev.Name, 4.0},
				{"description", ev.Description, 2.0},
			}); r != nil {
				r.Timestamp = ev.Timestamp
				results = append(results, r)
			}
		}

		actors, err := e.store.GetActors(w.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range actors {
			if r := scoreRecord(KindActor, a.ID, w.ID, terms, []field{
				{"name", a.Name, 4.0},
				{"title", a.Title, 2.5},
				{"description", a.Description, 1.5},
			}); r != nil {
				results = append(results, r)
			}
		}

		articles, err := e.store.GetArticles(w.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range articles {
			if r := scoreRecord(KindArticle, a.ID, w.ID, terms, []field{
				{"name", a.Name, 3.0},
				{"content", a.Content, 1.0},
			}); r != nil {
				results = append(results, r)
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

type field struct {
	name   string
	text   string
	weight float64
}

func scoreRecord(kind Kind, id, worldID string, terms []string, fields []field) *Result {
	var total float64
	var matches []Match
	for _, f := range fields {
		score := scoreField(f.text, terms, f.weight)
		if score <= 0 {
			continue
		}
		total += score
		matches = append(matches, Match{Field: f.name, Text: bestSnippet(f.text, terms, snippetLength), Weight: score})
	}
	if total == 0 {
		return nil
	}

	r := &Result{Kind: kind, ID: id, WorldID: worldID, Title: fields[0].text, Score: total, Matches: matches}
	// Prefer the matching body field, then any non-empty one.
	for _, m := range matches {
		if m.Field != fields[0].name {
			r.Snippet = m.Text
			return r
		}
	}
	for _, f := range fields[1:] {
		if f.text != "" {
			r.Snippet = truncate(f.text, snippetLength)
			break
		}
	}
	return r
}

// scoreField rewards whole-word hits over prefix hits over substring hits and
// normalises by field length so long articles do not dominate.
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}
	lower := strings.ToLower(text)

	var score float64
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 2.0
			matched++
		}
		for _, w := range words {
			switch {
			case w == term:
				score += 1.5
			case strings.HasPrefix(w, term):
				score += 1.0
			case strings.Contains(w, term):
				score += 0.5
			default:
				continue
			}
			matched++
		}
	}
	if matched == 0 {
		return 0
	}
	if len(terms) > 1 && matched > 1 {
		score *= 1.0 + float64(matched)/float64(len(terms))
	}
	tf := float64(matched) / float64(len(words))
	return score * (1.0 + math.Log1p(tf)) * weight
}

// bestSnippet returns the window of text that contains the most terms.
func bestSnippet(text string, terms []string, maxLen int) string {
	words := strings.Fields(text)
	window := maxLen / 8
	if window <= 0 || len(words) <= window {
		return truncate(strings.Join(words, " "), maxLen)
	}

	bestStart, bestScore := 0, 0
	for i := 0; i+window <= len(words); i++ {
		chunk := strings.ToLower(strings.Join(words[i:i+window], " "))
		score := 0
		for _, t := range terms {
			if strings.Contains(chunk, t) {
				score++
			}
		}
		if score > bestScore {
			bestStart, bestScore = i, score
		}
	}
	return truncate(strings.Join(words[bestStart:bestStart+window], " "), maxLen)
}

func queryTerms(query string) []string {
	if len(strings.TrimSpace(query)) < minQueryLength {
		return nil
	}
	return tokenize(query)
}

// tokenize lowercases text and splits it on anything that is not a letter or
// digit. Single characters are dropped.
func tokenize(text string) []string {
	var terms []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 1 {
			terms = append(terms, cur.String())
		}
		cur.Reset()
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			cur.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return terms
}

func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}
