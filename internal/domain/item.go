package domain

import (
	"fmt"
	"slices"
	"time"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// Item is one published video discovered on a channel during a poll.
type Item struct {
	ID          string
	Title       string
	PublishedAt time.Time
	SourceID    string
}

// URL returns the canonical watch link for the item.
func (i Item) URL() string {
	return watchURLPrefix + i.ID
}

// Dated reports whether the source supplied a usable publish timestamp.
func (i Item) Dated() bool {
	return !i.PublishedAt.IsZero()
}

// ArtifactKind enumerates the generated text sections.
type ArtifactKind string

const (
	ArtifactExecutive ArtifactKind = "executive"
	ArtifactDetailed  ArtifactKind = "detailed"
	ArtifactQuotes    ArtifactKind = "quotes"
)

// ArtifactKinds lists the sections in the order they are generated and rendered.
var ArtifactKinds = []ArtifactKind{ArtifactExecutive, ArtifactDetailed, ArtifactQuotes}

// Heading is the display title of the section.
func (k ArtifactKind) Heading() string {
	switch k {
	case ArtifactExecutive:
		return "Executive Summary"
	case ArtifactDetailed:
		return "Detailed Summary"
	case ArtifactQuotes:
		return "Key Quotes"
	default:
		return string(k)
	}
}

// Artifacts bundles the three generated sections for one item.
type Artifacts struct {
	Executive string
	Detailed  string
	Quotes    string
}

// Get returns the section text for kind.
func (a Artifacts) Get(kind ArtifactKind) string {
	switch kind {
	case ArtifactExecutive:
		return a.Executive
	case ArtifactDetailed:
		return a.Detailed
	case ArtifactQuotes:
		return a.Quotes
	default:
		return ""
	}
}

// With returns a copy of a with the section for kind replaced.
func (a Artifacts) With(kind ArtifactKind, text string) Artifacts {
	switch kind {
	case ArtifactExecutive:
		a.Executive = text
	case ArtifactDetailed:
		a.Detailed = text
	case ArtifactQuotes:
		a.Quotes = text
	}
	return a
}

// Complete reports whether all three sections are present.
func (a Artifacts) Complete() bool {
	return a.Executive != "" && a.Detailed != "" && a.Quotes != ""
}

// ItemDetails carries the per-item context shared by the artifact store and notifier.
type ItemDetails struct {
	Item        Item
	ChannelName string
	Duration    time.Duration // zero when the source could not report it
	ProcessedAt time.Time
	Artifacts   Artifacts
}

// FormatDuration renders d as H:MM:SS or MM:SS, or N/A when unknown.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "N/A"
	}
	total := int(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// ProcessedSet is the durable memory of item ids that must not be reprocessed.
type ProcessedSet struct {
	ids map[string]struct{}
}

// NewProcessedSet builds a set from ids, ignoring blanks.
func NewProcessedSet(ids ...string) ProcessedSet {
	set := ProcessedSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" {
			set.ids[id] = struct{}{}
		}
	}
	return set
}

// Has reports membership.
func (s ProcessedSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Add inserts id and reports whether the set changed.
func (s *ProcessedSet) Add(id string) bool {
	if id == "" || s.Has(id) {
		return false
	}
	if s.ids == nil {
		s.ids = map[string]struct{}{}
	}
	s.ids[id] = struct{}{}
	return true
}

// Remove deletes id and reports whether the set changed.
func (s *ProcessedSet) Remove(id string) bool {
	if !s.Has(id) {
		return false
	}
	delete(s.ids, id)
	return true
}

// Len returns the number of members.
func (s ProcessedSet) Len() int {
	return len(s.ids)
}

// IDs returns the members sorted so that persisted output is stable.
func (s ProcessedSet) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Clone returns an independent copy.
func (s ProcessedSet) Clone() ProcessedSet {
	return NewProcessedSet(s.IDs()...)
}
