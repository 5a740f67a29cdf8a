// Package bookmarksync keeps a local table of venues and their saved flags in
// step with the remote bookmark store, using optimistic updates.
//
// Every venue lives exactly once in the table, keyed by ID. List views and the
// selected venue are lookups into that table, so a toggle or a rollback is
// visible to all of them at once.
//
// Remote calls for one ID are serialized, and each call pushes whatever the
// local flag says at the moment it runs. Only when the last toggle in flight
// settles does the flag fall back to the confirmed remote state, so a burst of
// toggles settles on the last one instead of on whichever response lands last.
package bookmarksync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/moroccoview/companion/internal/domain"
)

// Remote is the bookmark store the synchronizer mirrors.
// *client.Client satisfies it.
type Remote interface {
	Add(ctx context.Context, elementID string, typ domain.BookmarkType) error
	Remove(ctx context.Context, elementID string) error
	List(ctx context.Context) ([]domain.Bookmark, error)
}

type entry struct {
	venue     domain.Venue // venue.Saved is the local, possibly optimistic, flag
	confirmed bool         // last saved state acknowledged by the remote
	pending   int          // toggles started but not yet settled
	gen       uint64       // bumped whenever confirmed changes through a toggle
	lock      chan struct{}
}

// Synchronizer is safe for concurrent use.
type Synchronizer struct {
	remote Remote
	log    *slog.Logger

	mu       sync.Mutex
	entries  map[string]*entry
	order    []string
	selected string
	lastErr  string
}

// New constructs a Synchronizer over remote. A nil logger means slog.Default().
func New(remote Remote, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.Default()
	}
	return &Synchronizer{
		remote:  remote,
		log:     log,
		entries: make(map[string]*entry),
	}
}

// Load replaces the table with venues, whose Saved flags are taken as the
// confirmed remote state. Venues with a toggle in flight keep their local
// flag; their metadata is still refreshed.
func (s *Synchronizer) Load(venues []domain.Venue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]*entry, len(venues))
	order := make([]string, 0, len(venues))
	for _, v := range venues {
		if _, dup := next[v.ID]; dup {
			continue
		}
		e, ok := s.entries[v.ID]
		if !ok {
			e = &entry{lock: make(chan struct{}, 1)}
		}
		if e.pending > 0 {
			v.Saved = e.venue.Saved
		} else {
			e.confirmed = v.Saved
		}
		e.venue = v
		next[v.ID] = e
		order = append(order, v.ID)
	}
	s.entries = next
	s.order = order
	if _, ok := next[s.selected]; !ok {
		s.selected = ""
	}
}

// Refresh reads the remote bookmark list and resets every settled venue's
// flag to match it. Venues whose confirmed state moved while the list was in
// flight keep that newer state.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	gens := make(map[*entry]uint64, len(s.entries))
	for _, e := range s.entries {
		gens[e] = e.gen
	}
	s.mu.Unlock()

	bookmarks, err := s.remote.List(ctx)
	if err != nil {
		s.setError("Could not load your bookmarks. Pull to retry.")
		return fmt.Errorf("bookmarksync.Refresh: %w", err)
	}
	saved := make(map[string]bool, len(bookmarks))
	for _, b := range bookmarks {
		saved[b.ID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if gen, seen := gens[e]; !seen || gen != e.gen || e.pending > 0 {
			continue
		}
		e.confirmed = saved[id]
		e.venue.Saved = saved[id]
	}
	return nil
}

// Get returns the current local view of one venue.
func (s *Synchronizer) Get(id string) (domain.Venue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return domain.Venue{}, false
	}
	return e.venue, true
}

// List returns the venues of one kind in load order; an empty kind lists everything.
func (s *Synchronizer) List(kind domain.VenueKind) []domain.Venue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Venue{}
	for _, id := range s.order {
		v := s.entries[id].venue
		if kind == "" || v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

// Select marks one venue as the currently selected one.
func (s *Synchronizer) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("bookmarksync.Select: venue %q: %w", id, domain.ErrNotFound)
	}
	s.selected = id
	return nil
}

// Selected returns the currently selected venue, read from the table.
func (s *Synchronizer) Selected() (domain.Venue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[s.selected]
	if !ok {
		return domain.Venue{}, false
	}
	return e.venue, true
}

// LastError returns the most recent human-readable failure, or "".
func (s *Synchronizer) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearError resets LastError.
func (s *Synchronizer) ClearError() {
	s.setError("")
}

func (s *Synchronizer) setError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

// Toggle flips the saved flag of one venue immediately, then brings the
// remote store in line: remove when it was saved, add {id, type} otherwise.
// The call reads the venue's current local flag once it holds the venue's
// lock, so it always pushes the newest intent, and sends nothing when that
// intent already matches the confirmed remote state.
//
// When the last toggle of a venue in flight settles, the local flag snaps to
// the confirmed remote state: a failed request rolls the flip back, a
// successful one leaves it standing. A remove the remote answers with
// domain.ErrNotFound counts as success. Failures record a message for LastError.
// Toggle returns the venue's local flag once this call has settled.
//
// Unknown IDs return domain.ErrNotFound and venues that cannot be
// bookmarked return domain.ErrValidation; neither changes any state.
func (s *Synchronizer) Toggle(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("bookmarksync.Toggle: venue %q: %w", id, domain.ErrNotFound)
	}
	typ, ok := domain.BookmarkTypeFor(e.venue.Kind)
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("bookmarksync.Toggle: %w: %s venues cannot be bookmarked", domain.ErrValidation, e.venue.Kind)
	}
	e.venue.Saved = !e.venue.Saved
	e.pending++
	title := e.venue.Title
	s.mu.Unlock()

	select {
	case e.lock <- struct{}{}:
	case <-ctx.Done():
		return s.settle(e), fmt.Errorf("bookmarksync.Toggle: %w", ctx.Err())
	}
	defer func() { <-e.lock }()

	s.mu.Lock()
	want, have := e.venue.Saved, e.confirmed
	s.mu.Unlock()
	if want == have {
		return s.settle(e), nil
	}

	var err error
	if want {
		err = s.remote.Add(ctx, id, typ)
	} else {
		err = s.remote.Remove(ctx, id)
	}

	// Removing a bookmark the remote no longer has leaves it in the state we wanted.
	if !want && errors.Is(err, domain.ErrNotFound) {
		err = nil
	}

	s.mu.Lock()
	switch {
	case err == nil:
		e.confirmed = want
		e.gen++
	case want:
		s.lastErr = fmt.Sprintf("Could not save %s. Please try again.", title)
	default:
		s.lastErr = fmt.Sprintf("Could not remove %s from your bookmarks. Please try again.", title)
	}
	s.mu.Unlock()

	saved := s.settle(e)
	if err != nil {
		s.log.WarnContext(ctx, "bookmark toggle failed",
			"venue_id", id, "type", typ, "wanted_saved", want, "saved", saved, "error", err)
		return saved, fmt.Errorf("bookmarksync.Toggle: %w", err)
	}
	return saved, nil
}

// settle marks one toggle of e as finished. When no other toggle of e is in
// flight, the local flag is reset to the confirmed remote state.
func (s *Synchronizer) settle(e *entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.pending--
	if e.pending == 0 {
		e.venue.Saved = e.confirmed
	}
	return e.venue.Saved
}
