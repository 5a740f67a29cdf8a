package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/moroccoview/companion/internal/domain"
)

// addBookmarkRequest mirrors the bookmark store's wire shape.
type addBookmarkRequest struct {
	ElementID string `json:"elementId" validate:"required"`
	Type      string `json:"type" validate:"required"`
}

// ListBookmarks handles GET /bookmarks.
func (s *Server) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := s.bookmarks.List(r.Context())
	if err != nil {
		s.respondErr(w, r, err, "bookmark not found")
		return
	}
	writeJSON(w, http.StatusOK, bookmarks)
}

// AddBookmark handles POST /bookmarks. Saving an already-saved venue is not
// an error and returns the existing bookmark with 201.
func (s *Server) AddBookmark(w http.ResponseWriter, r *http.Request) {
	var req addBookmarkRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	b, err := s.bookmarks.Add(r.Context(), req.ElementID, domain.BookmarkType(req.Type))
	if err != nil {
		s.respondErr(w, r, err, "venue not found")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// RemoveBookmark handles DELETE /bookmarks/{id}, where id is the venue ID.
func (s *Server) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	if err := s.bookmarks.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondErr(w, r, err, "bookmark not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
