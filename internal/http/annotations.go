package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ndemidov/liber/internal/anchor"
	"github.com/ndemidov/liber/internal/entities"
)

// AnnotationsController serves highlights and bookmarks. Positions cross the
// wire as an AnchorPayload union; which member must be set follows from the
// owning book's format.
type AnnotationsController struct {
	store  AnnotationStore
	reader BookReader
}

func NewAnnotationsController(store AnnotationStore, reader BookReader) *AnnotationsController {
	return &AnnotationsController{
		store:  store,
		reader: reader,
	}
}

// AnchorPayload is the wire form of a position: exactly one member set,
// matching the book's format.
type AnchorPayload struct {
	EpubCFI string              `json:"epub_cfi,omitempty"`
	Page    *anchor.PagePayload `json:"page,omitempty"`
	Text    *anchor.TextPayload `json:"text,omitempty"`
}

// toAnchor shapes the payload into an anchor for the given format.
func (p AnchorPayload) toAnchor(format entities.BookFormat) anchor.Anchor {
	return anchor.Anchor{
		Format:  format,
		EpubCFI: p.EpubCFI,
		Page:    p.Page,
		Text:    p.Text,
	}
}

// payloadFrom decodes a stored anchor string back into its wire form.
// Decoding never fails; a corrupt stored anchor degrades to the format's
// default position.
func payloadFrom(raw string, format entities.BookFormat) AnchorPayload {
	a := anchor.Decode(raw, format)
	return AnchorPayload{
		EpubCFI: a.EpubCFI,
		Page:    a.Page,
		Text:    a.Text,
	}
}

type HighlightResponse struct {
	ID        uint                `json:"id"`
	BookID    uint                `json:"book_id"`
	Text      string              `json:"text"`
	Note      string              `json:"note,omitempty"`
	Color     string              `json:"color,omitempty"`
	Format    entities.BookFormat `json:"format"`
	Anchor    AnchorPayload       `json:"anchor"`
	CreatedAt time.Time           `json:"created_at"`
}

func highlightResponse(h entities.Highlight) HighlightResponse {
	return HighlightResponse{
		ID:        h.ID,
		BookID:    h.BookID,
		Text:      h.Text,
		Note:      h.Note,
		Color:     h.Color,
		Format:    h.Format,
		Anchor:    payloadFrom(h.Anchor, h.Format),
		CreatedAt: h.CreatedAt,
	}
}

type BookmarkResponse struct {
	ID        uint                `json:"id"`
	BookID    uint                `json:"book_id"`
	Label     string              `json:"label,omitempty"`
	Format    entities.BookFormat `json:"format"`
	Anchor    AnchorPayload       `json:"anchor"`
	CreatedAt time.Time           `json:"created_at"`
}

func bookmarkResponse(b entities.Bookmark) BookmarkResponse {
	return BookmarkResponse{
		ID:        b.ID,
		BookID:    b.BookID,
		Label:     b.Label,
		Format:    b.Format,
		Anchor:    payloadFrom(b.Anchor, b.Format),
		CreatedAt: b.CreatedAt,
	}
}

// ownedBookAnchor resolves the book, checks ownership, and encodes the
// payload against the book's format. Responds on failure and reports ok.
func (controller *AnnotationsController) ownedBookAnchor(c *gin.Context, bookID uint, payload AnchorPayload) (*entities.Book, string, bool) {
	book, err := controller.reader.GetForUser(bookID, GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return nil, "", false
		}
		respondInternalError(c, err, "get book")
		return nil, "", false
	}

	encoded, err := anchor.Encode(payload.toAnchor(book.Format))
	if err != nil {
		respondBadRequest(c, "invalid anchor: "+err.Error())
		return nil, "", false
	}
	return book, encoded, true
}

type CreateHighlightRequest struct {
	BookID uint          `json:"book_id" binding:"required"`
	Text   string        `json:"text" binding:"required"`
	Note   string        `json:"note"`
	Color  string        `json:"color"`
	Anchor AnchorPayload `json:"anchor"`
}

func (controller *AnnotationsController) CreateHighlight(c *gin.Context) {
	var req CreateHighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	book, encoded, ok := controller.ownedBookAnchor(c, req.BookID, req.Anchor)
	if !ok {
		return
	}

	highlight := &entities.Highlight{
		BookID: book.ID,
		UserID: GetUserID(c),
		Text:   req.Text,
		Note:   req.Note,
		Color:  req.Color,
		Format: book.Format,
		Anchor: encoded,
	}
	if err := controller.store.CreateHighlight(highlight); err != nil {
		respondInternalError(c, err, "create highlight")
		return
	}

	respondCreated(c, highlightResponse(*highlight))
}

func (controller *AnnotationsController) GetHighlightsForBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	highlights, err := controller.store.ListHighlightsForBook(bookID, GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list highlights")
		return
	}

	responses := make([]HighlightResponse, 0, len(highlights))
	for _, h := range highlights {
		responses = append(responses, highlightResponse(h))
	}
	c.IndentedJSON(http.StatusOK, gin.H{"highlights": responses, "count": len(responses)})
}

type UpdateHighlightRequest struct {
	Color string `json:"color"`
	Note  string `json:"note"`
}

func (controller *AnnotationsController) UpdateHighlight(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateHighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	highlight, err := controller.store.UpdateHighlight(id, GetUserID(c), req.Color, req.Note)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "highlight")
			return
		}
		respondInternalError(c, err, "update highlight")
		return
	}

	c.IndentedJSON(http.StatusOK, highlightResponse(*highlight))
}

func (controller *AnnotationsController) DeleteHighlight(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.store.DeleteHighlight(id, GetUserID(c)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "highlight")
			return
		}
		respondInternalError(c, err, "delete highlight")
		return
	}

	respondSuccess(c, "highlight deleted")
}

type CreateBookmarkRequest struct {
	BookID uint          `json:"book_id" binding:"required"`
	Label  string        `json:"label"`
	Anchor AnchorPayload `json:"anchor"`
}

func (controller *AnnotationsController) CreateBookmark(c *gin.Context) {
	var req CreateBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	book, encoded, ok := controller.ownedBookAnchor(c, req.BookID, req.Anchor)
	if !ok {
		return
	}

	bookmark := &entities.Bookmark{
		BookID: book.ID,
		UserID: GetUserID(c),
		Label:  req.Label,
		Format: book.Format,
		Anchor: encoded,
	}
	if err := controller.store.CreateBookmark(bookmark); err != nil {
		respondInternalError(c, err, "create bookmark")
		return
	}

	respondCreated(c, bookmarkResponse(*bookmark))
}

func (controller *AnnotationsController) GetBookmarksForBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	bookmarks, err := controller.store.ListBookmarksForBook(bookID, GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list bookmarks")
		return
	}

	responses := make([]BookmarkResponse, 0, len(bookmarks))
	for _, b := range bookmarks {
		responses = append(responses, bookmarkResponse(b))
	}
	c.IndentedJSON(http.StatusOK, gin.H{"bookmarks": responses, "count": len(responses)})
}

type UpdateBookmarkRequest struct {
	Label string `json:"label"`
}

func (controller *AnnotationsController) UpdateBookmark(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	bookmark, err := controller.store.UpdateBookmarkLabel(id, GetUserID(c), req.Label)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "bookmark")
			return
		}
		respondInternalError(c, err, "update bookmark")
		return
	}

	c.IndentedJSON(http.StatusOK, bookmarkResponse(*bookmark))
}

func (controller *AnnotationsController) DeleteBookmark(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.store.DeleteBookmark(id, GetUserID(c)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "bookmark")
			return
		}
		respondInternalError(c, err, "delete bookmark")
		return
	}

	respondSuccess(c, "bookmark deleted")
}
