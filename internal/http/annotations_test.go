package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ndemidov/liber/internal/entities"
)

type mockBookReader struct {
	books map[uint]*entities.Book
}

func (m *mockBookReader) GetForUser(id, userID uint) (*entities.Book, error) {
	if book, ok := m.books[id]; ok {
		return book, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookReader) ListForUser(userID uint) ([]entities.Book, error) { return nil, nil }
func (m *mockBookReader) CountForUser(userID uint) (int64, error)          { return 0, nil }

type mockAnnotationStore struct {
	created *entities.Highlight
}

func (m *mockAnnotationStore) CreateHighlight(h *entities.Highlight) error {
	h.ID = 1
	m.created = h
	return nil
}

func (m *mockAnnotationStore) GetHighlightForUser(id, userID uint) (*entities.Highlight, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAnnotationStore) ListHighlightsForBook(bookID, userID uint) ([]entities.Highlight, error) {
	return nil, nil
}

func (m *mockAnnotationStore) UpdateHighlight(id, userID uint, color, note string) (*entities.Highlight, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAnnotationStore) DeleteHighlight(id, userID uint) error { return gorm.ErrRecordNotFound }

func (m *mockAnnotationStore) CreateBookmark(b *entities.Bookmark) error { return nil }

func (m *mockAnnotationStore) GetBookmarkForUser(id, userID uint) (*entities.Bookmark, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAnnotationStore) ListBookmarksForBook(bookID, userID uint) ([]entities.Bookmark, error) {
	return nil, nil
}

func (m *mockAnnotationStore) UpdateBookmarkLabel(id, userID uint, label string) (*entities.Bookmark, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAnnotationStore) DeleteBookmark(id, userID uint) error { return gorm.ErrRecordNotFound }

func newAnnotationsRouter(store *mockAnnotationStore, reader *mockBookReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := NewAnnotationsController(store, reader)

	router := gin.New()
	router.POST("/api/highlights", controller.CreateHighlight)
	return router
}

func TestCreateHighlight_PDFAnchor(t *testing.T) {
	store := &mockAnnotationStore{}
	reader := &mockBookReader{books: map[uint]*entities.Book{
		1: {ID: 1, UserID: 0, Format: entities.FormatPDF},
	}}
	router := newAnnotationsRouter(store, reader)

	body := bytes.NewBufferString(`{
		"book_id": 1,
		"text": "quoted passage",
		"anchor": {
			"page": {
				"page_number": 5,
				"rects": [{"x": 100, "y": 200, "w": 300, "h": 20}],
				"bounding": {"x": 100, "y": 200, "w": 300, "h": 20}
			}
		}
	}`)
	req, _ := http.NewRequest("POST", "/api/highlights", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, store.created)
	assert.Equal(t, entities.FormatPDF, store.created.Format)
	assert.Contains(t, store.created.Anchor, `"page_number":5`)

	// Response echoes the decoded anchor
	var resp HighlightResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Anchor.Page)
	assert.Equal(t, 5, resp.Anchor.Page.PageNumber)
	require.Len(t, resp.Anchor.Page.Rects, 1)
	assert.Equal(t, 100.0, resp.Anchor.Page.Rects[0].X)
}

func TestCreateHighlight_MismatchedAnchorRejected(t *testing.T) {
	store := &mockAnnotationStore{}
	reader := &mockBookReader{books: map[uint]*entities.Book{
		1: {ID: 1, UserID: 0, Format: entities.FormatPDF},
	}}
	router := newAnnotationsRouter(store, reader)

	// Text payload against a pdf book
	body := bytes.NewBufferString(`{
		"book_id": 1,
		"text": "quoted passage",
		"anchor": {"text": {"section_index": 0, "position": {"start": 0, "end": 10}}}
	}`)
	req, _ := http.NewRequest("POST", "/api/highlights", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, store.created)
}

func TestCreateHighlight_UnknownBook(t *testing.T) {
	router := newAnnotationsRouter(&mockAnnotationStore{}, &mockBookReader{books: map[uint]*entities.Book{}})

	body := bytes.NewBufferString(`{"book_id": 42, "text": "orphan", "anchor": {"epub_cfi": "epubcfi(/6/4!/4/2)"}}`)
	req, _ := http.NewRequest("POST", "/api/highlights", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
