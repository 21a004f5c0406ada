package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ndemidov/liber/internal/services"
)

type BooksController struct {
	reader          BookReader
	library         Library
	bulkConcurrency int
}

func NewBooksController(reader BookReader, library Library, bulkConcurrency int) *BooksController {
	if bulkConcurrency < 1 {
		bulkConcurrency = services.DefaultBulkConcurrency
	}
	return &BooksController{
		reader:          reader,
		library:         library,
		bulkConcurrency: bulkConcurrency,
	}
}

func (controller *BooksController) GetAllBooks(c *gin.Context) {
	books, err := controller.reader.ListForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

func (controller *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.reader.GetForUser(id, GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	c.IndentedJSON(http.StatusOK, book)
}

// UpdateBookRequest carries the updatable metadata fields. Absent fields are
// left unchanged.
type UpdateBookRequest struct {
	Title    *string  `json:"title"`
	Author   *string  `json:"author"`
	Progress *float64 `json:"progress"`
}

func (controller *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	patch := services.BookPatch{
		Title:    req.Title,
		Author:   req.Author,
		Progress: req.Progress,
	}
	if err := controller.library.UpdateBook(c.Request.Context(), id, GetUserID(c), patch); err != nil {
		respondServiceError(c, err, "book")
		return
	}

	respondSuccess(c, "book updated")
}

func (controller *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.library.DeleteBook(c.Request.Context(), id, GetUserID(c)); err != nil {
		respondServiceError(c, err, "book")
		return
	}

	respondSuccess(c, "book deleted")
}

// BulkDeleteRequest names the books to delete. Concurrency is optional and
// is clamped server-side.
type BulkDeleteRequest struct {
	IDs         []uint `json:"ids" binding:"required"`
	Concurrency int    `json:"concurrency"`
}

// BulkDeleteResponse reports per-item outcomes. Deletes run concurrently,
// so neither list preserves request order.
type BulkDeleteResponse struct {
	SucceededCount int                    `json:"succeeded_count"`
	FailedCount    int                    `json:"failed_count"`
	Succeeded      []uint                 `json:"succeeded"`
	Failures       []services.BulkFailure `json:"failures,omitempty"`
}

func (controller *BooksController) BulkDeleteBooks(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		respondBadRequest(c, "ids must not be empty")
		return
	}

	limit := req.Concurrency
	if limit < 1 {
		limit = controller.bulkConcurrency
	}

	result := controller.library.BulkDeleteBooks(c.Request.Context(), req.IDs, GetUserID(c), limit)

	c.IndentedJSON(http.StatusOK, BulkDeleteResponse{
		SucceededCount: len(result.Succeeded),
		FailedCount:    len(result.Failed),
		Succeeded:      result.Succeeded,
		Failures:       result.Failed,
	})
}

func (controller *BooksController) GetAccessURL(c *gin.Context) {
	controller.grantURL(c, controller.library.GetAccessURL)
}

func (controller *BooksController) GetCoverURL(c *gin.Context) {
	controller.grantURL(c, controller.library.GetCoverURL)
}

type grantFunc func(ctx context.Context, bookID, ownerID uint, ttl time.Duration) (*services.AccessGrant, error)

// grantURL serves both the file and cover URL endpoints. An optional
// ttl query parameter asks for a lifetime in seconds; the service clamps it.
func (controller *BooksController) grantURL(c *gin.Context, issue grantFunc) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var ttl time.Duration
	if raw := c.Query("ttl"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds < 1 {
			respondBadRequest(c, "ttl must be a positive number of seconds")
			return
		}
		ttl = time.Duration(seconds) * time.Second
	}

	grant, err := issue(c.Request.Context(), id, GetUserID(c), ttl)
	if err != nil {
		respondServiceError(c, err, "book")
		return
	}

	c.IndentedJSON(http.StatusOK, grant)
}
