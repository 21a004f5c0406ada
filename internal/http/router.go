package http

import (
	"github.com/gin-gonic/gin"

	"github.com/ndemidov/liber/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Everything under /api requires a bearer token; /health and /ping stay
// public for load balancers.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")
	api.Use(auth.TokenMiddleware(cfg.Users))

	booksController := NewBooksController(cfg.BookReader, cfg.Library, cfg.BulkConcurrency)
	api.GET("/books", booksController.GetAllBooks)
	api.GET("/books/:id", booksController.GetBook)
	api.PATCH("/books/:id", booksController.UpdateBook)
	api.DELETE("/books/:id", booksController.DeleteBook)
	api.POST("/books/bulk-delete", booksController.BulkDeleteBooks)
	api.GET("/books/:id/url", booksController.GetAccessURL)
	api.GET("/books/:id/cover", booksController.GetCoverURL)

	collectionsController := NewCollectionsController(cfg.Collections)
	api.POST("/collections", collectionsController.CreateCollection)
	api.GET("/collections", collectionsController.GetAllCollections)
	api.GET("/collections/:id", collectionsController.GetCollection)
	api.DELETE("/collections/:id", collectionsController.DeleteCollection)
	api.PUT("/collections/:id/books/:bookID", collectionsController.AddBook)
	api.DELETE("/collections/:id/books/:bookID", collectionsController.RemoveBook)

	annotationsController := NewAnnotationsController(cfg.Annotations, cfg.BookReader)
	api.POST("/highlights", annotationsController.CreateHighlight)
	api.GET("/books/:id/highlights", annotationsController.GetHighlightsForBook)
	api.PATCH("/highlights/:id", annotationsController.UpdateHighlight)
	api.DELETE("/highlights/:id", annotationsController.DeleteHighlight)
	api.POST("/bookmarks", annotationsController.CreateBookmark)
	api.GET("/books/:id/bookmarks", annotationsController.GetBookmarksForBook)
	api.PATCH("/bookmarks/:id", annotationsController.UpdateBookmark)
	api.DELETE("/bookmarks/:id", annotationsController.DeleteBookmark)

	return router
}
