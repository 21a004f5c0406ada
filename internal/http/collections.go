package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CollectionsController struct {
	store CollectionStore
}

func NewCollectionsController(store CollectionStore) *CollectionsController {
	return &CollectionsController{store: store}
}

type CreateCollectionRequest struct {
	Name string `json:"name" binding:"required"`
}

func (controller *CollectionsController) CreateCollection(c *gin.Context) {
	var req CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondBadRequest(c, "name must not be empty")
		return
	}

	collection, err := controller.store.Create(name, GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "create collection")
		return
	}

	respondCreated(c, collection)
}

func (controller *CollectionsController) GetAllCollections(c *gin.Context) {
	collections, err := controller.store.ListForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list collections")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"collections": collections, "count": len(collections)})
}

func (controller *CollectionsController) GetCollection(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	collection, err := controller.store.GetForUser(id, GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "collection")
			return
		}
		respondInternalError(c, err, "get collection")
		return
	}

	c.IndentedJSON(http.StatusOK, collection)
}

func (controller *CollectionsController) DeleteCollection(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.store.Delete(id, GetUserID(c)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "collection")
			return
		}
		respondInternalError(c, err, "delete collection")
		return
	}

	respondSuccess(c, "collection deleted")
}

func (controller *CollectionsController) AddBook(c *gin.Context) {
	collectionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	bookID, ok := parseIDParam(c, "bookID")
	if !ok {
		return
	}

	if err := controller.store.AddBook(collectionID, bookID, GetUserID(c)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "collection or book")
			return
		}
		respondInternalError(c, err, "add book to collection")
		return
	}

	respondSuccess(c, "book added to collection")
}

func (controller *CollectionsController) RemoveBook(c *gin.Context) {
	collectionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	bookID, ok := parseIDParam(c, "bookID")
	if !ok {
		return
	}

	if err := controller.store.RemoveBook(collectionID, bookID, GetUserID(c)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "collection")
			return
		}
		respondInternalError(c, err, "remove book from collection")
		return
	}

	respondSuccess(c, "book removed from collection")
}
