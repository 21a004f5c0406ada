package http

import (
	"github.com/ndemidov/liber/internal/auth"
	"github.com/ndemidov/liber/internal/database"
)

// RouterConfig carries every dependency the router wires into controllers.
type RouterConfig struct {
	Database *database.Database
	Version  string

	Users       auth.UserResolver
	BookReader  BookReader
	Library     Library
	Collections CollectionStore
	Annotations AnnotationStore

	// BulkConcurrency bounds bulk delete parallelism when a request does
	// not ask for a value. Zero falls back to the service default.
	BulkConcurrency int
}
