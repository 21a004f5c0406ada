package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/ndemidov/liber/internal/storage"
)

// CleanupAssetsTask deletes a removed book's binary assets from the object
// store after the database delete has committed. The queue retries on
// failure; the caller that enqueued it has long since returned.
type CleanupAssetsTask struct {
	Keys []string `json:"keys"`
}

// Config returns the queue configuration for asset cleanup tasks.
func (t CleanupAssetsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_assets",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupAssetsProcessor creates a processor function for CleanupAssetsTask.
// Keys that fail keep the task alive for a retry; already-deleted keys are
// silently fine because the store treats them as success.
func CleanupAssetsProcessor(store storage.Client) backlite.QueueProcessor[CleanupAssetsTask] {
	return func(ctx context.Context, task CleanupAssetsTask) error {
		if store == nil {
			return fmt.Errorf("object store client not configured")
		}

		var failed int
		for _, key := range task.Keys {
			if err := store.DeleteAsset(ctx, key); err != nil {
				log.Printf("[TASK ERROR] Asset cleanup failed for %s: %v", key, err)
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("cleanup failed for %d of %d assets", failed, len(task.Keys))
		}

		log.Printf("[TASK] Cleaned up %d asset(s)", len(task.Keys))
		return nil
	}
}

// NewCleanupAssetsQueue creates a backlite queue for asset cleanup tasks.
func NewCleanupAssetsQueue(store storage.Client) backlite.Queue {
	return backlite.NewQueue(CleanupAssetsProcessor(store))
}

// Dispatcher enqueues cleanup work without awaiting its outcome, satisfying
// the service layer's CleanupDispatcher.
type Dispatcher struct {
	client *Client
}

// NewDispatcher wraps a task client for use by the consistency engine.
func NewDispatcher(client *Client) *Dispatcher {
	return &Dispatcher{client: client}
}

// DispatchAssetCleanup enqueues deletion of the given object-store keys.
// Enqueue failures are logged with the keys so they are never silently
// lost, but they do not propagate: the database delete already committed.
func (d *Dispatcher) DispatchAssetCleanup(keys []string) {
	if len(keys) == 0 {
		return
	}
	if _, err := d.client.Add(CleanupAssetsTask{Keys: keys}).Save(); err != nil {
		log.Printf("WARNING: failed to enqueue asset cleanup for %v: %v", keys, err)
	}
}
