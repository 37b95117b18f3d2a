// Package thumbnail implements the asynchronous worker that derives
// resized image variants for uploaded images.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/nfnt/resize"

	"github.com/vaultfs/filevault/pkg/filevault"
)

// dequeueRetryDelay paces reconnect attempts after a dequeue failure.
const dequeueRetryDelay = time.Second

// Worker consumes thumbnail jobs from a queue and produces the fixed
// variant widths for each image. Processing one job is idempotent: a
// redelivered job recomputes and overwrites the same variant paths.
type Worker struct {
	repository filevault.Repository
	blobStore  filevault.BlobStore
	queue      filevault.Queue
	eventSink  filevault.EventSink
	logger     *slog.Logger
	workers    int
}

// Config options for the worker pool.
type Config struct {
	Repository filevault.Repository
	BlobStore  filevault.BlobStore
	Queue      filevault.Queue
	EventSink  filevault.EventSink
	Logger     *slog.Logger
	Workers    int
}

// New creates a worker pool. Repository, blob store and queue are
// required.
func New(config Config) (*Worker, error) {
	if config.Repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if config.BlobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if config.Queue == nil {
		return nil, fmt.Errorf("queue is required")
	}
	if config.Workers <= 0 {
		config.Workers = 2
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Worker{
		repository: config.Repository,
		blobStore:  config.BlobStore,
		queue:      config.Queue,
		eventSink:  config.EventSink,
		logger:     config.Logger,
		workers:    config.Workers,
	}, nil
}

// Run consumes jobs until ctx is done. A job that has started runs to
// completion or failure; there is no mid-job cancellation.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.consume(ctx)
		}()
	}
	wg.Wait()
}

func (w *Worker) consume(ctx context.Context) {
	for {
		delivery, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Transient backend failure (e.g. a dropped redis
			// connection) must not kill the consumer.
			w.logger.Error("failed to dequeue job, retrying", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(dequeueRetryDelay):
			}
			continue
		}

		if err := w.Process(context.Background(), delivery.Job); err != nil {
			delivery.Fail(err)
			continue
		}
		delivery.Ack()
	}
}

// Process runs one job: queued -> processing -> done|failed. All three
// variants succeed or the job fails; variants already flushed stay in
// place and are overwritten on redelivery.
func (w *Worker) Process(ctx context.Context, job filevault.Job) error {
	if job.FileID.IsRoot() {
		return &filevault.JobError{Job: job, Reason: "missing fileId"}
	}
	if job.OwnerID.IsRoot() {
		return &filevault.JobError{Job: job, Reason: "missing userId"}
	}

	entry, err := w.repository.GetOwnedEntry(ctx, job.FileID, job.OwnerID)
	if err != nil {
		if errors.Is(err, filevault.ErrEntryNotFound) {
			return &filevault.JobError{Job: job, Reason: "file not found"}
		}
		return err
	}
	if !entry.Kind.HasContent() {
		return &filevault.JobError{Job: job, Reason: "entry has no content"}
	}

	img, format, err := w.loadImage(ctx, entry.Path)
	if err != nil {
		return err
	}

	for _, width := range filevault.ThumbnailWidths {
		if err := w.generateVariant(ctx, entry, img, format, width); err != nil {
			return err
		}
	}

	w.logger.Info("thumbnails generated", "file_id", entry.ID, "path", entry.Path)
	return nil
}

func (w *Worker) loadImage(ctx context.Context, path string) (image.Image, string, error) {
	rc, err := w.blobStore.Read(ctx, path)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()

	img, format, err := image.Decode(rc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image at %s: %w", path, err)
	}
	return img, format, nil
}

func (w *Worker) generateVariant(ctx context.Context, entry *filevault.FileEntry, img image.Image, format string, width int) error {
	scaled := resize.Resize(uint(width), 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := encode(&buf, scaled, format); err != nil {
		return fmt.Errorf("failed to encode %dpx variant: %w", width, err)
	}

	path, err := w.blobStore.WriteVariant(ctx, entry.Path, width, &buf)
	if err != nil {
		return err
	}

	if err := w.repository.SetVariant(ctx, entry.ID, width, path); err != nil {
		return err
	}

	if w.eventSink != nil {
		if err := w.eventSink.VariantRecorded(ctx, entry, width, path); err != nil {
			w.logger.Error("variant recorded event failed", "entry_id", entry.ID, "error", err)
		}
	}
	return nil
}

// encode writes the image back in its original format so a variant path
// stays servable under the parent's content type.
func encode(dst io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(dst, img)
	case "gif":
		return gif.Encode(dst, img, nil)
	default:
		return jpeg.Encode(dst, img, &jpeg.Options{Quality: 90})
	}
}
