package workers

import (
	"context"
	"time"

	"github.com/Guyuepp/go-comment-engine/domain"
	"github.com/Guyuepp/go-comment-engine/internal/repository"
	"github.com/sirupsen/logrus"
)

type invalidateCacheWorker struct {
	cache repository.ListCache
	ch    chan string
}

var _ domain.CacheInvalidator = (*invalidateCacheWorker)(nil)

// NewInvalidateCacheWorker batches page invalidations coming off the write
// path so a burst of comments on one page costs a single cache drop.
func NewInvalidateCacheWorker(cache repository.ListCache) *invalidateCacheWorker {
	return &invalidateCacheWorker{
		cache: cache,
		ch:    make(chan string, 1024),
	}
}

// Send enqueues a page for invalidation. Never blocks the write path.
func (w *invalidateCacheWorker) Send(page string) {
	select {
	case w.ch <- page:
	default:
		logrus.Info("invalidateCacheWorker's channel is full, task dropped")
	}
}

func (w *invalidateCacheWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	const batchSize = 100
	batch := make([]string, 0, batchSize)
	for {
		select {
		case page := <-w.ch:
			batch = append(batch, page)
			if len(batch) == batchSize {
				w.flush(batch)
				batch = make([]string, 0, batchSize)
			}
		case <-ticker.C:
			w.flush(batch)
			batch = make([]string, 0, batchSize)
		case <-ctx.Done():
			logrus.Info("shutting down invalidateCacheWorker, flushing remaining tasks...")
			w.flush(batch)
			return
		}
	}
}

func (w *invalidateCacheWorker) flush(batch []string) {
	if len(batch) == 0 {
		return
	}
	pages := make(map[string]struct{}, len(batch))
	for _, page := range batch {
		pages[page] = struct{}{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for page := range pages {
		if err := w.cache.DeletePage(ctx, page); err != nil {
			logrus.Errorf("failed to invalidate cached listings of page %s: %v", page, err)
		}
	}
}
