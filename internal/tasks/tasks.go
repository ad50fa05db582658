// package tasks runs long operations over the stores: push-status polling and activity exports.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/shared"
	"golang.org/x/time/rate"
)

// PushRefresher fetches the server's view of a push. [store.Versions] implements it.
type PushRefresher interface {
	RefreshPushStatus(ctx context.Context, pushID models.ID) (*models.PushStatus, error)
}

// WatchOpts configures a [PushWatcher].
type WatchOpts struct {
	Interval time.Duration // Minimum time between polls; zero polls back to back
	MaxPolls int           // Polls before giving up (default: 150)
	Logger   *log.Logger
}

// PushWatcher polls a push until the approval workflow settles it.
type PushWatcher struct {
	versions PushRefresher
	interval time.Duration
	maxPolls int
	logger   *log.Logger
}

// NewPushWatcher creates a [PushWatcher] over versions.
func NewPushWatcher(versions PushRefresher, opts WatchOpts) *PushWatcher {
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = 150
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	return &PushWatcher{
		versions: versions,
		interval: opts.Interval,
		maxPolls: opts.MaxPolls,
		logger:   opts.Logger,
	}
}

// Watch refreshes pushID until it reaches a terminal state, the poll budget runs out or ctx ends.
//
// The last status seen is returned in every case. Running out of polls yields [shared.ErrPushPending];
// a failed refresh stops the watch with that error.
func (w *PushWatcher) Watch(ctx context.Context, pushID models.ID, progress chan<- ProgressUpdate) (*models.PushStatus, error) {
	if w.versions == nil {
		return nil, fmt.Errorf("%w: versions store not initialized", shared.ErrServiceUnavailable)
	}

	limit := rate.Inf
	if w.interval > 0 {
		limit = rate.Every(w.interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	var last *models.PushStatus
	for poll := 1; poll <= w.maxPolls; poll++ {
		if err := limiter.Wait(ctx); err != nil {
			return last, err
		}

		push, err := w.versions.RefreshPushStatus(ctx, pushID)
		if err != nil {
			return last, err
		}
		last = push
		w.logger.Debug("polled push", "push", pushID, "status", push.Status, "poll", poll)

		if push.Status.Terminal() {
			sendProgress(progress, settledUpdate(poll, w.maxPolls, push))
			return push, nil
		}
		sendProgress(progress, pollUpdate(poll, w.maxPolls, push))
	}

	return last, fmt.Errorf("%w: %s after %d polls", shared.ErrPushPending, pushID, w.maxPolls)
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
