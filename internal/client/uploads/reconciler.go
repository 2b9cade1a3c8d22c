package uploads

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/marsha-uploader/internal/client/models"
	"github.com/dmitrijs2005/marsha-uploader/internal/client/store"
	"github.com/dmitrijs2005/marsha-uploader/internal/logging"
	"github.com/dmitrijs2005/marsha-uploader/internal/reporting"
)

const (
	DefaultPollInterval = 5 * time.Second

	eventBuffer = 64
)

// Reconciler folds upload outcomes back into the resource stores. It watches
// the Manager rather than being called by the Uploader: a successful upload
// gets its filename as title when it has none, and an upload that is still
// running has its resource polled so backend-side state changes show up
// locally.
type Reconciler struct {
	manager  *Manager
	registry *store.Registry
	api      API
	reporter reporting.Reporter
	logger   logging.Logger
	interval time.Duration

	mu      sync.Mutex
	pollers map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func NewReconciler(manager *Manager, registry *store.Registry, client API, reporter reporting.Reporter, logger logging.Logger, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Reconciler{
		manager:  manager,
		registry: registry,
		api:      client,
		reporter: reporter,
		logger:   logger,
		interval: interval,
		pollers:  make(map[string]context.CancelFunc),
	}
}

// Run handles manager events until ctx is cancelled, then stops every poller
// and returns ctx.Err().
func (r *Reconciler) Run(ctx context.Context) error {
	events, unsubscribe := r.subscribe(ctx)
	defer unsubscribe()

	r.loop(ctx, events, nil)
	return ctx.Err()
}

// Start subscribes before returning, so no event emitted after Start is
// missed, and handles events on a new goroutine. stop handles the events
// already queued, stops every poller and waits for the goroutine to exit.
func (r *Reconciler) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	events, unsubscribe := r.subscribe(ctx)

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.loop(ctx, events, quit)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			close(quit)
			<-done
			cancel()
		})
	}
}

func (r *Reconciler) subscribe(ctx context.Context) (<-chan Event, func()) {
	events := make(chan Event, eventBuffer)
	unsubscribe := r.manager.Subscribe(func(ev Event) {
		// Progress ticks carry nothing the reconciler acts on; queueing them
		// would stall the uploader behind the reconciler's API calls.
		if isProgressOnly(ev) {
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})
	return events, unsubscribe
}

func isProgressOnly(ev Event) bool {
	return !ev.Removed && ev.Previous == StatusUploading && ev.Entry.Status == StatusUploading
}

func (r *Reconciler) loop(ctx context.Context, events <-chan Event, quit <-chan struct{}) {
	defer r.stopPollers()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			r.handle(ctx, ev)
		case <-quit:
			for {
				select {
				case ev := <-events:
					r.handle(ctx, ev)
				default:
					return
				}
			}
		}
	}
}

func (r *Reconciler) handle(ctx context.Context, ev Event) {
	e := ev.Entry
	if ev.Removed {
		r.stopPoller(e.Ref.ID)
		return
	}

	switch e.Status {
	case StatusUploading:
		r.startPoller(ctx, e.Ref)
	case StatusSuccess:
		r.stopPoller(e.Ref.ID)
		if err := r.titleFromFilename(ctx, e); err != nil {
			r.report(ctx, err, e.Ref, "title")
		}
	default:
		r.stopPoller(e.Ref.ID)
	}
}

// Reconcile runs the reconciliation of one entry on demand: the title step
// for a successful upload, a single poll for a running one.
func (r *Reconciler) Reconcile(ctx context.Context, objectID string) error {
	e, ok := r.manager.Get(objectID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, objectID)
	}
	switch e.Status {
	case StatusSuccess:
		return r.titleFromFilename(ctx, e)
	case StatusUploading:
		return r.poll(ctx, e.Ref)
	}
	return nil
}

// titleFromFilename gives an untitled resource the uploaded filename as its
// title, on the backend first and then locally. A resource that already has
// a title is left alone, which makes repeated calls free.
func (r *Reconciler) titleFromFilename(ctx context.Context, e Entry) error {
	resources, err := r.registry.Store(e.Ref.Type)
	if err != nil {
		return err
	}

	res, ok := resources.Get(e.Ref.ID)
	if !ok {
		if res, err = r.api.GetResource(ctx, e.Ref); err != nil {
			return fmt.Errorf("fetch resource: %w", err)
		}
		resources.Add(res)
	}
	if res.Title != "" || e.File == nil || e.File.Name == "" {
		return nil
	}

	title := e.File.Name
	patched, err := r.api.PatchResource(ctx, e.Ref, map[string]any{"title": title})
	if err != nil {
		return fmt.Errorf("patch title: %w", err)
	}

	// The patch answer is canonical except for an upload state older than
	// the one already known.
	if patched.ID == res.ID {
		if !models.CanAdvance(res.UploadState, patched.UploadState) {
			patched.UploadState = res.UploadState
		}
		res = patched
	}
	if res.Title == "" {
		res.Title = title
	}
	resources.Add(res)
	r.logger.Info(ctx, "resource titled from filename", "object", e.Ref.String(), "title", title)
	return nil
}

func (r *Reconciler) startPoller(ctx context.Context, ref models.ObjectRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pollers[ref.ID]; ok {
		return
	}

	pctx, cancel := context.WithCancel(ctx)
	r.pollers[ref.ID] = cancel
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		t := time.NewTicker(r.interval)
		defer t.Stop()

		for {
			select {
			case <-pctx.Done():
				return
			case <-t.C:
				if err := r.poll(pctx, ref); err != nil && pctx.Err() == nil {
					r.report(pctx, err, ref, "poll")
				}
			}
		}
	}()
}

func (r *Reconciler) stopPoller(id string) {
	r.mu.Lock()
	cancel, ok := r.pollers[id]
	delete(r.pollers, id)
	r.mu.Unlock()

	if ok {
		cancel()
	}
}

func (r *Reconciler) stopPollers() {
	r.mu.Lock()
	for id, cancel := range r.pollers {
		cancel()
		delete(r.pollers, id)
	}
	r.mu.Unlock()

	r.wg.Wait()
}

// poll fetches ref and stores it when its upload state moves forward.
func (r *Reconciler) poll(ctx context.Context, ref models.ObjectRef) error {
	resources, err := r.registry.Store(ref.Type)
	if err != nil {
		return err
	}

	remote, err := r.api.GetResource(ctx, ref)
	if err != nil {
		return fmt.Errorf("poll resource: %w", err)
	}

	local, ok := resources.Get(ref.ID)
	if ok {
		if remote.UploadState == local.UploadState {
			return nil
		}
		if !models.CanAdvance(local.UploadState, remote.UploadState) {
			r.logger.Debug(ctx, "ignoring regressing upload state", "object", ref.String(),
				"local", local.UploadState, "remote", remote.UploadState)
			return nil
		}
		if remote.Title == "" {
			remote.Title = local.Title
		}
	}
	if remote.ID == "" {
		remote.ID = ref.ID
	}
	resources.Add(remote)
	return nil
}

func (r *Reconciler) report(ctx context.Context, err error, ref models.ObjectRef, step string) {
	if errors.Is(err, context.Canceled) {
		return
	}
	r.reporter.Report(ctx, err, map[string]any{
		"object": ref.String(),
		"step":   step,
	})
}
