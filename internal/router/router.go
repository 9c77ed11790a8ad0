// Package router loads page fragments into the content region of a page
// shell and keeps navigation, download controls and the location fragment in
// step with the page being shown.
package router

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"finitefield.org/portfolio-web/internal/downloads"
	"finitefield.org/portfolio-web/internal/fragments"
	"finitefield.org/portfolio-web/internal/location"
	"finitefield.org/portfolio-web/internal/nav"
	"finitefield.org/portfolio-web/internal/routes"
	"finitefield.org/portfolio-web/internal/view"
)

var tracer = otel.Tracer("finitefield.org/portfolio-web/internal/router")

// Fetcher loads a single fragment.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (fragments.Fragment, error)
}

// State is the loading state of the router.
type State int

const (
	Idle State = iota
	Loading
)

func (s State) String() string {
	if s == Loading {
		return "loading"
	}
	return "idle"
}

// Router is the content router. Navigations are serialised by generation:
// starting a navigation cancels the one in flight and any view write from a
// superseded navigation is dropped.
type Router struct {
	table   routes.Table
	fetcher Fetcher
	view    view.View
	loc     location.Location
	logger  *zap.Logger
	newID   func() string

	mu          sync.Mutex
	gen         uint64
	cancel      context.CancelFunc
	current     routes.PageID
	shown       bool
	state       State
	baseCtx     context.Context
	unsubscribe func()

	// fragment being written by syncLocation; its notification is ours
	selfWrite atomic.Pointer[string]
}

// Option customises a Router.
type Option func(*Router)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithIDGenerator replaces the navigation id generator.
func WithIDGenerator(fn func() string) Option {
	return func(r *Router) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// New wires a router. The route table is copied by value and never changes.
func New(table routes.Table, fetcher Fetcher, v view.View, loc location.Location, opts ...Option) *Router {
	r := &Router{
		table:   table,
		fetcher: fetcher,
		view:    v,
		loc:     loc,
		logger:  zap.NewNop(),
		newID:   func() string { return ulid.Make().String() },
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start subscribes to location changes and shows the page named by the
// current fragment, or home when it names no page.
func (r *Router) Start(ctx context.Context) {
	r.mu.Lock()
	r.baseCtx = ctx
	if r.unsubscribe == nil {
		r.unsubscribe = r.loc.Subscribe(func(fragment string) {
			if w := r.selfWrite.Load(); w != nil && *w == location.Clean(fragment) {
				return
			}
			r.HandleFragmentChange(r.context(), fragment)
		})
	}
	r.mu.Unlock()

	if id, ok := r.fragmentTarget(r.loc.Fragment()); ok {
		r.Navigate(ctx, string(id))
	}
}

// Close stops listening to the location and cancels the navigation in flight.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// HandleFragmentChange reacts to a change of the location fragment.
func (r *Router) HandleFragmentChange(ctx context.Context, fragment string) {
	id, ok := r.fragmentTarget(fragment)
	if !ok {
		r.logger.Debug("ignoring fragment change", zap.String("fragment", fragment))
		return
	}
	r.mu.Lock()
	same := r.shown && r.current == id
	r.mu.Unlock()
	if same {
		return
	}
	r.Navigate(ctx, string(id))
}

// fragmentTarget decides which page a fragment leads to. A fragment naming a
// routed page leads to that page. Any other fragment leaves the current view
// alone, unless nothing has been shown yet, in which case it leads home.
func (r *Router) fragmentTarget(fragment string) (routes.PageID, bool) {
	id := routes.PageID(location.Clean(fragment))
	if r.table.Known(id) {
		return id, true
	}
	r.mu.Lock()
	shown := r.shown
	r.mu.Unlock()
	if shown {
		return "", false
	}
	return routes.Home, true
}

// Current returns the page most recently navigated to.
func (r *Router) Current() routes.PageID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// State reports whether the latest navigation is still loading.
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Navigate shows page. Unknown pages show home. Load failures are logged and
// rendered as an error block; they are never returned.
func (r *Router) Navigate(ctx context.Context, page string) {
	id, paths := r.table.Resolve(routes.PageID(page))
	navID := r.newID()

	ctx, span := tracer.Start(ctx, "router.navigate")
	defer span.End()
	span.SetAttributes(
		attribute.String("page.requested", page),
		attribute.String("page.resolved", string(id)),
		attribute.String("navigation.id", navID),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	gen := r.gen
	r.cancel = cancel
	r.current = id
	r.shown = true
	r.state = Loading
	r.view.ResetContent()
	r.mu.Unlock()

	logger := r.logger.With(
		zap.String("navigation_id", navID),
		zap.String("page", page),
		zap.String("resolved", string(id)),
	)
	logger.Debug("navigation started", zap.Strings("fragments", paths))
	start := time.Now()

	var loadErr error
	for _, p := range paths {
		frag, err := r.fetcher.Fetch(ctx, p)
		if err != nil {
			loadErr = err
			break
		}
		if !r.write(gen, func() { r.view.AppendFragment(frag) }) {
			logger.Debug("navigation superseded")
			return
		}
	}

	var ok bool
	if loadErr != nil {
		ok = r.write(gen, func() { r.view.ShowError(view.ErrorMessage) })
		if ok {
			logger.Error("page load failed", zap.Error(loadErr), zap.Duration("elapsed", time.Since(start)))
			span.RecordError(loadErr)
			span.SetStatus(codes.Error, "page load failed")
		}
	} else {
		ok = r.write(gen, func() {
			r.view.SetActiveNav(nav.Normalize(id))
			r.view.SetDownloads(downloads.For(id))
		})
	}
	if !ok || !r.finish(gen) {
		logger.Debug("navigation superseded")
		return
	}
	r.syncLocation(gen, locationTarget(page, id))
	if loadErr == nil {
		logger.Info("navigation completed", zap.Int("fragments", len(paths)), zap.Duration("elapsed", time.Since(start)))
	}
}

// write applies fn to the view if gen is still the current navigation.
func (r *Router) write(gen uint64, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return false
	}
	fn()
	return true
}

func (r *Router) finish(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return false
	}
	r.state = Idle
	r.cancel = nil
	return true
}

// syncLocation writes target to the location unless it is already there.
// The write happens under the generation check, so a navigation superseded
// after it finished loading leaves the location to its successor.
func (r *Router) syncLocation(gen uint64, target string) {
	if location.Clean(r.loc.Fragment()) == target {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return
	}
	r.selfWrite.Store(&target)
	defer r.selfWrite.Store(nil)
	r.loc.SetFragment(target)
}

// locationTarget is the fragment a navigation leaves in the location: the
// requested page id, or the resolved one when none was given.
func locationTarget(page string, resolved routes.PageID) string {
	if p := location.Clean(page); p != "" {
		return p
	}
	return string(resolved)
}

func (r *Router) context() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.baseCtx
}
