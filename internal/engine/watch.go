package engine

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/flyberryhq/auditpipe/internal/logging"
	"github.com/flyberryhq/auditpipe/internal/spec"
)

// debounceWindow collapses bursts of filesystem events into one re-run.
const debounceWindow = 500 * time.Millisecond

// Watcher re-executes the pipeline when the spec, its declared inputs, or the
// project's blocks directory change. Only one run executes at any time; events
// arriving mid-run collapse into the next one.
type Watcher struct {
	runner   *Runner
	root     string
	specPath string
	opts     Options
	// interval > 0 selects the polling variant instead of filesystem
	// notifications.
	interval time.Duration
	log      logging.Logger
}

// NewWatcher wraps a Runner in a change-triggered loop.
func NewWatcher(runner *Runner, projectRoot, specPath string, opts Options, interval time.Duration, log logging.Logger) *Watcher {
	if log == nil {
		log = logging.NoOpLogger{}
	}
	return &Watcher{
		runner:   runner,
		root:     projectRoot,
		specPath: specPath,
		opts:     opts,
		interval: interval,
		log:      log,
	}
}

// Watch runs the pipeline once, then re-runs it on every detected change
// until the context is cancelled. Run failures do not stop the loop.
func (w *Watcher) Watch(ctx context.Context) error {
	w.execute(ctx)

	if w.interval > 0 {
		return w.poll(ctx)
	}
	return w.notify(ctx)
}

func (w *Watcher) execute(ctx context.Context) {
	if _, err := w.runner.Execute(ctx, w.specPath, w.opts); err != nil {
		w.log.Error(ctx, "watched run failed", "error", err)
	}
}

// watchPaths recomputes the observation set: the spec file, every declared
// input that exists, and the blocks directory when the project carries one.
func (w *Watcher) watchPaths() []string {
	paths := []string{w.absSpec()}

	if s, err := spec.Load(w.absSpec()); err == nil {
		for _, step := range s.Pipeline {
			for _, input := range step.Inputs {
				if spec.IsGlobPattern(input) {
					continue
				}
				p := input
				if !filepath.IsAbs(p) {
					p = filepath.Join(w.root, input)
				}
				if _, err := os.Stat(p); err == nil {
					paths = append(paths, p)
				}
			}
		}
	}

	blocksDir := filepath.Join(w.root, "blocks")
	if info, err := os.Stat(blocksDir); err == nil && info.IsDir() {
		paths = append(paths, blocksDir)
	}

	return paths
}

func (w *Watcher) absSpec() string {
	if filepath.IsAbs(w.specPath) {
		return w.specPath
	}
	return filepath.Join(w.root, w.specPath)
}

func (w *Watcher) notify(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := make(map[string]struct{})
	addTargets := func() {
		for _, path := range w.watchPaths() {
			for _, target := range expandWatchTargets(path) {
				if _, ok := watched[target]; ok {
					continue
				}
				if err := watcher.Add(target); err != nil {
					w.log.Warn(ctx, "cannot watch path", "path", target, "error", err)
					continue
				}
				watched[target] = struct{}{}
			}
		}
	}
	addTargets()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug(ctx, "change detected", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceWindow)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn(ctx, "watch error", "error", err)

		case <-timerC:
			timer = nil
			timerC = nil
			w.log.Info(ctx, "re-running pipeline")
			w.execute(ctx)
			// Inputs may have appeared or vanished; refresh the watch set.
			addTargets()
		}
	}
}

// poll is the snapshot variant: compare (path -> mtime) maps on an interval.
func (w *Watcher) poll(ctx context.Context) error {
	previous := w.snapshot()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			current := w.snapshot()
			if !sameSnapshot(previous, current) {
				previous = current
				w.log.Info(ctx, "change detected, re-running pipeline")
				w.execute(ctx)
				// Re-snapshot so files produced by the run itself do not
				// trigger an immediate second pass.
				previous = w.snapshot()
			}
		}
	}
}

func (w *Watcher) snapshot() map[string]time.Time {
	snap := make(map[string]time.Time)
	for _, path := range w.watchPaths() {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			snap[path] = info.ModTime()
			continue
		}
		_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if fi, err := d.Info(); err == nil {
				snap[p] = fi.ModTime()
			}
			return nil
		})
	}
	return snap
}

func sameSnapshot(a, b map[string]time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for path, mtime := range a {
		other, ok := b[path]
		if !ok || !other.Equal(mtime) {
			return false
		}
	}
	return true
}

// expandWatchTargets maps a path onto what fsnotify should observe: files are
// watched via their parent directory, directories recursively.
func expandWatchTargets(path string) []string {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		return []string{filepath.Dir(path)}
	}

	var dirs []string
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, p)
		}
		return nil
	})
	return dirs
}
