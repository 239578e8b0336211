package assets

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/parcel/engine/containers"
	"github.com/spaghettifunk/parcel/engine/core"
)

const defaultPendingEvents = 16

// SceneEvent reports a change of the watched scene file.
type SceneEvent struct {
	Path string
	Op   fsnotify.Op
	Time time.Time
}

// SceneWatcher watches a scene file for changes. Events are collected by a
// background goroutine and handed to the frame loop through Drain, so the
// render thread never blocks on the file system.
type SceneWatcher struct {
	path string

	mutex   sync.Mutex
	pending *containers.RingQueue[SceneEvent]
	dropped int

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

// NewSceneWatcher starts watching path. The directory is watched rather than
// the file so editors that replace the file on save are still noticed.
func NewSceneWatcher(path string, capacity int) (*SceneWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if capacity < 1 {
		capacity = defaultPendingEvents
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatch.Add(filepath.Dir(abs)); err != nil {
		fsWatch.Close()
		return nil, err
	}

	sw := &SceneWatcher{
		path:     abs,
		pending:  containers.NewRingQueue[SceneEvent](capacity),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		fsnotify: fsWatch,
	}
	go sw.start()

	core.LogDebug("Watching scene file '%s'.", abs)
	return sw, nil
}

func (sw *SceneWatcher) Path() string {
	return sw.path
}

func (sw *SceneWatcher) start() {
	defer close(sw.stopped)
	for {
		select {
		case e, ok := <-sw.fsnotify.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != sw.path {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				sw.push(SceneEvent{Path: sw.path, Op: e.Op, Time: time.Now()})
			}

		case e, ok := <-sw.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("Scene watcher: %s", e.Error())

		case <-sw.done:
			return
		}
	}
}

func (sw *SceneWatcher) push(event SceneEvent) {
	sw.mutex.Lock()
	defer sw.mutex.Unlock()

	if sw.pending.Overwrite(event) {
		sw.dropped++
	}
}

// Drain returns the pending events, oldest first, and empties the queue.
func (sw *SceneWatcher) Drain() []SceneEvent {
	sw.mutex.Lock()
	defer sw.mutex.Unlock()

	if sw.dropped > 0 {
		core.LogWarn("Scene watcher dropped %d events.", sw.dropped)
		sw.dropped = 0
	}
	events := make([]SceneEvent, 0, sw.pending.Len())
	for !sw.pending.IsEmpty() {
		e, _ := sw.pending.Dequeue()
		events = append(events, e)
	}
	return events
}

// Close stops the watcher and waits for its goroutine to exit.
func (sw *SceneWatcher) Close() error {
	sw.mutex.Lock()
	if sw.isClosed {
		sw.mutex.Unlock()
		return errors.New("scene watcher already closed")
	}
	sw.isClosed = true
	sw.mutex.Unlock()

	close(sw.done)
	err := sw.fsnotify.Close()
	<-sw.stopped
	return err
}
