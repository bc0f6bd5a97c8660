package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-slark/svcindex/encoding/json"
	"github.com/go-slark/svcindex/encoding/toml"
	"github.com/go-slark/svcindex/encoding/yaml"
	"github.com/go-slark/svcindex/logger"
	"github.com/go-slark/svcindex/pkg/routine"
)

// File is a config source backed by one json, yaml or toml file. Writes to
// the file are reported on Watch.
type File struct {
	path    string
	format  string
	notify  chan struct{}
	watcher *fsnotify.Watcher
	once    sync.Once
}

// NewFile starts watching the directory holding path. Watching is best
// effort: the file still loads when no watcher can be created.
func NewFile(path string) *File {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	f := &File{
		path:   path,
		format: Format(path),
		notify: make(chan struct{}, 1),
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Log(context.TODO(), logger.WarnLevel, map[string]interface{}{"error": err, "path": path}, "config file not watched")
		return f
	}
	if err = w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		logger.Log(context.TODO(), logger.WarnLevel, map[string]interface{}{"error": err, "path": path}, "config file not watched")
		return f
	}
	f.watcher = w
	routine.GoSafe(context.TODO(), f.watch)
	return f
}

// Format maps a file extension to a codec name. Unknown extensions are
// read as toml.
func Format(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "json":
		return json.Name
	case "yaml", "yml":
		return yaml.Name
	default:
		return toml.Name
	}
}

func (f *File) watch() {
	defer close(f.notify)
	for {
		select {
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			// editors often replace the file rather than write it in place
			const mask = fsnotify.Write | fsnotify.Create | fsnotify.Rename
			if event.Op&mask == 0 || filepath.Clean(event.Name) != f.path {
				continue
			}
			logger.Log(context.TODO(), logger.DebugLevel, map[string]interface{}{"file": event.Name, "op": event.Op.String()}, "config file modified")
			select {
			case f.notify <- struct{}{}:
			default:
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			logger.Log(context.TODO(), logger.ErrorLevel, map[string]interface{}{"error": err}, "config file watch")
		}
	}
}

func (f *File) Load() ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f *File) Watch() <-chan struct{} {
	return f.notify
}

func (f *File) Close() error {
	var err error
	f.once.Do(func() {
		if f.watcher == nil {
			close(f.notify)
			return
		}
		err = f.watcher.Close()
	})
	return err
}

func (f *File) Format() string {
	return f.format
}
