package game

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// ConfigWatcher reloads a YAML config file whenever it changes on disk.
// The parent directory is watched so editors that replace the file on
// save are still seen.
type ConfigWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	Configs chan Config
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// WatchConfig starts watching path. Successful reloads arrive on Configs;
// read and validation failures arrive on Errors.
func WatchConfig(path string) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}
	cw := &ConfigWatcher{
		path:    abs,
		watcher: w,
		Configs: make(chan Config, 4),
		Errors:  make(chan error, 4),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go cw.run()
	return cw, nil
}

// Close stops the watcher. Configs and Errors are closed once the
// background goroutine exits.
func (cw *ConfigWatcher) Close() error {
	var err error
	cw.once.Do(func() {
		close(cw.closeCh)
		err = cw.watcher.Close()
		<-cw.done
	})
	return err
}

func (cw *ConfigWatcher) run() {
	defer func() {
		close(cw.Configs)
		close(cw.Errors)
		close(cw.done)
	}()
	var last time.Time
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			now := time.Now()
			if now.Sub(last) < reloadDebounce {
				continue
			}
			last = now
			// Give the writer a moment to finish.
			time.Sleep(reloadDebounce / 2)
			cfg, err := LoadConfig(cw.path)
			if err != nil {
				cw.sendErr(err)
				continue
			}
			select {
			case cw.Configs <- cfg:
			case <-cw.closeCh:
				return
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.sendErr(err)
		case <-cw.closeCh:
			return
		}
	}
}

func (cw *ConfigWatcher) sendErr(err error) {
	select {
	case cw.Errors <- err:
	default:
	}
}
