package config

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watcher re-reads the config file on change and notifies the callback with
// the new logger level. Only the log level is hot-reloadable; everything else
// requires a restart.
type Watcher struct {
	v        *viper.Viper
	log      *slog.Logger
	onChange func(level string)
	watcher  *fsnotify.Watcher
}

// NewWatcher builds a Watcher for the config file already loaded into v.
func NewWatcher(v *viper.Viper, log *slog.Logger, onChange func(level string)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: editors and configmap mounts replace
	// the file by rename, which drops a direct file watch.
	if err := fsWatcher.Add(filepath.Dir(v.ConfigFileUsed())); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}

	return &Watcher{
		v:        v,
		log:      log,
		onChange: onChange,
		watcher:  fsWatcher,
	}, nil
}

// Run processes filesystem events until the watcher is closed.
func (w *Watcher) Run() {
	configFile := filepath.Clean(w.v.ConfigFileUsed())

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != configFile {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if err := w.v.ReadInConfig(); err != nil {
				w.log.Warn("config reload failed", slog.Any("error", err))
				continue
			}

			level := w.v.GetString("logger.level")
			w.log.Info("config reloaded", slog.String("logger_level", level))

			if w.onChange != nil {
				w.onChange(level)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", slog.Any("error", err))
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
