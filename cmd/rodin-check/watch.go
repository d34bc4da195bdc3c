package main

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-set/v3"
)

// watch checks the files once, then again each time one of them is
// written, until the watcher fails. The directories are watched rather
// than the files, so editors replacing a file on save are followed.
func (c *checker) watch(paths []string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := set.New[string](len(paths))
	dirs := set.New[string](len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		watched.Insert(abs)
		dirs.Insert(filepath.Dir(abs))
	}
	for dir := range dirs.Items() {
		if err := w.Add(dir); err != nil {
			return err
		}
	}

	if _, err := c.checkAll(paths); err != nil {
		c.logger.Error("check failed", "err", err)
	}
	c.logger.Info("watching", "files", len(paths))
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 || !watched.Contains(ev.Name) {
				continue
			}
			c.logger.Debug("file changed", "file", ev.Name, "op", ev.Op.String())
			if _, err := c.checkAll([]string{ev.Name}); err != nil {
				c.logger.Error("check failed", "file", ev.Name, "err", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
