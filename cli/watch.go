package cli

import (
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.kartsim.dev/collision/kcl"
)

// watchSettleTime is how long a file must stay quiet before it is reloaded.
const watchSettleTime = 100 * time.Millisecond

// WatchAction loads a geometry file and reloads it every time it is written. A reload that fails
// to parse is logged and the previous geometry stays current.
func WatchAction(c *cli.Context) error {
	tool, err := fromContext(c)
	if err != nil {
		return err
	}
	store, path, err := loadGeometry(c, tool)
	if err != nil {
		return err
	}
	printStoreSummary(c, path, store)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "could not create file watcher")
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			tool.logger.Warnw("error closing file watcher", "error", err)
		}
	}()

	// Watch the directory, a replaced file is a new inode.
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return errors.Wrapf(err, "could not watch %q", path)
	}
	tool.logger.Infow("watching geometry", "path", target)

	reload := make(chan struct{}, 1)
	settle := debounce.New(watchSettleTime)
	maxReloads := c.Int(watchFlagMaxReloads)
	reloads := 0
	for {
		select {
		case <-c.Context.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			tool.logger.Warnw("file watcher error", "error", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			settle(func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			reloaded, err := kcl.LoadFile(target, tool.conf.GeometryEncoding(), tool.sublogger("kcl"))
			if err != nil {
				tool.logger.Warnw("keeping previous geometry", "path", target, "error", err)
				continue
			}
			store = reloaded
			reloads++
			printf(c.App.Writer, "reloaded %s: %d planes, %d cells", target, store.NumPlanes(), store.NumCells())
			if maxReloads > 0 && reloads >= maxReloads {
				return nil
			}
		}
	}
}
