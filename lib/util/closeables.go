package util

import (
	"errors"
	"io"
	"sync"

	"github.com/samber/oops"
)

type namedCloser struct {
	name string
	c    io.Closer
}

var (
	closers   []namedCloser
	closersMu sync.Mutex
)

// RegisterCloser arranges for c to be closed by CloseAll. name labels it
// in the log and in errors.
func RegisterCloser(name string, c io.Closer) {
	closersMu.Lock()
	defer closersMu.Unlock()
	closers = append(closers, namedCloser{name: name, c: c})
	log.WithField("name", name).WithField("count", len(closers)).Debug("Registered closer")
}

// CloseAll closes the registered closers, last registered first, and
// forgets them. A failing closer does not stop the others; their errors
// are returned together.
func CloseAll() error {
	closersMu.Lock()
	pending := closers
	closers = nil
	closersMu.Unlock()

	var errs []error
	for i := len(pending) - 1; i >= 0; i-- {
		nc := pending[i]
		if err := nc.c.Close(); err != nil {
			log.WithField("name", nc.name).WithError(err).Warn("Error closing resource")
			errs = append(errs, oops.Wrapf(err, "closing %s", nc.name))
		}
	}
	return errors.Join(errs...)
}
