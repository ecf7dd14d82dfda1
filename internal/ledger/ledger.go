// Package ledger keeps a local record of the containers and files each
// walkthrough run created, so a later cleanup can remove them.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const runPrefix = "run/"

// ErrNotFound indicates no run is recorded for the container.
var ErrNotFound = errors.New("run not found")

type Run struct {
	Container string    `json:"container"`
	Backend   string    `json:"backend"`
	CreatedAt time.Time `json:"created_at"`
	Blobs     []string  `json:"blobs,omitempty"`
	// LocalFiles are generated or downloaded files in the working directory.
	LocalFiles []string `json:"local_files,omitempty"`
}

type Ledger struct {
	db  *badger.DB
	now func() time.Time
}

func Open(dir string) (*Ledger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", dir, err)
	}
	return &Ledger{db: db, now: time.Now}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

func key(container string) []byte { return []byte(runPrefix + container) }

func (l *Ledger) RecordContainer(_ context.Context, container, backend string) error {
	return l.db.Update(func(txn *badger.Txn) error {
		run := Run{Container: container, Backend: backend, CreatedAt: l.now().UTC()}
		return put(txn, run)
	})
}

// RecordBlob attaches a blob and its local file to an existing run. Repeated
// calls with the same values are no-ops.
func (l *Ledger) RecordBlob(_ context.Context, container, blob, localPath string) error {
	return l.db.Update(func(txn *badger.Txn) error {
		run, err := get(txn, container)
		if err != nil {
			return err
		}
		run.Blobs = appendUnique(run.Blobs, blob)
		if localPath != "" {
			run.LocalFiles = appendUnique(run.LocalFiles, localPath)
		}
		return put(txn, run)
	})
}

func (l *Ledger) Get(_ context.Context, container string) (Run, error) {
	var run Run
	err := l.db.View(func(txn *badger.Txn) error {
		var err error
		run, err = get(txn, container)
		return err
	})
	return run, err
}

// List returns every recorded run, oldest first.
func (l *Ledger) List(_ context.Context) ([]Run, error) {
	var runs []Run
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(runPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var run Run
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &run) }); err != nil {
				return err
			}
			runs = append(runs, run)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].CreatedAt.Before(runs[j].CreatedAt) })
	return runs, nil
}

func (l *Ledger) Delete(_ context.Context, container string) error {
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(container))
	})
}

func get(txn *badger.Txn, container string) (Run, error) {
	var run Run
	item, err := txn.Get(key(container))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Run{}, fmt.Errorf("%s: %w", container, ErrNotFound)
	}
	if err != nil {
		return Run{}, err
	}
	err = item.Value(func(v []byte) error { return json.Unmarshal(v, &run) })
	return run, err
}

func put(txn *badger.Txn, run Run) error {
	b, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return txn.Set(key(run.Container), b)
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
