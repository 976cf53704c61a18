package latent

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"gorgonia.org/tensor"
)

// Source is an explicit tagged variant of where an embedding array comes
// from: either already computed, or computed on demand by a closure. The
// variant is resolved exactly once at the Resolve call site, never by
// runtime type inspection.
type Source struct {
	precomputed *tensor.Dense
	deferred    func() (*tensor.Dense, error)
}

func Precomputed(t *tensor.Dense) Source {
	return Source{precomputed: t}
}

func Deferred(fn func() (*tensor.Dense, error)) Source {
	return Source{deferred: fn}
}

func (s Source) resolve() (*tensor.Dense, error) {
	if s.precomputed != nil {
		return s.precomputed, nil
	}
	if s.deferred != nil {
		return s.deferred()
	}
	return nil, fmt.Errorf("empty embedding source")
}

// Cache is a caller-owned store of named embedding arrays, persisted in
// leveldb as npy payloads so results accumulated across experiment steps
// survive the process. There is no module-level state: callers create a
// Cache and pass it to whoever needs cross-step results.
type Cache struct {
	db *leveldb.DB
}

func NewCache(db *leveldb.DB) *Cache {
	return &Cache{db: db}
}

// Resolve returns the cached array under name, or resolves src, stores the
// result and returns it. A Deferred source is therefore invoked at most once
// per name for the lifetime of the backing database.
func (c *Cache) Resolve(name string, src Source) (*tensor.Dense, error) {
	key := []byte(fmt.Sprintf("embedding-%s", name))

	if b, err := c.db.Get(key, nil); err == nil {
		t := new(tensor.Dense)
		if err := t.ReadNpy(bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("failed to decode cached embedding %s: %v", name, err)
		}
		return t, nil
	} else if !errors.Is(err, leveldb.ErrNotFound) {
		// Only a missing key falls through to the source; a failing store
		// must not be papered over with a recompute.
		return nil, fmt.Errorf("failed to read cached embedding %s: %v", name, err)
	}

	t, err := src.resolve()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := t.WriteNpy(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode embedding %s: %v", name, err)
	}
	if err := c.db.Put(key, buf.Bytes(), nil); err != nil {
		return nil, fmt.Errorf("failed to cache embedding %s: %v", name, err)
	}

	return t, nil
}
