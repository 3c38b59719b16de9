package surfaceform

import (
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/kthwaite/wikitools/internal/wikierr"
)

var bucketName = []byte("surface_forms")

// defaultChunkSize is how many records PutMany batches per committed
// transaction, per SPEC_FULL.md §4.6.
const defaultChunkSize = 20000

// Store is the read/write interface over the KV backend. Get never
// returns an error for a missing key; it reports absence via the bool.
type Store interface {
	Get(text string) (SurfaceForm, bool, error)
	Put(sf SurfaceForm) error
	PutRaw(text string, anchors []PageCount) error
	PutMany(sfs []SurfaceForm) error
	PutManyRaw(entries map[string][]PageCount) error
	Close() error
}

// boltStore implements Store over a single bbolt file. Writes are
// serialized by a single explicit mutex in addition to bbolt's own
// single-writer-transaction guarantee, matching the "single writer at a
// time" resource model of SPEC_FULL.md §5.
type boltStore struct {
	db      *bolt.DB
	writeMu sync.Mutex
}

// Open opens (creating if necessary) a bbolt-backed SurfaceForm store at
// path.
func Open(path string) (Store, error) {
	db, err := bolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, wikierr.Wrap(wikierr.KindBackend, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, wikierr.Wrap(wikierr.KindBackend, err)
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Get(text string) (SurfaceForm, bool, error) {
	key := NormalizeText(text)
	var sf SurfaceForm
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v == nil {
			return nil
		}
		decoded, err := Decode(v)
		if err != nil {
			return err
		}
		sf = decoded
		found = true
		return nil
	})
	if err != nil {
		return SurfaceForm{}, false, wikierr.Wrap(wikierr.KindSerialize, err)
	}
	return sf, found, nil
}

func (s *boltStore) Put(sf SurfaceForm) error {
	return s.PutMany([]SurfaceForm{sf})
}

func (s *boltStore) PutRaw(text string, anchors []PageCount) error {
	return s.Put(New(NormalizeText(text), anchors))
}

func (s *boltStore) PutMany(sfs []SurfaceForm) error {
	for start := 0; start < len(sfs); start += defaultChunkSize {
		end := start + defaultChunkSize
		if end > len(sfs) {
			end = len(sfs)
		}
		if err := s.commitChunk(sfs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *boltStore) PutManyRaw(entries map[string][]PageCount) error {
	sfs := make([]SurfaceForm, 0, len(entries))
	for text, anchors := range entries {
		sfs = append(sfs, New(NormalizeText(text), anchors))
	}
	return s.PutMany(sfs)
}

// commitChunk serializes and commits one batch. bbolt's Update
// transactions are all-or-nothing, so a retried chunk simply re-applies
// the same puts: PutMany is idempotent over retries as required.
func (s *boltStore) commitChunk(sfs []SurfaceForm) error {
	encoded := make([][]byte, len(sfs))
	for i, sf := range sfs {
		data, err := Encode(sf)
		if err != nil {
			return wikierr.Wrap(wikierr.KindSerialize, err)
		}
		encoded[i] = data
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		for i, sf := range sfs {
			if err := b.Put([]byte(sf.Text), encoded[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wikierr.Wrap(wikierr.KindBackend, err)
	}
	return nil
}

func (s *boltStore) Close() error {
	return wikierr.Wrap(wikierr.KindBackend, s.db.Close())
}
