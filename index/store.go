// Package index persists analyzed classes in a bbolt database. Documents
// live in the "docs" bucket keyed by path; the "defs", "refs" and "full"
// buckets map each term to the sorted list of paths that contain it.
// Writes are transactional, so a document and its postings always agree.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tliron/commonlog"
	bolt "go.etcd.io/bbolt"
)

var log = commonlog.GetLogger("classxref.index")

var ErrNotFound = errors.New("document not found")

var (
	bucketDocs = []byte("docs")
	fields     = []Field{FieldDefs, FieldRefs, FieldFull}
)

type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the index database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketDocs); err != nil {
			return err
		}
		for _, f := range fields {
			if _, err := tx.CreateBucketIfNotExists([]byte(f)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores doc, replacing any document previously stored under the same
// path together with its postings.
func (s *Store) Put(doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", doc.Path, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		if err := removeDocument(tx, doc.Path); err != nil {
			return err
		}
		if err := tx.Bucket(bucketDocs).Put([]byte(doc.Path), data); err != nil {
			return err
		}
		for _, f := range fields {
			b := tx.Bucket([]byte(f))
			for _, term := range doc.Terms(f) {
				if err := addPosting(b, term, doc.Path); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", doc.Path, err)
	}
	log.Debugf("stored %s", doc.Path)
	return nil
}

// Get returns the document stored under path, or ErrNotFound.
func (s *Store) Get(path string) (*Document, error) {
	var doc *Document
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		doc, err = getDocument(tx, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes the document under path and its postings. Deleting a path
// that is not indexed is a no-op.
func (s *Store) Delete(path string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return removeDocument(tx, path)
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// Search returns the sorted paths whose field contains term.
func (s *Store) Search(field Field, term string) ([]string, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("unknown field %q", field)
	}
	var paths []string
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		paths, err = postings(tx.Bucket([]byte(field)), term)
		return err
	})
	return paths, err
}

// Paths returns every indexed path in key order.
func (s *Store) Paths() ([]string, error) {
	var paths []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, _ []byte) error {
			paths = append(paths, string(k))
			return nil
		})
	})
	return paths, err
}

func getDocument(tx *bolt.Tx, path string) (*Document, error) {
	v := tx.Bucket(bucketDocs).Get([]byte(path))
	if v == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	var doc Document
	if err := json.Unmarshal(v, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return &doc, nil
}

func removeDocument(tx *bolt.Tx, path string) error {
	old, err := getDocument(tx, path)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, f := range fields {
		b := tx.Bucket([]byte(f))
		for _, term := range old.Terms(f) {
			if err := removePosting(b, term, path); err != nil {
				return err
			}
		}
	}
	return tx.Bucket(bucketDocs).Delete([]byte(path))
}

// postings decodes the path list stored under term. The returned slice is
// a copy; bbolt values are only valid inside the transaction.
func postings(b *bolt.Bucket, term string) ([]string, error) {
	v := b.Get([]byte(term))
	if v == nil {
		return nil, nil
	}
	var paths []string
	if err := json.Unmarshal(v, &paths); err != nil {
		return nil, fmt.Errorf("postings for %q: %w", term, err)
	}
	return paths, nil
}

func addPosting(b *bolt.Bucket, term, path string) error {
	paths, err := postings(b, term)
	if err != nil {
		return err
	}
	i := sort.SearchStrings(paths, path)
	if i < len(paths) && paths[i] == path {
		return nil
	}
	paths = append(paths, "")
	copy(paths[i+1:], paths[i:])
	paths[i] = path
	return putPostings(b, term, paths)
}

func removePosting(b *bolt.Bucket, term, path string) error {
	paths, err := postings(b, term)
	if err != nil {
		return err
	}
	i := sort.SearchStrings(paths, path)
	if i == len(paths) || paths[i] != path {
		return nil
	}
	paths = append(paths[:i], paths[i+1:]...)
	if len(paths) == 0 {
		return b.Delete([]byte(term))
	}
	return putPostings(b, term, paths)
}

func putPostings(b *bolt.Bucket, term string, paths []string) error {
	data, err := json.Marshal(paths)
	if err != nil {
		return err
	}
	return b.Put([]byte(term), data)
}
