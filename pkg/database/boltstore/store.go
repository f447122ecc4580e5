// Package boltstore persists moderation data in a local bbolt file, for
// single-instance deployments without MongoDB.
package boltstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	// BucketGuildSettings stores GuildSettings keyed by guild id
	BucketGuildSettings = []byte("guild_settings")

	// BucketWarnings stores WarnsDocument keyed by "guild:user"
	BucketWarnings = []byte("member_warnings")

	// BucketAuditLog stores moderation entries keyed by "guild:sequence"
	BucketAuditLog = []byte("moderation_audit_log")
)

// Store wraps a bbolt database
type Store struct {
	db *bolt.DB
}

// Options configures the bbolt store
type Options struct {
	// Path to the database file. Parent directories are created if needed.
	Path string

	// Timeout for obtaining the file lock. Defaults to 5 seconds.
	Timeout time.Duration

	// FileMode for creating the database file. Defaults to 0600.
	FileMode os.FileMode
}

// DefaultOptions returns the defaults used when BOLT_PATH is unset
func DefaultOptions() Options {
	return Options{
		Path:     "data/pancymod.db",
		Timeout:  5 * time.Second,
		FileMode: 0600,
	}
}

// Open creates or opens the database and its buckets
func Open(opts Options) (*Store, error) {
	def := DefaultOptions()
	if opts.Path == "" {
		opts.Path = def.Path
	}
	if opts.Timeout == 0 {
		opts.Timeout = def.Timeout
	}
	if opts.FileMode == 0 {
		opts.FileMode = def.FileMode
	}

	dir := filepath.Dir(opts.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := bolt.Open(opts.Path, opts.FileMode, &bolt.Options{Timeout: opts.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{BucketGuildSettings, BucketWarnings, BucketAuditLog} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ModerationStore returns the moderation.Store backed by this database
func (s *Store) ModerationStore() *ModerationStore {
	return &ModerationStore{db: s.db}
}

// AuditLog returns the moderation log recorder backed by this database
func (s *Store) AuditLog() *AuditLog {
	return &AuditLog{db: s.db}
}

// Stats returns database statistics
func (s *Store) Stats() bolt.Stats {
	return s.db.Stats()
}
