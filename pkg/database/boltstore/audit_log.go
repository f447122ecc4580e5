package boltstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"
)

// AuditLog keeps every moderation entry. It implements moderation.Recorder.
type AuditLog struct {
	db *bolt.DB
}

func auditKey(guildID string, seq uint64) []byte {
	key := make([]byte, len(guildID)+1+8)
	copy(key, guildID)
	key[len(guildID)] = ':'
	binary.BigEndian.PutUint64(key[len(guildID)+1:], seq)
	return key
}

// Record stores the entry. Failures are logged, never returned.
func (a *AuditLog) Record(_ context.Context, e moderation.Entry) {
	err := a.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketAuditLog)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}
		return bucket.Put(auditKey(e.GuildID, seq), data)
	})
	if err != nil {
		logger.Error(fmt.Sprintf("No se pudo guardar la acción %s en el registro: %v", e.Action, err), "AuditLog")
	}
}

// Recent returns up to limit entries of a guild, newest first
func (a *AuditLog) Recent(_ context.Context, guildID string, limit int) ([]moderation.Entry, error) {
	var entries []moderation.Entry
	prefix := []byte(guildID + ":")
	err := a.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(BucketAuditLog).Cursor()

		// position after the last key of the guild, then walk backwards
		k, v := c.Seek(auditKey(guildID, ^uint64(0)))
		if k == nil {
			k, v = c.Last()
		}
		for ; k != nil && (limit <= 0 || len(entries) < limit); k, v = c.Prev() {
			if !bytes.HasPrefix(k, prefix) {
				if string(k) > string(prefix) {
					continue
				}
				break
			}
			var e moderation.Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}
