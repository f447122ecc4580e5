package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DataManagerOptions contains configuration for a DataManager
type DataManagerOptions struct {
	MaxCacheSize int
}

// DefaultDataManagerOptions returns default options for DataManager
func DefaultDataManagerOptions() DataManagerOptions {
	return DataManagerOptions{MaxCacheSize: 1000}
}

// DataManager provides cached access to one MongoDB collection. Writes made
// while offline go to the write queue and to the cache, so reads stay
// consistent until the queue is synced.
type DataManager[T any] struct {
	name  string
	db    *Database
	cache *lru.Cache[string, *T]
}

// NewDataManager creates a new DataManager for a collection
func NewDataManager[T any](collectionName string, db *Database, opts ...DataManagerOptions) *DataManager[T] {
	dmOptions := DefaultDataManagerOptions()
	if len(opts) > 0 {
		dmOptions = opts[0]
	}
	if dmOptions.MaxCacheSize <= 0 {
		dmOptions.MaxCacheSize = DefaultDataManagerOptions().MaxCacheSize
	}

	cache, err := lru.New[string, *T](dmOptions.MaxCacheSize)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}

	return &DataManager[T]{
		name:  collectionName,
		db:    db,
		cache: cache,
	}
}

// Name returns the collection name
func (dm *DataManager[T]) Name() string {
	return dm.name
}

// cacheKey builds a deterministic key from a query regardless of map order
func cacheKey(query bson.M) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, query[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func (dm *DataManager[T]) collection() *mongo.Collection {
	if !dm.db.Connected() {
		return nil
	}
	return dm.db.Collection(dm.name)
}

// Get returns the document matching query, or nil when there is none
func (dm *DataManager[T]) Get(ctx context.Context, query bson.M) (*T, error) {
	key := cacheKey(query)
	if v, ok := dm.cache.Get(key); ok {
		return v, nil
	}

	col := dm.collection()
	if col == nil {
		return nil, ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result T
	err := col.FindOne(ctx, query).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		logger.Warn(fmt.Sprintf("Fallo al leer de la DB (%s): %v", dm.name, err), "DataManager")
		dm.checkConnection(err)
		return nil, err
	}

	dm.cache.Add(key, &result)
	return &result, nil
}

// GetAll returns every document matching query, bypassing the cache
func (dm *DataManager[T]) GetAll(ctx context.Context, query bson.M) ([]*T, error) {
	col := dm.collection()
	if col == nil {
		return nil, ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := col.Find(ctx, query)
	if err != nil {
		dm.checkConnection(err)
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	var results []*T
	for cursor.Next(ctx) {
		var doc T
		if err := cursor.Decode(&doc); err != nil {
			logger.Warn(fmt.Sprintf("Documento inválido en '%s': %v", dm.name, err), "DataManager")
			continue
		}
		results = append(results, &doc)
	}
	return results, cursor.Err()
}

// Set upserts data into the document matching query
func (dm *DataManager[T]) Set(ctx context.Context, query bson.M, data *T) error {
	key := cacheKey(query)

	col := dm.collection()
	if col == nil {
		logger.Warn(fmt.Sprintf("DB offline. Encolando escritura para '%s'", dm.name), "DataManager")
		dm.enqueue(opSet, query, data)
		dm.cache.Add(key, data)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result T
	err := col.FindOneAndUpdate(ctx, query, bson.M{"$set": data}, opts).Decode(&result)
	if err != nil {
		logger.Error(fmt.Sprintf("Error en 'set' sobre '%s': %v. Encolando por seguridad.", dm.name, err), "DataManager")
		dm.enqueue(opSet, query, data)
		dm.cache.Add(key, data)
		dm.checkConnection(err)
		return nil
	}

	dm.cache.Add(key, &result)
	return nil
}

// Delete removes the document matching query
func (dm *DataManager[T]) Delete(ctx context.Context, query bson.M) error {
	dm.cache.Remove(cacheKey(query))

	col := dm.collection()
	if col == nil {
		logger.Warn(fmt.Sprintf("DB offline. Encolando eliminación para '%s'", dm.name), "DataManager")
		dm.enqueue(opDelete, query, nil)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := col.DeleteOne(ctx, query); err != nil {
		logger.Error(fmt.Sprintf("Error en 'delete' sobre '%s': %v. Encolando por seguridad.", dm.name, err), "DataManager")
		dm.enqueue(opDelete, query, nil)
		dm.checkConnection(err)
	}
	return nil
}

func (dm *DataManager[T]) enqueue(op string, query bson.M, data interface{}) {
	dm.db.AddToWriteQueue(QueuedOperation{
		CollectionName: dm.name,
		Query:          query,
		Operation:      op,
		Data:           data,
	})
}

func (dm *DataManager[T]) checkConnection(err error) {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		dm.db.markDisconnected()
	}
}

// ClearCache drops every cached document
func (dm *DataManager[T]) ClearCache() {
	dm.cache.Purge()
}

// CacheSize returns the number of cached documents
func (dm *DataManager[T]) CacheSize() int {
	return dm.cache.Len()
}
