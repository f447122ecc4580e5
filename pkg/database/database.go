// Package database provides the MongoDB connection and cached collection
// access used by the moderation store.
package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ErrNotConnected is returned by reads while the database is offline
var ErrNotConnected = errors.New("database not connected")

const (
	opSet    = "set"
	opDelete = "delete"
)

// QueuedOperation is a write kept while the database is offline
type QueuedOperation struct {
	CollectionName string
	Query          bson.M
	Operation      string
	Data           interface{}
}

// Database manages the MongoDB connection, reconnection and the offline
// write queue.
type Database struct {
	client      *mongo.Client
	db          *mongo.Database
	connected   bool
	url         string
	name        string
	collections map[string]*mongo.Collection

	writeQueue []QueuedOperation

	reconnectTicker *time.Ticker
	stopReconnect   chan struct{}
	stopOnce        sync.Once

	mu      sync.RWMutex
	queueMu sync.Mutex
}

var (
	database *Database
	dbOnce   sync.Once
)

// Init connects the global database instance. A failed first connection
// leaves the instance offline with reconnection running.
func Init(ctx context.Context, mongoURL, dbName string) (*Database, error) {
	var err error
	dbOnce.Do(func() {
		database = NewDatabase(mongoURL, dbName)
		err = database.Connect(ctx)
	})
	return database, err
}

// Get returns the global database instance
func Get() *Database {
	return database
}

// NewDatabase creates an unconnected Database
func NewDatabase(mongoURL, dbName string) *Database {
	return &Database{
		url:           mongoURL,
		name:          dbName,
		writeQueue:    make([]QueuedOperation, 0),
		stopReconnect: make(chan struct{}),
		collections:   make(map[string]*mongo.Collection),
	}
}

// Connect establishes the connection to MongoDB
func (d *Database) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return nil
	}

	logger.System("Intentando conectar a la base de datos...", "DB")

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(d.url).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err == nil {
		err = client.Ping(ctx, readpref.Primary())
		if err != nil {
			_ = client.Disconnect(context.Background())
		}
	}
	if err != nil {
		logger.Critical(fmt.Sprintf("Fallo al conectar con la base de datos: %v", err), "DB")
		d.startReconnect()
		return err
	}

	d.client = client
	d.db = client.Database(d.name)
	d.collections = make(map[string]*mongo.Collection)
	d.connected = true

	logger.Success("Conectado exitosamente a la base de datos.", "DB")

	if d.reconnectTicker != nil {
		d.reconnectTicker.Stop()
		d.reconnectTicker = nil
	}

	go d.syncOfflineWrites()
	return nil
}

// markDisconnected switches to offline mode after a failed operation
func (d *Database) markDisconnected() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return
	}
	d.connected = false
	logger.Warn("Se perdió la conexión con la base de datos. Activando modo offline.", "DB")
	d.startReconnect()
}

// startReconnect must be called with d.mu held
func (d *Database) startReconnect() {
	if d.reconnectTicker != nil {
		return
	}
	ticker := time.NewTicker(15 * time.Second)
	d.reconnectTicker = ticker
	go func() {
		for {
			select {
			case <-ticker.C:
				logger.Info("Intentando reconectar a la base de datos...", "DB")
				if err := d.Connect(context.Background()); err == nil {
					return
				}
			case <-d.stopReconnect:
				return
			}
		}
	}()
}

// Connected reports whether the database is reachable
func (d *Database) Connected() bool {
	if d == nil {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// Disconnect stops reconnection attempts and closes the client
func (d *Database) Disconnect(ctx context.Context) error {
	d.stopOnce.Do(func() { close(d.stopReconnect) })

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reconnectTicker != nil {
		d.reconnectTicker.Stop()
		d.reconnectTicker = nil
	}
	if d.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := d.client.Disconnect(ctx); err != nil {
		return err
	}
	d.connected = false
	logger.Warn("La base de datos ha sido desconectada", "DB")
	return nil
}

// Ping measures the database response time
func (d *Database) Ping(ctx context.Context) (time.Duration, error) {
	d.mu.RLock()
	client := d.client
	connected := d.connected
	d.mu.RUnlock()

	if !connected || client == nil {
		return 0, ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	err := client.Ping(ctx, readpref.Primary())
	return time.Since(start), err
}

// Status returns a display label for the connection state
func (d *Database) Status(ctx context.Context) (string, bool) {
	if _, err := d.Ping(ctx); err != nil {
		return "🔴 | Desconectado", false
	}
	return "🟢 | En linea", true
}

// Collection returns a MongoDB collection, or nil while never connected
func (d *Database) Collection(name string) *mongo.Collection {
	d.mu.RLock()
	col, ok := d.collections[name]
	db := d.db
	d.mu.RUnlock()
	if ok {
		return col
	}
	if db == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	col = d.db.Collection(name)
	d.collections[name] = col
	return col
}

// AddToWriteQueue keeps an operation until the database is back
func (d *Database) AddToWriteQueue(op QueuedOperation) {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	d.writeQueue = append(d.writeQueue, op)
}

// PendingWrites returns the number of queued offline writes
func (d *Database) PendingWrites() int {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	return len(d.writeQueue)
}

// syncOfflineWrites replays queued writes in order. Failed writes are
// queued again.
func (d *Database) syncOfflineWrites() {
	d.queueMu.Lock()
	if len(d.writeQueue) == 0 {
		d.queueMu.Unlock()
		return
	}
	operations := d.writeQueue
	d.writeQueue = make([]QueuedOperation, 0)
	d.queueMu.Unlock()

	logger.System(fmt.Sprintf("Sincronizando %d operaciones pendientes con la DB...", len(operations)), "DB-Sync")

	var failed []QueuedOperation
	for _, op := range operations {
		col := d.Collection(op.CollectionName)
		if col == nil {
			failed = append(failed, op)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		var err error
		switch op.Operation {
		case opSet:
			_, err = col.UpdateOne(ctx, op.Query, bson.M{"$set": op.Data}, options.Update().SetUpsert(true))
		case opDelete:
			_, err = col.DeleteOne(ctx, op.Query)
		}
		cancel()

		if err != nil {
			logger.Error(fmt.Sprintf("Error al sincronizar operación para '%s': %v", op.CollectionName, err), "DB-Sync")
			failed = append(failed, op)
		}
	}

	if len(failed) > 0 {
		d.queueMu.Lock()
		d.writeQueue = append(failed, d.writeQueue...)
		d.queueMu.Unlock()
		logger.Warn(fmt.Sprintf("%d operaciones no pudieron sincronizarse y se reintentarán.", len(failed)), "DB-Sync")
		return
	}
	logger.Success("Sincronización completada exitosamente.", "DB-Sync")
}
