// Package database implements the session's database context on top of the
// official MongoDB driver.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// DefaultDatabase is used when the connection string names none.
const DefaultDatabase = "test"

// Mongo is a connected deployment plus the database the shell is using.
type Mongo struct {
	client *mongo.Client
	uri    string

	mu       sync.RWMutex
	database string
}

// Connect opens a client for uri. database overrides the one in the URI.
// The driver connects lazily, so an unreachable server surfaces on first use.
func Connect(ctx context.Context, uri, database string) (*Mongo, error) {
	if database == "" {
		name, err := DatabaseFromURI(uri)
		if err != nil {
			return nil, err
		}
		database = name
	}

	ctx, cancel := context.WithTimeout(ctx, domain.DatabaseTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetAppName("shai-mongo").
		SetServerSelectionTimeout(domain.DatabaseTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", Redact(uri), err)
	}
	return &Mongo{client: client, uri: uri, database: database}, nil
}

// DatabaseFromURI returns the database named in the connection string path.
func DatabaseFromURI(uri string) (string, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", fmt.Errorf("invalid connection string: %w", err)
	}
	if cs.Database == "" {
		return DefaultDatabase, nil
	}
	return cs.Database, nil
}

// URI returns the connection string the client was built from.
func (m *Mongo) URI() string {
	return m.uri
}

// CurrentDatabaseName implements ports.DatabaseContext.
func (m *Mongo) CurrentDatabaseName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.database
}

// UseDatabase switches the current database, like `use <db>`.
func (m *Mongo) UseDatabase(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, "/\\. \"$") {
		return fmt.Errorf("invalid database name %q", name)
	}
	m.mu.Lock()
	m.database = name
	m.mu.Unlock()
	return nil
}

// ListCollectionNames implements ports.DatabaseContext. System collections
// are left out and names are sorted.
func (m *Mongo) ListCollectionNames(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, domain.DatabaseTimeout)
	defer cancel()

	names, err := m.db().ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	visible := names[:0]
	for _, name := range names {
		if !strings.HasPrefix(name, "system.") {
			visible = append(visible, name)
		}
	}
	sort.Strings(visible)
	return visible, nil
}

// SampleDocuments implements ports.DatabaseContext using a $sample stage.
func (m *Mongo) SampleDocuments(ctx context.Context, collection string, n int) ([]map[string]interface{}, error) {
	if n <= 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, domain.DatabaseTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{{{Key: "$sample", Value: bson.D{{Key: "size", Value: n}}}}}
	cursor, err := m.db().Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("read samples from %s: %w", collection, err)
	}

	docs := make([]map[string]interface{}, 0, len(raw))
	for _, doc := range raw {
		converted, err := toJSONMap(doc)
		if err != nil {
			return nil, err
		}
		docs = append(docs, converted)
	}
	return docs, nil
}

// Ping checks that the deployment answers.
func (m *Mongo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, domain.DatabaseTimeout)
	defer cancel()
	return m.client.Ping(ctx, readpref.Primary())
}

// Disconnect closes the client.
func (m *Mongo) Disconnect(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) db() *mongo.Database {
	return m.client.Database(m.CurrentDatabaseName())
}

// toJSONMap renders a document as relaxed extended JSON so ObjectIDs and dates
// read naturally in prompts.
func toJSONMap(doc interface{}) (map[string]interface{}, error) {
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// Redact hides credentials in a connection string.
func Redact(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return uri
	}
	if slash := strings.Index(rest, "/"); slash >= 0 && slash < at {
		return uri
	}
	return scheme + "://***@" + rest[at+1:]
}

var _ ports.DatabaseContext = (*Mongo)(nil)
