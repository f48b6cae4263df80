package store

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoTimeout = 5 * time.Second

// Mongo is a RowStore over a MongoDB database.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ RowStore = (*Mongo)(nil)

// OpenMongo connects to the MongoDB deployment described by conn.
func OpenMongo(ctx context.Context, conn Connection) (*Mongo, error) {
	uri := conn.ConnectionString
	if uri == "" {
		port := conn.Port
		if port == 0 {
			port = 27017
		}
		u := url.URL{
			Scheme: "mongodb",
			Host:   net.JoinHostPort(conn.Host, strconv.Itoa(port)),
			Path:   "/" + conn.Database,
		}
		if conn.Username != "" {
			u.User = url.UserPassword(conn.Username, conn.Password)
		}
		if conn.SSL {
			u.RawQuery = "tls=true"
		}
		uri = u.String()
	}

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(5).
		SetServerSelectionTimeout(mongoTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach mongodb: %w", err)
	}
	return &Mongo{client: client, db: client.Database(conn.Database)}, nil
}

func (m *Mongo) Query(ctx context.Context, collection string, f Filters) ([]Row, error) {
	findOpts := options.Find()
	if f.Limit > 0 {
		findOpts.SetLimit(int64(f.Limit))
	}
	if f.OrderBy != nil {
		dir := 1
		if f.OrderBy.Desc {
			dir = -1
		}
		findOpts.SetSort(bson.D{{Key: f.OrderBy.Field, Value: dir}})
	}

	cur, err := m.db.Collection(collection).Find(ctx, mongoFilter(f.Predicates), findOpts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	out := make([]Row, 0, len(docs))
	for _, d := range docs {
		out = append(out, mongoRow(d))
	}
	return out, nil
}

// mongoFilter merges predicates on the same field into one operator document.
func mongoFilter(preds []Predicate) bson.M {
	filter := bson.M{}
	for _, p := range preds {
		if p.Op == OpEqual {
			filter[p.Field] = p.Value
			continue
		}
		op := "$gte"
		if p.Op == OpLTE {
			op = "$lte"
		}
		cond, ok := filter[p.Field].(bson.M)
		if !ok {
			cond = bson.M{}
		}
		cond[op] = p.Value
		filter[p.Field] = cond
	}
	return filter
}

func mongoRow(d bson.M) Row {
	row := make(Row, len(d))
	for k, v := range d {
		if k == "_id" {
			if oid, ok := v.(primitive.ObjectID); ok {
				row["id"] = oid.Hex()
			} else {
				row["id"] = v
			}
			continue
		}
		if dt, ok := v.(primitive.DateTime); ok {
			v = dt.Time()
		}
		row[k] = v
	}
	return row
}

func (m *Mongo) Schema(ctx context.Context, collection string) (Schema, error) {
	var doc bson.M
	err := m.db.Collection(collection).FindOne(ctx, bson.M{}).Decode(&doc)
	if err != nil {
		return Schema{}, fmt.Errorf("sample %s: %w", collection, err)
	}
	return inferSchema(collection, mongoRow(doc)), nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}
