package search

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisIndex stores ticket documents as Redis hashes and answers KNN
// queries through RediSearch vector search. Cosine distance from the
// backend is mapped to a relevance score in [-1,1] (1 - distance).
type RedisIndex struct {
	client   *redis.Client
	embedder Embedder
	prefix   string
	dims     int
	logger   *zap.Logger
}

// NewRedisIndex constructs the index adapter.
func NewRedisIndex(client *redis.Client, embedder Embedder, prefix string, dims int, logger *zap.Logger) *RedisIndex {
	if prefix == "" {
		prefix = "triage"
	}
	if dims <= 0 {
		dims = 1536
	}
	return &RedisIndex{client: client, embedder: embedder, prefix: prefix, dims: dims, logger: logger}
}

// EnsureCollections creates the RediSearch indexes for the open and
// resolved collections if they do not exist yet.
func (r *RedisIndex) EnsureCollections(ctx context.Context) error {
	for _, collection := range []string{CollectionOpen, CollectionResolved} {
		args := []any{
			"FT.CREATE", r.indexName(collection),
			"ON", "HASH",
			"PREFIX", "1", r.keyPrefix(collection),
			"SCHEMA",
			"content", "TEXT",
			"metadata", "TEXT", "NOINDEX",
			"embedding", "VECTOR", "HNSW", "6",
			"TYPE", "FLOAT32",
			"DIM", strconv.Itoa(r.dims),
			"DISTANCE_METRIC", "COSINE",
		}
		if err := r.client.Do(ctx, args...).Err(); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "index already exists") {
				continue
			}
			return fmt.Errorf("create index %s: %w", collection, err)
		}
		r.logger.Info("created similarity index", zap.String("collection", collection))
	}
	return nil
}

// Add embeds the document content and stores it in the collection.
func (r *RedisIndex) Add(ctx context.Context, collection string, doc Document) error {
	vector, err := r.embedder.Embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("embed document %s: %w", doc.ID, err)
	}

	metaJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata for %s: %w", doc.ID, err)
	}

	key := r.key(collection, doc.ID)
	fields := map[string]any{
		"content":   doc.Content,
		"metadata":  string(metaJSON),
		"embedding": vectorBytes(vector),
	}
	if err := r.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("store document %s: %w", doc.ID, err)
	}
	return nil
}

// Get fetches a stored document; it returns nil when the id is absent.
func (r *RedisIndex) Get(ctx context.Context, collection, id string) (*Document, error) {
	fields, err := r.client.HGetAll(ctx, r.key(collection, id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	doc := &Document{ID: id, Content: fields["content"]}
	if raw := fields["metadata"]; raw != "" {
		var meta map[string]any
		if err := json.Unmarshal([]byte(raw), &meta); err == nil {
			doc.Metadata = meta
		}
	}
	return doc, nil
}

// Delete removes a document from the collection.
func (r *RedisIndex) Delete(ctx context.Context, collection, id string) error {
	return r.client.Del(ctx, r.key(collection, id)).Err()
}

// Query embeds the text and runs a KNN search against the collection.
func (r *RedisIndex) Query(ctx context.Context, collection, text string, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	vector, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	args := []any{
		"FT.SEARCH", r.indexName(collection),
		"*=>[KNN $k @embedding $vec AS vector_distance]",
		"PARAMS", "4", "k", strconv.Itoa(k), "vec", vectorBytes(vector),
		"SORTBY", "vector_distance", "ASC",
		"RETURN", "3", "content", "metadata", "vector_distance",
		"LIMIT", "0", strconv.Itoa(k),
		"DIALECT", "2",
	}
	reply, err := r.client.Do(ctx, args...).Result()
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}

	return r.parseSearchReply(collection, reply), nil
}

// parseSearchReply handles both the RESP2 array reply and the RESP3 map
// reply shapes of FT.SEARCH.
func (r *RedisIndex) parseSearchReply(collection string, reply any) []Hit {
	switch typed := reply.(type) {
	case []any:
		return r.parseArrayReply(collection, typed)
	case map[any]any:
		return r.parseMapReply(collection, anyKeysToString(typed))
	case map[string]any:
		return r.parseMapReply(collection, typed)
	default:
		r.logger.Warn("unexpected search reply shape", zap.String("collection", collection))
		return nil
	}
}

func (r *RedisIndex) parseArrayReply(collection string, reply []any) []Hit {
	var hits []Hit
	// reply: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(reply); i += 2 {
		key, ok := reply[i].(string)
		if !ok {
			continue
		}
		fieldList, ok := reply[i+1].([]any)
		if !ok {
			continue
		}
		fields := make(map[string]string, len(fieldList)/2)
		for j := 0; j+1 < len(fieldList); j += 2 {
			name, _ := fieldList[j].(string)
			value, _ := fieldList[j+1].(string)
			fields[name] = value
		}
		hits = append(hits, r.hitFromFields(collection, key, fields))
	}
	return hits
}

func (r *RedisIndex) parseMapReply(collection string, reply map[string]any) []Hit {
	results, ok := reply["results"].([]any)
	if !ok {
		return nil
	}
	var hits []Hit
	for _, entry := range results {
		var doc map[string]any
		switch typed := entry.(type) {
		case map[any]any:
			doc = anyKeysToString(typed)
		case map[string]any:
			doc = typed
		default:
			continue
		}
		key, _ := doc["id"].(string)
		fields := make(map[string]string)
		switch attrs := doc["extra_attributes"].(type) {
		case map[any]any:
			for name, value := range anyKeysToString(attrs) {
				if s, ok := value.(string); ok {
					fields[name] = s
				}
			}
		case map[string]any:
			for name, value := range attrs {
				if s, ok := value.(string); ok {
					fields[name] = s
				}
			}
		}
		hits = append(hits, r.hitFromFields(collection, key, fields))
	}
	return hits
}

func (r *RedisIndex) hitFromFields(collection, key string, fields map[string]string) Hit {
	hit := Hit{
		ID:      strings.TrimPrefix(key, r.keyPrefix(collection)),
		Content: fields["content"],
	}
	if raw := fields["metadata"]; raw != "" {
		var meta map[string]any
		if err := json.Unmarshal([]byte(raw), &meta); err == nil {
			hit.Metadata = meta
		}
	}
	if raw := fields["vector_distance"]; raw != "" {
		if distance, err := strconv.ParseFloat(raw, 64); err == nil {
			// cosine distance in [0,2] -> relevance in [-1,1]
			hit.Score = 1 - distance
		}
	}
	return hit
}

func (r *RedisIndex) indexName(collection string) string {
	return r.prefix + ":" + collection + ":idx"
}

func (r *RedisIndex) keyPrefix(collection string) string {
	return r.prefix + ":" + collection + ":"
}

func (r *RedisIndex) key(collection, id string) string {
	return r.keyPrefix(collection) + id
}

func vectorBytes(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func anyKeysToString(in map[any]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[fmt.Sprint(key)] = value
	}
	return out
}
