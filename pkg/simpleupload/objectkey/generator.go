package objectkey

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Generator names temporary upload keys and permanent storage keys
type Generator interface {
	// UploadKey returns a fresh key inside the caller's prefix
	UploadKey(prefix string) string

	// StorageKey returns the permanent key for an upload of filename
	StorageKey(filename string) string
}

// FlatGenerator produces prefix/<uuid> upload keys and <uuid><ext> storage keys.
// The original extension is kept so downstream consumers can sniff the type.
type FlatGenerator struct {
	// StoragePrefix is prepended to storage keys when set, e.g. "files"
	StoragePrefix string

	newID func() uuid.UUID
}

// NewFlatGenerator returns a FlatGenerator using random UUIDs
func NewFlatGenerator() *FlatGenerator {
	return &FlatGenerator{newID: uuid.New}
}

func (g *FlatGenerator) UploadKey(prefix string) string {
	return joinKey(prefix, g.id().String())
}

func (g *FlatGenerator) StorageKey(filename string) string {
	return joinKey(g.StoragePrefix, g.id().String()+Extension(filename))
}

func (g *FlatGenerator) id() uuid.UUID {
	if g.newID == nil {
		return uuid.New()
	}
	return g.newID()
}

// ShardedGenerator spreads storage keys over Git-style shard directories:
// objects/ab/cd1234ef5678....pdf
type ShardedGenerator struct {
	// ShardLength controls how many characters to use for sharding (default: 2)
	ShardLength int

	newID func() uuid.UUID
}

// NewShardedGenerator returns a ShardedGenerator with two-character shards
func NewShardedGenerator() *ShardedGenerator {
	return &ShardedGenerator{ShardLength: 2, newID: uuid.New}
}

func (g *ShardedGenerator) UploadKey(prefix string) string {
	return joinKey(prefix, g.id().String())
}

func (g *ShardedGenerator) StorageKey(filename string) string {
	id := strings.ReplaceAll(g.id().String(), "-", "")

	shardLength := g.ShardLength
	if shardLength <= 0 || shardLength > len(id) {
		shardLength = 2
	}

	return fmt.Sprintf("objects/%s/%s%s", id[:shardLength], id[shardLength:], Extension(filename))
}

func (g *ShardedGenerator) id() uuid.UUID {
	if g.newID == nil {
		return uuid.New()
	}
	return g.newID()
}

// Extension returns the extension of filename including the dot,
// or "" when it has none or contains characters unsafe in a key.
func Extension(filename string) string {
	ext := path.Ext(strings.ReplaceAll(filename, "\\", "/"))
	if len(ext) < 2 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return ""
		}
	}
	return ext
}

func joinKey(prefix, name string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
