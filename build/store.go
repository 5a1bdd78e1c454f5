package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrArtifactNotFound = errors.New("artifact not found")

// Store persists artifacts under their artifact path.
type Store interface {
	Load(ctx context.Context, key string) (*Artifact, error)
	Save(ctx context.Context, key string, a *Artifact) error
}

type FileStore struct{}

func NewFileStore() *FileStore {
	return &FileStore{}
}

func (s *FileStore) Load(_ context.Context, key string) (*Artifact, error) {
	f, err := os.Open(key)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeArtifact(f)
}

// Save writes through a temporary file so readers never see a partial
// artifact.
func (s *FileStore) Save(_ context.Context, key string, a *Artifact) error {
	dir := filepath.Dir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(key)+".*")
	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := a.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), key)
}

// RedisClient is the part of a go-redis client the store uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisStore shares artifacts between hosts that build the same
// containers.
type RedisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

type RedisOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithTTL expires artifacts after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

func NewRedisStore(client RedisClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: "spindle:artifact:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Key(key string) string {
	return s.prefix + filepath.ToSlash(key)
}

func (s *RedisStore) Load(ctx context.Context, key string) (*Artifact, error) {
	data, err := s.client.Get(ctx, s.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact %s: %w", key, err)
	}
	return DecodeArtifact(bytes.NewReader(data))
}

func (s *RedisStore) Save(ctx context.Context, key string, a *Artifact) error {
	var buf bytes.Buffer
	if err := a.Encode(&buf); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.Key(key), buf.Bytes(), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", key, err)
	}
	return nil
}
