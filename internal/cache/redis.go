package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/ignis-runtime/program-registry/internal/models"
)

const keyPrefix = "program:"

// Field numbers of the cached program record.
const (
	fieldID        protowire.Number = 1
	fieldHash      protowire.Number = 2
	fieldCode      protowire.Number = 3
	fieldVersion   protowire.Number = 4
	fieldBuiltins  protowire.Number = 5
	fieldLayout    protowire.Number = 6
	fieldCreatedAt protowire.Number = 7
	fieldObjectKey protowire.Number = 8
)

var errTruncated = errors.New("cache: truncated program record")

func encodeProgram(p *models.Program) []byte {
	b := protowire.AppendTag(nil, fieldID, protowire.BytesType)
	b = protowire.AppendBytes(b, p.ID[:])
	b = protowire.AppendTag(b, fieldHash, protowire.BytesType)
	b = protowire.AppendString(b, p.Hash)
	b = protowire.AppendTag(b, fieldCode, protowire.BytesType)
	b = protowire.AppendBytes(b, p.Code)
	b = protowire.AppendTag(b, fieldVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(p.Version)))
	for _, builtin := range p.Builtins {
		b = protowire.AppendTag(b, fieldBuiltins, protowire.BytesType)
		b = protowire.AppendString(b, builtin)
	}
	b = protowire.AppendTag(b, fieldLayout, protowire.BytesType)
	b = protowire.AppendString(b, p.Layout)
	b = protowire.AppendTag(b, fieldCreatedAt, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(p.CreatedAt.UnixNano()))
	if p.ObjectKey != "" {
		b = protowire.AppendTag(b, fieldObjectKey, protowire.BytesType)
		b = protowire.AppendString(b, p.ObjectKey)
	}
	return b
}

func decodeProgram(b []byte) (*models.Program, error) {
	p := &models.Program{}
	var sawID, sawHash bool

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldVersion && typ == protowire.VarintType,
			num == fieldCreatedAt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			if num == fieldVersion {
				p.Version = int(protowire.DecodeZigZag(v))
			} else {
				p.CreatedAt = time.Unix(0, protowire.DecodeZigZag(v)).UTC()
			}
		case typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			switch num {
			case fieldID:
				id, err := uuid.FromBytes(v)
				if err != nil {
					return nil, err
				}
				p.ID, sawID = id, true
			case fieldHash:
				p.Hash, sawHash = string(v), true
			case fieldCode:
				p.Code = append([]byte(nil), v...)
			case fieldBuiltins:
				p.Builtins = append(p.Builtins, string(v))
			case fieldLayout:
				p.Layout = string(v)
			case fieldObjectKey:
				p.ObjectKey = string(v)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}

	if !sawID || !sawHash {
		return nil, errTruncated
	}
	return p, nil
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr string) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{client: rdb}
}

// Get returns the cached program for hash. Misses and decoding failures are
// both reported as a miss; err is only set for transport failures.
func (c *RedisCache) Get(ctx context.Context, hash string) (*models.Program, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+hash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	program, err := decodeProgram(val)
	if err != nil {
		return nil, false, nil
	}
	return program, true, nil
}

func (c *RedisCache) Set(ctx context.Context, program *models.Program, expiration time.Duration) error {
	return c.client.Set(ctx, keyPrefix+program.Hash, encodeProgram(program), expiration).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
