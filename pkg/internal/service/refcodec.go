package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/yeisme/filterbot/pkg/internal/storage/kv"
)

const (
	// MaxRefLen Telegram 回调数据与 /start 参数的长度上限（字节）.
	MaxRefLen = 64

	refDirectPrefix = "file_"
	refHashPrefix   = "fh_"
	refKVPrefix     = "ref:"
)

// ErrUnknownRef 引用格式无法识别或映射已失效.
var ErrUnknownRef = errors.New("unknown file reference")

// RefCodec 在 file_id 与不超过 64 字节的紧凑引用之间转换.
// 能直接放下时使用 file_<file_id>，否则使用 fh_<xxhash64> 并把映射写入 KV.
type RefCodec struct {
	kv  kv.KVStore
	ttl time.Duration
}

// NewRefCodec 创建引用编解码器，store 为 nil 时超长 file_id 无法编码.
func NewRefCodec(store kv.KVStore, ttl time.Duration) *RefCodec {
	return &RefCodec{kv: store, ttl: ttl}
}

// IsRef 判断 data 是否为文件引用.
func IsRef(data string) bool {
	return strings.HasPrefix(data, refDirectPrefix) || strings.HasPrefix(data, refHashPrefix)
}

// Encode 返回 fileID 的紧凑引用.
func (c *RefCodec) Encode(ctx context.Context, fileID string) (string, error) {
	if ref := refDirectPrefix + fileID; len(ref) <= MaxRefLen {
		return ref, nil
	}

	if c.kv == nil {
		return "", fmt.Errorf("encode ref: file_id too long and no kv store configured")
	}

	sum := strconv.FormatUint(xxhash.Sum64String(fileID), 16)

	if err := c.kv.Set(ctx, refKVPrefix+sum, []byte(fileID), c.ttl); err != nil {
		return "", fmt.Errorf("encode ref: %w", err)
	}

	return refHashPrefix + sum, nil
}

// Decode 还原引用对应的 file_id.
func (c *RefCodec) Decode(ctx context.Context, ref string) (string, error) {
	switch {
	case strings.HasPrefix(ref, refDirectPrefix):
		id := strings.TrimPrefix(ref, refDirectPrefix)
		if id == "" {
			return "", ErrUnknownRef
		}

		return id, nil
	case strings.HasPrefix(ref, refHashPrefix):
		if c.kv == nil {
			return "", ErrUnknownRef
		}

		b, err := c.kv.Get(ctx, refKVPrefix+strings.TrimPrefix(ref, refHashPrefix))
		if errors.Is(err, kv.ErrKeyNotFound) {
			return "", ErrUnknownRef
		}

		if err != nil {
			return "", fmt.Errorf("decode ref: %w", err)
		}

		return string(b), nil
	default:
		return "", ErrUnknownRef
	}
}
