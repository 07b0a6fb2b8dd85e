package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound 表示存储键没有对应的落盘文件。
	ErrNotFound = errors.New("blob: not found")
	// ErrSizeLimitExceeded 表示写入的字节数超过了允许的上限。
	ErrSizeLimitExceeded = errors.New("blob: size limit exceeded")
	// ErrInvalidKey 表示存储键为空或会解析到存储目录之外。
	ErrInvalidKey = errors.New("blob: invalid storage key")
)

// Store 将上传内容以字节原样写入本地目录。
// 存储键只由 NewStorageKey 生成，resolve 再做一次防御校验，
// 保证任何键都不会落到存储目录之外。
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建存储目录: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir 返回存储根目录。
func (s *Store) Dir() string {
	return s.dir
}

// Put 将 r 的内容流式写入 key 对应的文件，返回写入的字节数。
// 先写临时文件再重命名，写入中断或超过 sizeLimit 时临时文件会被删除，
// 不会留下半截内容。
func (s *Store) Put(ctx context.Context, key string, r io.Reader, sizeLimit int64) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("blob store uninitialized")
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	targetPath, err := s.resolve(key)
	if err != nil {
		return 0, err
	}

	tempPath := targetPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer file.Close()

	// 多读一个字节以区分"恰好等于上限"与"超过上限"。
	limited := io.LimitReader(r, sizeLimit+1)
	written, err := io.Copy(file, limited)
	if err != nil {
		file.Close()
		os.Remove(tempPath)
		return 0, fmt.Errorf("write file: %w", err)
	}

	if written > sizeLimit {
		file.Close()
		os.Remove(tempPath)
		return 0, ErrSizeLimitExceeded
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return 0, fmt.Errorf("sync file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("close file: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("rename temp file: %w", err)
	}

	return written, nil
}

// Open 打开并返回指定 key 对应的文件内容。
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if s == nil {
		return nil, fmt.Errorf("blob store uninitialized")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	targetPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(targetPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}

	return file, nil
}

// Remove 删除 key 对应的文件。文件已不存在时视为已满足，
// 返回 existed=false 供调用方在日志和指标中区分。
func (s *Store) Remove(ctx context.Context, key string) (existed bool, err error) {
	if s == nil {
		return false, fmt.Errorf("blob store uninitialized")
	}

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	targetPath, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	if err := os.Remove(targetPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove file: %w", err)
	}

	return true, nil
}

// resolve 将存储键映射为存储目录内的绝对路径。
// 含路径分隔符或会逃出根目录的键一律拒绝。
func (s *Store) resolve(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}

	targetPath := filepath.Join(s.dir, key)
	if filepath.Dir(targetPath) != s.dir {
		return "", ErrInvalidKey
	}

	return targetPath, nil
}
