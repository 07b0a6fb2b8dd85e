package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"filebin/internal/blob"
	"filebin/internal/registry"

	"github.com/google/uuid"
)

// ErrBlobMissing 表示注册表里有记录但落盘文件缺失，
// 属于一致性故障，和普通的"id 不存在"区分开。
var ErrBlobMissing = errors.New("service: blob missing for record")

// FileService 封装上传、列表、下载与删除的业务流程。
// 不变量：先完整写入落盘文件，再插入注册表记录；删除时
// 注册表是客户端可见状态的权威，落盘清理只做尽力而为。
type FileService struct {
	registry *registry.Registry
	store    *blob.Store
	logger   *log.Logger
}

func NewFileService(reg *registry.Registry, store *blob.Store, logger *log.Logger) *FileService {
	return &FileService{registry: reg, store: store, logger: logger}
}

// UploadInput 描述一次上传所需的信息。
type UploadInput struct {
	Name      string
	MimeType  string
	Reader    io.Reader
	SizeLimit int64
}

// Upload 将上传内容写入存储并登记元数据，返回新记录和当前文件总数。
func (s *FileService) Upload(ctx context.Context, input UploadInput) (*registry.FileRecord, int, error) {
	if s == nil || s.registry == nil || s.store == nil {
		return nil, 0, errors.New("file service not initialized")
	}
	if input.Reader == nil {
		return nil, 0, errors.New("upload reader is required")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "unnamed"
	}

	mimeType := strings.TrimSpace(input.MimeType)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	key := blob.NewStorageKey(name)
	written, err := s.store.Put(ctx, key, input.Reader, input.SizeLimit)
	if err != nil {
		if errors.Is(err, blob.ErrSizeLimitExceeded) {
			uploadsRejectedTotal.WithLabelValues("too_large").Inc()
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("write blob: %w", err)
	}

	record := &registry.FileRecord{
		ID:         newFileID(),
		Name:       name,
		Size:       written,
		MimeType:   mimeType,
		StorageKey: key,
		UploadDate: time.Now().UTC(),
	}

	if err := s.registry.Insert(record); err != nil {
		// 插入失败时不能留下孤儿文件
		if _, removeErr := s.store.Remove(ctx, key); removeErr != nil {
			s.logger.Printf("upload: 回滚落盘文件失败 key=%s: %v", key, removeErr)
		}
		return nil, 0, fmt.Errorf("insert record: %w", err)
	}

	filesUploadedTotal.Inc()
	uploadBytesTotal.Add(float64(written))

	return record, s.registry.Count(), nil
}

// ListFiles 按上传顺序返回全部记录和数量。
func (s *FileService) ListFiles() ([]registry.FileRecord, int) {
	if s == nil || s.registry == nil {
		return nil, 0
	}
	records := s.registry.List()
	return records, len(records)
}

// OpenFile 返回指定 id 的记录和内容流。id 不存在时返回
// registry.ErrNotFound；记录存在但落盘文件缺失时返回 ErrBlobMissing。
func (s *FileService) OpenFile(ctx context.Context, id string) (*registry.FileRecord, io.ReadCloser, error) {
	if s == nil || s.registry == nil || s.store == nil {
		return nil, nil, errors.New("file service not initialized")
	}

	record, err := s.registry.Get(id)
	if err != nil {
		return nil, nil, err
	}

	content, err := s.store.Open(ctx, record.StorageKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			consistencyFaultsTotal.Inc()
			s.logger.Printf("download: 一致性故障，记录存在但文件缺失 id=%s key=%s", id, record.StorageKey)
			return nil, nil, fmt.Errorf("open blob for %s: %w", id, ErrBlobMissing)
		}
		return nil, nil, fmt.Errorf("open blob for %s: %w", id, err)
	}

	return record, content, nil
}

// DeleteFile 删除指定 id 的文件。落盘删除是幂等的：文件已缺失
// 不影响结果，只单独计数；落盘删除失败也仍然移除注册表记录。
func (s *FileService) DeleteFile(ctx context.Context, id string) (*registry.FileRecord, error) {
	if s == nil || s.registry == nil || s.store == nil {
		return nil, errors.New("file service not initialized")
	}

	record, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}

	s.removeBlob(ctx, "delete", record)

	removed, err := s.registry.Remove(id)
	if err != nil {
		return nil, err
	}

	filesDeletedTotal.Inc()
	return removed, nil
}

// DeleteAll 删除全部文件，返回清除的记录数。
// 单个落盘删除失败会被记录但不会中断整体操作。
func (s *FileService) DeleteAll(ctx context.Context) int {
	if s == nil || s.registry == nil || s.store == nil {
		return 0
	}

	for _, record := range s.registry.List() {
		s.removeBlob(ctx, "delete-all", &record)
	}

	count := s.registry.Clear()
	filesDeletedTotal.Add(float64(count))
	return count
}

func (s *FileService) removeBlob(ctx context.Context, op string, record *registry.FileRecord) {
	existed, err := s.store.Remove(ctx, record.StorageKey)
	if err != nil {
		s.logger.Printf("%s: 删除落盘文件失败 id=%s key=%s: %v", op, record.ID, record.StorageKey, err)
		return
	}
	if !existed {
		blobAbsentOnDeleteTotal.Inc()
		s.logger.Printf("%s: 落盘文件已缺失，按幂等成功处理 id=%s key=%s", op, record.ID, record.StorageKey)
	}
}

// newFileID 生成对外的文件 id：毫秒时间戳加随机后缀，
// 进程生命周期内以压倒性概率不重复。
func newFileID() string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
}
