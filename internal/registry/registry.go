package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotFound 表示目标记录不存在。
var ErrNotFound = errors.New("registry: record not found")

// FileRecord 代表一条已存储文件的元数据。
// StorageKey 是服务内部的落盘位置，永远不对客户端序列化。
type FileRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"type"`
	StorageKey string    `json:"-"`
	UploadDate time.Time `json:"uploadDate"`
}

// Registry 维护进程生命周期内 id 到文件元数据的映射。
// 所有方法都由同一把互斥锁串行化，List 返回快照，
// 迭代期间的并发写入不会影响已返回的序列。
type Registry struct {
	mu      sync.Mutex
	records map[string]*FileRecord
	order   []string // 插入顺序，最早上传的在前
}

func New() *Registry {
	return &Registry{
		records: make(map[string]*FileRecord),
	}
}

// Insert 新增一条记录。id 重复视为编程级不变量被破坏，返回错误。
func (r *Registry) Insert(record *FileRecord) error {
	if record == nil || record.ID == "" {
		return errors.New("registry: record must have an id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.ID]; exists {
		return fmt.Errorf("registry: duplicate id %s", record.ID)
	}

	stored := *record
	r.records[record.ID] = &stored
	r.order = append(r.order, record.ID)
	return nil
}

// Get 返回指定 id 的记录副本，不存在时返回 ErrNotFound。
func (r *Registry) Get(id string) (*FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	out := *record
	return &out, nil
}

// List 按插入顺序返回全部记录的快照。
func (r *Registry) List() []FileRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]FileRecord, 0, len(r.order))
	for _, id := range r.order {
		if record, ok := r.records[id]; ok {
			out = append(out, *record)
		}
	}
	return out
}

// Count 返回当前记录数量。
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Remove 删除指定 id 的记录并返回删除前的内容，不存在时返回 ErrNotFound。
func (r *Registry) Remove(id string) (*FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	delete(r.records, id)
	for i, ordered := range r.order {
		if ordered == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	out := *record
	return &out, nil
}

// Clear 清空全部记录，返回删除的数量。
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := len(r.records)
	r.records = make(map[string]*FileRecord)
	r.order = nil
	return removed
}
