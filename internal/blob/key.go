package blob

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SanitizeFilename 将客户端提供的文件名收敛到安全字符集。
// 路径前缀被剥掉，[A-Za-z0-9._-] 之外的字符替换为下划线，
// 结果保证不包含路径分隔符且非空。
func SanitizeFilename(name string) string {
	// 同时处理 Unix 与 Windows 风格的路径前缀
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	sanitized := strings.Trim(b.String(), ".")
	if sanitized == "" {
		return "file"
	}
	return sanitized
}

// NewStorageKey 为一次上传生成存储键：毫秒时间戳加随机后缀，
// 再拼上净化后的原始文件名，进程生命周期内不会重复。
func NewStorageKey(originalName string) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), suffix, SanitizeFilename(originalName))
}
