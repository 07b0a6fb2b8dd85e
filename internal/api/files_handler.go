package api

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"filebin/internal/blob"
	"filebin/internal/registry"
	"filebin/internal/service"

	"github.com/go-chi/chi/v5"
)

// FileHandler 提供文件上传、列表、下载与删除的 HTTP 端点。
type FileHandler struct {
	service        *service.FileService
	maxUploadBytes int64
	logger         *log.Logger
}

func NewFileHandler(s *service.FileService, maxUploadBytes int64, logger *log.Logger) *FileHandler {
	return &FileHandler{service: s, maxUploadBytes: maxUploadBytes, logger: logger}
}

func (h *FileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Post("/upload", h.Upload)
	r.Route("/files", func(r chi.Router) {
		r.Get("/", h.ListFiles)
		r.Delete("/", h.DeleteAllFiles)
		r.Get("/{id}", h.DownloadFile)
		r.Delete("/{id}", h.DeleteFile)
	})
	r.NotFound(h.NotFound)
}

// multipart 解析的内存预算，超出部分落到临时文件。
const multipartMemoryBudget int64 = 16 * 1024 * 1024

// Upload 接受 multipart/form-data 上传，字段名必须是 file。
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		writeError(w, http.StatusInternalServerError, codeInternal, "handler not initialized")
		return
	}
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, codeNoFile, "request body is empty")
		return
	}

	// 留出表单开销的余量，精确的大小判定由存储层负责
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartMemoryBudget)
	defer r.Body.Close()

	if err := r.ParseMultipartForm(multipartMemoryBudget); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, codeFileTooLarge,
				fmt.Sprintf("file exceeds size limit (%d bytes)", h.maxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, codeNoFile, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeNoFile, "file field is required")
		return
	}
	defer file.Close()

	record, total, err := h.service.Upload(r.Context(), service.UploadInput{
		Name:      header.Filename,
		MimeType:  header.Header.Get("Content-Type"),
		Reader:    file,
		SizeLimit: h.maxUploadBytes,
	})
	if err != nil {
		if errors.Is(err, blob.ErrSizeLimitExceeded) {
			writeError(w, http.StatusRequestEntityTooLarge, codeFileTooLarge,
				fmt.Sprintf("file exceeds size limit (%d bytes)", h.maxUploadBytes))
			return
		}
		h.logger.Printf("upload: 写入失败 name=%s: %v", header.Filename, err)
		writeError(w, http.StatusInternalServerError, codeUploadError, "failed to store file")
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Message:    "File uploaded successfully",
		File:       record,
		TotalFiles: total,
	})
}

// ListFiles 按上传顺序返回全部文件的元数据。
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		writeError(w, http.StatusInternalServerError, codeInternal, "handler not initialized")
		return
	}

	files, count := h.service.ListFiles()
	if files == nil {
		files = []registry.FileRecord{}
	}

	writeJSON(w, http.StatusOK, listResponse{Files: files, Count: count})
}

// DownloadFile 返回文件内容，带原始文件名作为保存建议。
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		writeError(w, http.StatusInternalServerError, codeInternal, "handler not initialized")
		return
	}

	id := chi.URLParam(r, "id")
	record, content, err := h.service.OpenFile(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrNotFound):
			writeIDError(w, http.StatusNotFound, codeNotFound, "file not found", id)
		case errors.Is(err, service.ErrBlobMissing):
			writeIDError(w, http.StatusNotFound, codeFileMissing, "file content is missing", id)
		default:
			h.logger.Printf("download: 读取失败 id=%s: %v", id, err)
			writeError(w, http.StatusInternalServerError, codeInternal, "failed to read file")
		}
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", record.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.Name))
	w.Header().Set("Content-Length", strconv.FormatInt(record.Size, 10))

	if _, err := io.Copy(w, content); err != nil {
		// 客户端可能已断开，无法再写入错误响应
		return
	}
}

// DeleteFile 删除指定 id 的文件。
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		writeError(w, http.StatusInternalServerError, codeInternal, "handler not initialized")
		return
	}

	id := chi.URLParam(r, "id")
	record, err := h.service.DeleteFile(r.Context(), id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeIDError(w, http.StatusNotFound, codeNotFound, "file not found", id)
			return
		}
		h.logger.Printf("delete: 删除失败 id=%s: %v", id, err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to delete file")
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{
		Message:     "File deleted successfully",
		DeletedFile: record.Name,
	})
}

// DeleteAllFiles 删除全部文件并返回清除的数量。
func (h *FileHandler) DeleteAllFiles(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		writeError(w, http.StatusInternalServerError, codeInternal, "handler not initialized")
		return
	}

	count := h.service.DeleteAll(r.Context())

	writeJSON(w, http.StatusOK, clearResponse{
		Message:      "All files deleted",
		DeletedCount: count,
	})
}

// Health 返回存活探测信息。
func (h *FileHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Message:   "file server is running",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// apiEndpoints 列出 API 命名空间下的已知端点，辅助接口发现。
var apiEndpoints = []string{
	"GET /api/health",
	"POST /api/upload",
	"GET /api/files",
	"GET /api/files/{id}",
	"DELETE /api/files/{id}",
	"DELETE /api/files",
}

// NotFound 处理 API 命名空间下未匹配的路由，
// 与具体资源不存在的 404 区分开。
func (h *FileHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{
		Error:              "endpoint not found",
		Code:               codeNotFound,
		Path:               r.URL.Path,
		AvailableEndpoints: apiEndpoints,
	})
}
