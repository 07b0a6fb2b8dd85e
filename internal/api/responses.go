package api

import (
	"encoding/json"
	"net/http"

	"filebin/internal/registry"
)

// 对外错误码，区分客户端可预期的失败与服务端故障。
const (
	codeNoFile       = "NO_FILE"
	codeFileTooLarge = "FILE_TOO_LARGE"
	codeUploadError  = "UPLOAD_ERROR"
	codeNotFound     = "NOT_FOUND"
	codeFileMissing  = "FILE_MISSING"
	codeInternal     = "INTERNAL_ERROR"
)

// errorResponse 是所有错误响应的统一外形。
// ID/Path/AvailableEndpoints 只在对应场景下填充。
type errorResponse struct {
	Error              string   `json:"error"`
	Code               string   `json:"code"`
	ID                 string   `json:"id,omitempty"`
	Path               string   `json:"path,omitempty"`
	AvailableEndpoints []string `json:"availableEndpoints,omitempty"`
}

type uploadResponse struct {
	Message    string               `json:"message"`
	File       *registry.FileRecord `json:"file"`
	TotalFiles int                  `json:"totalFiles"`
}

type listResponse struct {
	Files []registry.FileRecord `json:"files"`
	Count int                   `json:"count"`
}

type deleteResponse struct {
	Message     string `json:"message"`
	DeletedFile string `json:"deletedFile"`
}

type clearResponse struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deletedCount"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

func writeIDError(w http.ResponseWriter, status int, code, message, id string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code, ID: id})
}
