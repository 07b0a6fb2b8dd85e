package api

import (
	"net/http"
	"os"
	"path/filepath"
)

// StaticHandler 提供前端静态资源。请求路径对应的文件存在时直接返回，
// 其余路径回退到 index.html，交给前端路由处理。
func StaticHandler(webDir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(webDir))

	return func(w http.ResponseWriter, r *http.Request) {
		// Clean 配合前导斜杠，杜绝 .. 段逃出资源目录
		requested := filepath.Join(webDir, filepath.Clean("/"+r.URL.Path))

		info, err := os.Stat(requested)
		if err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, filepath.Join(webDir, "index.html"))
	}
}
