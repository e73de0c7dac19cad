package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// StaticHandler serves files under dir for routes nothing else matched.
// Unknown API paths get a JSON 404.
func StaticHandler(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) || strings.HasPrefix(path, "/api/") {
			notFound(c)
			return
		}

		if path == "/" {
			path = "/index.html"
		}
		file := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+path)))
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			notFound(c)
			return
		}
		c.File(file)
	}
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error": "Not found",
		"code":  "NOT_FOUND",
	})
}
