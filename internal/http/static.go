package http

import (
	"bytes"
	stdhttp "net/http"
	"time"

	_ "embed"
)

var (
	//go:embed static/robots.txt
	robots []byte

	//go:embed static/favicon.ico
	favicon []byte
)

func robotsHandler(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	stdhttp.ServeContent(w, r, "robots.txt", time.Time{}, bytes.NewReader(robots))
}

func faviconHandler(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	w.Header().Set("Content-Type", "image/x-icon")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	stdhttp.ServeContent(w, r, "favicon.ico", time.Time{}, bytes.NewReader(favicon))
}
