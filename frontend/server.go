// Package frontend embeds the single-page UI served at the site root.
package frontend

import (
	"embed"
	"net/http"
)

//go:embed index.html
var content embed.FS

// Handler serves the embedded page. Unknown paths fall back to the page
// so a browser refresh anywhere still loads the app.
func Handler() http.Handler {
	page, err := content.ReadFile("index.html")
	if err != nil {
		panic("frontend: embedded index.html missing: " + err.Error())
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write(page)
		}
	})
}
