package internal

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/shirou/gopsutil/process"
)

// InspectRow is one store entry rendered by the inspector.
type InspectRow struct {
	Key       string
	Namespace string
	Size      int
	Preview   string
}

type pageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

const inspectTemplate = `<!DOCTYPE html>
<html>
<head><title>clipchat inspector</title>
<style>
body { font-family: monospace; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
td, th { border: 1px solid #999; padding: 4px 8px; text-align: left; }
th { background: #eee; }
.stats { margin-bottom: 1.5em; }
</style>
</head>
<body>
<h1>clipchat store inspector</h1>
<div class="stats">
{{range $k, $v := .Stats}}<b>{{$k}}</b>: {{$v}}&nbsp;&nbsp;{{end}}
</div>
<form method="get">
  prefix: <input name="prefix" value="{{.Prefix}}"> <input type="submit" value="filter">
</form>
<table>
<tr><th>key</th><th>namespace</th><th>size</th><th>preview</th></tr>
{{range .Items}}
<tr><td>{{.Key}}</td><td>{{.Namespace}}</td><td>{{.Size}}</td><td>{{.Preview}}</td></tr>
{{end}}
</table>
</body>
</html>`

const previewLimit = 120

// StartDebugServer exposes a read-only view of the Badger store plus
// process self-stats on /inspect. Intended for local debugging; it binds
// the loopback interface only.
func StartDebugServer(db *badger.DB, port int) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.New("inspect").Parse(inspectTemplate))

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")

		var items []InspectRow
		err := db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()

			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				row := InspectRow{Key: string(item.Key())}
				if idx := strings.IndexByte(row.Key, ':'); idx > 0 {
					row.Namespace = row.Key[:idx]
				}
				err := item.Value(func(val []byte) error {
					row.Size = len(val)
					preview := string(val)
					if len(preview) > previewLimit {
						preview = preview[:previewLimit] + "..."
					}
					row.Preview = preview
					return nil
				})
				if err != nil {
					return err
				}
				items = append(items, row)
			}
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		_ = tmpl.Execute(w, pageData{Prefix: prefix, Items: items, Stats: selfStats()})
	})

	go func() {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		_ = http.ListenAndServe(addr, mux)
	}()
}

// selfStats collects process and runtime numbers for the stats banner.
func selfStats() map[string]any {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := map[string]any{
		"time":       time.Now().Format(time.RFC822),
		"goroutines": runtime.NumGoroutine(),
		"alloc_mb":   memStats.Alloc / (1 << 20),
		"num_gc":     memStats.NumGC,
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if rss, err := p.MemoryInfo(); err == nil {
			stats["rss_mb"] = rss.RSS / (1 << 20)
		}
		if cpu, err := p.CPUPercent(); err == nil {
			stats["cpu_pct"] = fmt.Sprintf("%.1f", cpu)
		}
	}
	return stats
}
