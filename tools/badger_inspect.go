package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

// Command-line twin of the HTTP inspector: dumps the store documents of
// one namespace as a table, decoding each persisted layout just enough
// to stay readable.
func main() {
	dbPath := flag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB")
	// Par défaut on cherche "user:" pour lister le journal des identités
	prefix := flag.String("prefix", "user:", "Prefix to scan (user:, rooms:, room:, roomlog:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Namespace", "Records", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			err := item.Value(func(v []byte) error {
				count, detail := describe(rawKey, v)
				table.Append([]string{
					shortKey(rawKey),
					namespace(rawKey),
					count,
					detail,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

// describe decodes just enough of a document to summarize it on one row.
func describe(key string, value []byte) (count, detail string) {
	switch namespace(key) {
	case "user":
		var doc struct {
			Username  string `json:"username"`
			PublicKey string `json:"publicKey"`
		}
		if err := json.Unmarshal(value, &doc); err != nil {
			return "-", fmt.Sprintf("unreadable: %v", err)
		}
		return "1", fmt.Sprintf("%s (%s)", doc.Username, shortHex(doc.PublicKey))
	case "rooms":
		var docs []struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(value, &docs); err != nil {
			return "-", fmt.Sprintf("unreadable: %v", err)
		}
		created := 0
		for _, d := range docs {
			if strings.HasPrefix(d.Key, "create-") {
				created++
			}
		}
		return fmt.Sprintf("%d", len(docs)), fmt.Sprintf("%d created, %d joined", created, len(docs)-created)
	case "room":
		var docs []struct {
			Username string `json:"username"`
		}
		if err := json.Unmarshal(value, &docs); err != nil {
			return "-", fmt.Sprintf("unreadable: %v", err)
		}
		last := ""
		if len(docs) > 0 {
			last = "last by " + docs[len(docs)-1].Username
		}
		return fmt.Sprintf("%d", len(docs)), last
	case "roomlog":
		var docs []struct {
			Op string `json:"op"`
		}
		if err := json.Unmarshal(value, &docs); err != nil {
			return "-", fmt.Sprintf("unreadable: %v", err)
		}
		appends := 0
		for _, d := range docs {
			if d.Op == "append" {
				appends++
			}
		}
		return fmt.Sprintf("%d", len(docs)), fmt.Sprintf("%d appends", appends)
	default:
		return "-", fmt.Sprintf("%d bytes", len(value))
	}
}

func namespace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// On affiche les clés de salon tronquées pour la lisibilité
func shortKey(key string) string {
	if len(key) > 24 {
		return key[:24] + "…"
	}
	return key
}

func shortHex(hex string) string {
	if len(hex) > 8 {
		return hex[:8]
	}
	return hex
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		// Si corruption détectée, essaie un open en write pour truncate
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			// Ferme et réouvre en read-only
			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
