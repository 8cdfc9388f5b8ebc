// Command cacheinspect dumps the on-disk palette cache.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "palette:"

func main() {
	defaultPath := os.Getenv("CACHE_PATH")
	if defaultPath == "" {
		defaultPath = os.ExpandEnv("$HOME/.profilehue/cache")
	}
	path := flag.String("path", defaultPath, "Badger cache directory")
	limit := flag.Int("limit", 20, "Entries to print (0 prints only the summary)")
	flag.Parse()

	opts := badger.DefaultOptions(*path).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open cache: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Palette Cache ===")
	fmt.Println()

	entries := 0
	totalColors := 0
	expiring := 0
	corrupt := 0

	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(val []byte) error {
				var colors []string
				if err := json.Unmarshal(val, &colors); err != nil {
					return err
				}

				entries++
				totalColors += len(colors)

				expiry := "never"
				if exp := item.ExpiresAt(); exp > 0 {
					expiring++
					expiry = time.Unix(int64(exp), 0).UTC().Format(time.RFC3339)
				}

				if entries <= *limit {
					fmt.Printf("%s\n", strings.TrimPrefix(key, keyPrefix))
					fmt.Printf("  Colors (%d): %s\n", len(colors), strings.Join(colors, " "))
					fmt.Printf("  Expires: %s\n", expiry)
				}
				return nil
			})
			if err != nil {
				corrupt++
				log.Printf("Error reading entry %s: %v", key, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating cache: %v", err)
	}

	if entries > *limit && *limit > 0 {
		fmt.Printf("... and %d more entries\n", entries-*limit)
	}
	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Printf("Entries: %d\n", entries)
	fmt.Printf("Entries with TTL: %d\n", expiring)
	fmt.Printf("Unreadable entries: %d\n", corrupt)
	if entries > 0 {
		fmt.Printf("Average colors per entry: %.1f\n", float64(totalColors)/float64(entries))
	}
}
