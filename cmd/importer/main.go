// The importer replays dumped provider payloads (a JSON file or a
// directory tree of them) through the same normalize/reconcile path the
// webhook uses. Files are processed in stable sorted order; a malformed
// file is skipped, never aborts the batch.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/darapanenichandrika7/whatsapp-clone/internal/config"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/db"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/event"
	"github.com/darapanenichandrika7/whatsapp-clone/internal/message"
)

func main() {
	flag.Parse()
	path := flag.Arg(0)
	if path == "" {
		log.Fatalf("usage: importer <payload.json | payload-dir>")
	}

	files, err := collectFiles(path)
	if err != nil {
		log.Fatalf("scan %s: %v", path, err)
	}
	if len(files) == 0 {
		log.Fatalf("no .json payload files under %s", path)
	}

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	engine := message.NewEngine(message.NewRepo(gdb))
	normalizer := event.NewNormalizer()
	ctx := context.Background()

	var processed, skipped, failed int
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Printf("[ERROR] read %s: %v", f, err)
			failed++
			continue
		}

		ev, err := normalizer.NormalizeJSON(data)
		if err != nil {
			if errors.Is(err, event.ErrUnrecognized) {
				log.Printf("[SKIP] unrecognized payload: %s", filepath.Base(f))
				skipped++
				continue
			}
			log.Printf("[ERROR] normalize %s: %v", filepath.Base(f), err)
			failed++
			continue
		}

		out, err := engine.Ingest(ctx, ev)
		if err != nil {
			log.Printf("[ERROR] ingest %s: %v", filepath.Base(f), err)
			failed++
			continue
		}

		switch out.Kind {
		case message.OutcomeRejected:
			log.Printf("[SKIP] %s: %s", filepath.Base(f), out.Reason)
			skipped++
		case message.OutcomeDuplicate:
			if out.DrainedStatus != nil {
				log.Printf("[DRAINED] duplicate %s, applied pending status %s", out.ExternalID, *out.DrainedStatus)
			} else {
				log.Printf("[DUPLICATE] %s", out.ExternalID)
			}
			processed++
		default:
			log.Printf("[%s] %s -> %s", strings.ToUpper(string(out.Kind)), out.ExternalID, out.Status)
			processed++
		}
	}

	log.Printf("=== Summary ===")
	log.Printf("Processed: %d", processed)
	log.Printf("Skipped:   %d", skipped)
	log.Printf("Errors:    %d", failed)
}

func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if strings.EqualFold(filepath.Ext(path), ".json") {
			return []string{path}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".json") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
