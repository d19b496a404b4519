package services

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// DirectoryWatcher keeps the vector index in sync with the reference-document
// directory: whenever a DOCX file is created or modified, the whole directory
// is re-extracted and re-ingested. Full re-ingest keeps record ids stable
// (they are positions in the overall sequence), so every run overwrites the
// same rows.
type DirectoryWatcher struct {
	pipeline *RetrievalPipeline
}

// NewDirectoryWatcher creates a watcher over the given pipeline.
func NewDirectoryWatcher(pipeline *RetrievalPipeline) *DirectoryWatcher {
	return &DirectoryWatcher{pipeline: pipeline}
}

// Watch blocks until the context is cancelled, re-ingesting dirPath whenever
// a document in it changes. Editors often write via create-temp-and-rename,
// which fires several events per save; Create and Write are handled the same
// and both trigger a full re-ingest.
func (w *DirectoryWatcher) Watch(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// fsnotify is non-recursive: a newly created organization
				// subdirectory must be added to the watch before its
				// documents can fire events.
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := addDirsRecursive(watcher, event.Name); err != nil {
							log.Printf("WATCHER ERROR: Failed to watch new directory %s: %v", event.Name, err)
						}
						continue
					}
				}
				if !strings.EqualFold(filepath.Ext(event.Name), ".docx") {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					log.Printf("WATCHER: %s changed (%s). Re-ingesting directory...", event.Name, event.Op)
					w.reingest(ctx, dirPath)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)

			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory tree: %s", dirPath)
	if err := addDirsRecursive(watcher, dirPath); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
	}

	<-ctx.Done()
}

// addDirsRecursive registers every directory under root with the watcher.
// The reference layout nests documents one level down (data/<organization>/
// <rule>.docx), and fsnotify only reports events for directories it was
// explicitly given.
func addDirsRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

func (w *DirectoryWatcher) reingest(ctx context.Context, dirPath string) {
	records, err := ExtractRecordsFromDir(dirPath)
	if err != nil {
		log.Printf("WATCHER ERROR: Could not extract records from %s: %v", dirPath, err)
		return
	}
	summary := w.pipeline.Ingest(ctx, records)
	log.Printf("WATCHER: %s", summary)
}
