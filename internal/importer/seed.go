package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/topic"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/worker"
)

// SeedSummary reports what LoadSeedDir did.
type SeedSummary struct {
	Topics         int
	Files          int
	FilesSkipped   int
	QuestionsAdded int
}

type seedFile struct {
	topic string
	path  string
}

type parsedFile struct {
	seedFile
	doc *Document
	err error
}

// LoadSeedDir imports every <dir>/<topic>/<file>.{json,yaml,yml}. The topic
// is named after its sub-directory and created if missing. Files are parsed
// concurrently on workers goroutines; storage writes happen one at a time in
// path order. Invalid files are logged and skipped.
func (im *Importer) LoadSeedDir(ctx context.Context, dir string, workers int) (SeedSummary, error) {
	var summary SeedSummary

	files, err := listSeedFiles(dir)
	if err != nil {
		return summary, err
	}
	if len(files) == 0 {
		return summary, nil
	}

	pool := worker.NewPool[parsedFile](workers, len(files))
	go func() {
		for _, f := range files {
			f := f
			pool.Submit(f.path, func() parsedFile { return parseSeedFile(f) })
		}
		pool.Close()
	}()

	parsed := make([]parsedFile, 0, len(files))
	for r := range pool.Results() {
		parsed = append(parsed, r.Output)
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].path < parsed[j].path })

	topicIDs := make(map[string]int64)
	for _, p := range parsed {
		if p.err != nil {
			im.logger.Warn("skipping invalid seed file", "path", p.path, "error", p.err)
			summary.FilesSkipped++
			continue
		}

		topicID, ok := topicIDs[p.topic]
		if !ok {
			t, err := topic.New(p.topic)
			if err != nil {
				im.logger.Warn("skipping seed file with unusable topic", "path", p.path, "error", err)
				summary.FilesSkipped++
				continue
			}
			if topicID, err = im.store.CreateTopic(ctx, t.Name); err != nil {
				return summary, fmt.Errorf("seed topic %q: %w", t.Name, err)
			}
			topicIDs[p.topic] = topicID
			summary.Topics++
		}

		res, err := im.Import(ctx, topicID, p.doc)
		if err != nil {
			return summary, fmt.Errorf("seed %s: %w", p.path, err)
		}
		summary.Files++
		summary.QuestionsAdded += res.Added
	}

	im.logger.Info("seed directory loaded",
		"dir", dir,
		"topics", summary.Topics,
		"files", summary.Files,
		"files_skipped", summary.FilesSkipped,
		"questions_added", summary.QuestionsAdded,
	)
	return summary, nil
}

func listSeedFiles(dir string) ([]seedFile, error) {
	topics, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read seed dir: %w", err)
	}

	var files []seedFile
	for _, t := range topics {
		if !t.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(dir, t.Name()))
		if err != nil {
			return nil, fmt.Errorf("read seed topic %q: %w", t.Name(), err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if _, ok := FormatFromPath(e.Name()); !ok {
				continue
			}
			files = append(files, seedFile{topic: t.Name(), path: filepath.Join(dir, t.Name(), e.Name())})
		}
	}
	return files, nil
}

func parseSeedFile(f seedFile) parsedFile {
	format, _ := FormatFromPath(f.path)

	fh, err := os.Open(f.path)
	if err != nil {
		return parsedFile{seedFile: f, err: err}
	}
	defer fh.Close()

	doc, err := Decode(fh, format)
	return parsedFile{seedFile: f, doc: doc, err: err}
}
