package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

const (
	contentJSON  = "application/json"
	contentJSONL = "application/x-ndjson"
)

// ResultsFile marks a run as archived; it is written last.
const ResultsFile = "results.json"

// ArchiveFiles lists the objects stored per run.
var ArchiveFiles = []string{ResultsFile, "transactions.jsonl", "events.jsonl", "actions.jsonl"}

var errNoReader = errors.New("s3blob: no reader configured")

// Archiver uploads a finished run as a set of objects under
// <prefix>/<run id>/:
//
//	results.json        full results document
//	transactions.jsonl  settled ledger, one transaction per line
//	events.jsonl        fired market events
//	actions.jsonl       regulatory actions
type Archiver struct {
	writer domain.BlobWriter
	reader domain.BlobReader
	prefix string
}

// NewArchiver creates an Archiver. reader may be nil when listing is not
// needed.
func NewArchiver(writer domain.BlobWriter, reader domain.BlobReader, prefix string) *Archiver {
	return &Archiver{writer: writer, reader: reader, prefix: strings.Trim(prefix, "/")}
}

// runPath builds the object key of one archived file.
func (a *Archiver) runPath(runID, name string) string {
	return path.Join(a.prefix, runID, name)
}

// Archive uploads res and returns the keys written.
func (a *Archiver) Archive(ctx context.Context, res domain.Results) ([]string, error) {
	doc, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("s3blob: marshal results %s: %w", res.RunID, err)
	}
	ledger, err := marshalJSONL(res.Ledger)
	if err != nil {
		return nil, fmt.Errorf("s3blob: marshal ledger: %w", err)
	}
	events, err := marshalJSONL(res.Events)
	if err != nil {
		return nil, fmt.Errorf("s3blob: marshal events: %w", err)
	}
	actions, err := marshalJSONL(res.Actions)
	if err != nil {
		return nil, fmt.Errorf("s3blob: marshal actions: %w", err)
	}

	files := []struct {
		name        string
		body        []byte
		contentType string
	}{
		{"transactions.jsonl", ledger, contentJSONL},
		{"events.jsonl", events, contentJSONL},
		{"actions.jsonl", actions, contentJSONL},
		{ResultsFile, doc, contentJSON},
	}

	keys := make([]string, 0, len(files))
	for _, f := range files {
		key := a.runPath(res.RunID, f.name)
		if err := a.writer.Put(ctx, key, bytes.NewReader(f.body), f.contentType); err != nil {
			return keys, fmt.Errorf("s3blob: archive %s: %w", f.name, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ListRuns returns the IDs of every archived run, sorted.
func (a *Archiver) ListRuns(ctx context.Context) ([]string, error) {
	if a.reader == nil {
		return nil, errNoReader
	}
	root := a.prefix
	if root != "" {
		root += "/"
	}
	infos, err := a.reader.List(ctx, root)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, info := range infos {
		rest := strings.TrimPrefix(info.Path, root)
		id, file, ok := strings.Cut(rest, "/")
		if !ok || file != ResultsFile || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Open returns one archived file of runID; the caller closes it. An unknown
// file name or a run without results.json yields domain.ErrNotFound.
func (a *Archiver) Open(ctx context.Context, runID, name string) (io.ReadCloser, error) {
	if a.reader == nil {
		return nil, errNoReader
	}
	if runID == "" || strings.Contains(runID, "/") || !slices.Contains(ArchiveFiles, name) {
		return nil, fmt.Errorf("s3blob: open %s/%s: %w", runID, name, domain.ErrNotFound)
	}
	ok, err := a.reader.Exists(ctx, a.runPath(runID, ResultsFile))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("s3blob: run %s: %w", runID, domain.ErrNotFound)
	}
	return a.reader.Get(ctx, a.runPath(runID, name))
}

// marshalJSONL encodes records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
