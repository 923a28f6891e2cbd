package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crimson-sun/novelty/internal/model"
)

// Save writes doc to path, always at CurrentVersion, via a temp file and
// atomic rename so a concurrent reader never observes a partial write.
func Save(path string, doc Document) error {
	doc.Version = CurrentVersion

	buf, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &model.Error{Kind: model.SnapshotFormat, Field: "", Message: fmt.Sprintf("encode snapshot: %v", err)}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return &model.Error{Kind: model.SnapshotFormat, Field: "", Message: fmt.Sprintf("create temp file: %v", err)}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return &model.Error{Kind: model.SnapshotFormat, Field: "", Message: fmt.Sprintf("write temp file: %v", err)}
	}
	if err := tmp.Close(); err != nil {
		return &model.Error{Kind: model.SnapshotFormat, Field: "", Message: fmt.Sprintf("close temp file: %v", err)}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &model.Error{Kind: model.SnapshotFormat, Field: "", Message: fmt.Sprintf("rename temp file: %v", err)}
	}
	return nil
}

// Load reads and validates a snapshot file, defaulting the fields that
// versions 1 and 2 omitted, per spec §4.7 and §8 scenario 6. It rejects
// versions newer than CurrentVersion with SNAPSHOT_FORMAT, and
// semantically invalid fields (e.g. g <= 0) with SNAPSHOT_INCOMPATIBLE.
func Load(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, &model.Error{Kind: model.SnapshotFormat, Field: "", Message: fmt.Sprintf("read snapshot: %v", err)}
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return Document{}, &model.Error{Kind: model.SnapshotFormat, Field: "", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}

	sch, err := schema()
	if err != nil {
		return Document{}, &model.Error{Kind: model.SnapshotFormat, Field: "", Message: fmt.Sprintf("internal schema error: %v", err)}
	}
	if err := sch.Validate(generic); err != nil {
		return Document{}, &model.Error{Kind: model.SnapshotFormat, Field: "", Message: fmt.Sprintf("schema validation: %v", err)}
	}

	var doc Document
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&doc); err != nil {
		return Document{}, &model.Error{Kind: model.SnapshotFormat, Field: "", Message: fmt.Sprintf("decode snapshot: %v", err)}
	}

	if doc.Version > CurrentVersion {
		return Document{}, &model.Error{Kind: model.SnapshotFormat, Field: "version", Message: fmt.Sprintf("unknown snapshot version %d", doc.Version)}
	}
	// applyDefaults turns a zero G into 1.0, so an explicit "g": 0 is
	// rejected here, before the default for an absent g is applied.
	if fields, ok := generic.(map[string]interface{}); ok {
		if g, ok := fields["g"].(float64); ok && g <= 0 {
			return Document{}, &model.Error{Kind: model.SnapshotIncompatible, Field: "g", Message: fmt.Sprintf("g must be positive, got %v", g)}
		}
	}
	doc.applyDefaults()

	if doc.G <= 0 {
		return Document{}, &model.Error{Kind: model.SnapshotIncompatible, Field: "g", Message: fmt.Sprintf("g must be positive, got %v", doc.G)}
	}
	for _, v := range doc.TokenCounts {
		if v < 0 {
			return Document{}, &model.Error{Kind: model.SnapshotIncompatible, Field: "token_counts", Message: "negative stored count"}
		}
	}
	for _, v := range doc.TemplateCounts {
		if v < 0 {
			return Document{}, &model.Error{Kind: model.SnapshotIncompatible, Field: "template_counts", Message: "negative stored count"}
		}
	}

	return doc, nil
}
