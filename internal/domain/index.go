package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the textual form of FileRecord.Timestamp in the manifest.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// Index categories, in scan order. Each one is a directory directly under the root.
const (
	CategoryDirAux    = "auxiliary-tables"
	CategoryDirExp    = "exp"
	CategoryDirImp    = "imp"
	CategoryDirExpMun = "exp-mun"
	CategoryDirImpMun = "imp-mun"
	CategoryDirExpNBM = "exp-nbm"
	CategoryDirImpNBM = "imp-nbm"
)

var IndexCategories = []string{
	CategoryDirAux,
	CategoryDirExp,
	CategoryDirImp,
	CategoryDirExpMun,
	CategoryDirImpMun,
	CategoryDirExpNBM,
	CategoryDirImpNBM,
}

// FileRecord describes one file of an index snapshot.
type FileRecord struct {
	Filepath  string
	Size      int64
	Blake2    string
	Timestamp time.Time
}

type fileRecordJSON struct {
	Filepath  string `json:"filepath"`
	Size      int64  `json:"size"`
	Blake2    string `json:"blake2"`
	Timestamp string `json:"timestamp"`
}

func (r FileRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(fileRecordJSON{
		Filepath:  r.Filepath,
		Size:      r.Size,
		Blake2:    r.Blake2,
		Timestamp: r.Timestamp.Format(TimestampLayout),
	})
}

func (r *FileRecord) UnmarshalJSON(data []byte) error {
	var raw fileRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ts, err := time.ParseInLocation(TimestampLayout, raw.Timestamp, time.Local)
	if err != nil {
		return fmt.Errorf("file %s: bad timestamp %q: %w", raw.Filepath, raw.Timestamp, err)
	}

	*r = FileRecord{
		Filepath:  raw.Filepath,
		Size:      raw.Size,
		Blake2:    raw.Blake2,
		Timestamp: ts,
	}
	return nil
}

// DirectoryIndex maps a category directory name to its files in scan order.
type DirectoryIndex map[string][]FileRecord

// Files returns every record across categories, following IndexCategories order.
func (idx DirectoryIndex) Files() []FileRecord {
	var out []FileRecord
	for _, c := range IndexCategories {
		out = append(out, idx[c]...)
	}
	return out
}
