package index

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"

	"github.com/datallboy/comexdown/internal/domain"
	"github.com/datallboy/comexdown/internal/infra/logger"
	"github.com/datallboy/comexdown/internal/lock"
)

const (
	ManifestName = "index.json"
	hashBlock    = 4096
)

// In-flight artifacts never enter the manifest
var skippedSuffixes = []string{".part", ".tmp"}

// Index builds and reads the manifest of a data root.
type Index struct {
	fs      afero.Fs
	root    string
	locker  lock.Locker
	log     *logger.Logger
	running atomic.Bool
	now     func() time.Time
}

// New returns an Index for root. A nil locker falls back to an in-process one.
func New(fs afero.Fs, root string, locker lock.Locker, log *logger.Logger) *Index {
	if locker == nil {
		locker = lock.NewLocal()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Index{
		fs:     fs,
		root:   root,
		locker: locker,
		log:    log,
		now:    time.Now,
	}
}

func (i *Index) Root() string {
	return i.root
}

func (i *Index) ManifestPath() string {
	return filepath.Join(i.root, ManifestName)
}

// Rebuild scans every category directory, hashes each regular file and
// replaces the manifest with the full snapshot. Only one rebuild per root runs
// at a time; others get domain.ErrRebuildInProgress.
func (i *Index) Rebuild(ctx context.Context) (domain.DirectoryIndex, error) {
	if !i.running.CompareAndSwap(false, true) {
		return nil, domain.ErrRebuildInProgress
	}
	defer i.running.Store(false)

	release, err := i.locker.TryLock(ctx, i.lockKey())
	if err != nil {
		if errors.Is(err, domain.ErrLocked) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRebuildInProgress, i.root)
		}
		return nil, err
	}
	defer release()

	idx := make(domain.DirectoryIndex, len(domain.IndexCategories))
	total := 0

	for _, category := range domain.IndexCategories {
		records, err := i.scanCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		idx[category] = records
		total += len(records)
	}

	if err := i.write(idx); err != nil {
		return nil, err
	}

	i.log.Info("Indexed %d files under %s", total, i.root)
	return idx, nil
}

func (i *Index) scanCategory(ctx context.Context, category string) ([]domain.FileRecord, error) {
	dir := filepath.Join(i.root, category)
	records := []domain.FileRecord{}

	entries, err := afero.ReadDir(i.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrFilesystem, dir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !entry.Mode().IsRegular() || isSkipped(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		sum, err := i.hash(path)
		if err != nil {
			return nil, err
		}

		i.log.Debug("Hashed %s (%d bytes)", path, entry.Size())

		records = append(records, domain.FileRecord{
			Filepath:  path,
			Size:      entry.Size(),
			Blake2:    sum,
			Timestamp: i.now(),
		})
	}

	return records, nil
}

// hash returns the hex BLAKE2b-512 digest of path.
func (i *Index) hash(path string) (string, error) {
	f, err := i.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", domain.ErrFilesystem, path, err)
	}
	defer f.Close()

	h, err := blake2b.New512(nil)
	if err != nil {
		return "", err
	}

	buf := make([]byte, hashBlock)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: read %s: %w", domain.ErrFilesystem, path, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// write replaces the manifest in one rename so readers never see half of it.
func (i *Index) write(idx domain.DirectoryIndex) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if err := i.fs.MkdirAll(i.root, 0755); err != nil {
		return fmt.Errorf("%w: create %s: %w", domain.ErrFilesystem, i.root, err)
	}

	manifest := i.ManifestPath()
	tmp := manifest + ".tmp"

	if err := afero.WriteFile(i.fs, tmp, data, 0644); err != nil {
		_ = i.fs.Remove(tmp)
		return fmt.Errorf("%w: write %s: %w", domain.ErrFilesystem, tmp, err)
	}

	if err := i.fs.Rename(tmp, manifest); err != nil {
		_ = i.fs.Remove(tmp)
		return fmt.Errorf("%w: rename %s: %w", domain.ErrFilesystem, tmp, err)
	}

	return nil
}

// Load reads the stored manifest.
func (i *Index) Load() (domain.DirectoryIndex, error) {
	manifest := i.ManifestPath()

	data, err := afero.ReadFile(i.fs, manifest)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s does not exist", domain.ErrManifestParse, manifest)
		}
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrFilesystem, manifest, err)
	}

	var idx domain.DirectoryIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrManifestParse, manifest, err)
	}
	if idx == nil {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrManifestParse, manifest)
	}

	return idx, nil
}

func (i *Index) lockKey() string {
	if abs, err := filepath.Abs(i.root); err == nil {
		return abs
	}
	return filepath.Clean(i.root)
}

func isSkipped(name string) bool {
	for _, s := range skippedSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
