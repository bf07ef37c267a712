package corpus

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vdd9/frvm/internal/fs"
	"github.com/vdd9/frvm/model"
)

// VideoExt is the storage extension entities are enumerated by.
const VideoExt = ".mp4"

// SidecarExt is the extension of the per-entity sidecar text file.
const SidecarExt = ".txt"

// Entry is one enumerated entity with its sidecar text, if present.
type Entry struct {
	ID        model.EntityID
	Partition model.Partition
	Sidecar   string
}

// SidecarPath returns the sidecar file location for an entity: the video
// path with its extension replaced.
func SidecarPath(root string, id model.EntityID) string {
	p := filepath.Join(root, filepath.FromSlash(string(id)))
	return strings.TrimSuffix(p, filepath.Ext(p)) + SidecarExt
}

// Scanner enumerates a library root on the local filesystem.
type Scanner struct {
	fsys fs.FileSystem
	root string
}

// NewScanner creates a scanner over root using fsys (fs.Default if nil).
func NewScanner(fsys fs.FileSystem, root string) *Scanner {
	if fsys == nil {
		fsys = fs.Default
	}
	return &Scanner{fsys: fsys, root: root}
}

// Scan enumerates "<root>/<partition>/*.mp4" for every partition and reads
// each entity's sidecar text. Partitions are scanned in parallel; within a
// partition entries are ordered by file name so ordinal assignment is
// deterministic. A missing partition folder yields no entries and no error.
func (s *Scanner) Scan(partitions []model.Partition) ([]Entry, error) {
	perPartition := make([][]Entry, len(partitions))

	var g errgroup.Group
	for i, p := range partitions {
		g.Go(func() error {
			entries, err := s.scanPartition(p)
			if err != nil {
				return err
			}
			perPartition[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Entry
	for _, entries := range perPartition {
		out = append(out, entries...)
	}
	return out, nil
}

func (s *Scanner) scanPartition(p model.Partition) ([]Entry, error) {
	dir := filepath.Join(s.root, string(p))
	dirents, err := s.fsys.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, de := range dirents {
		if de.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(de.Name()), VideoExt) {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		id := model.NewEntityID(p, name)
		e := Entry{ID: id, Partition: p}
		if data, err := fs.ReadFile(s.fsys, SidecarPath(s.root, id)); err == nil {
			e.Sidecar = string(data)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
