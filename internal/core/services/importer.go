package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/ports/driven"
	"github.com/custodia-labs/rewind/internal/core/ports/driving"
	"github.com/custodia-labs/rewind/internal/logger"
)

// Ensure Importer implements the interface.
var _ driving.ImportService = (*Importer)(nil)

// stampLayout is the capture time encoded at the start of image file names.
const stampLayout = "20060102-150405"

// Suffixes of the JSON sidecars read next to captured media.
const (
	ocrSidecarSuffix    = ".ocr.json"
	videoManifestSuffix = ".frames.json"
)

// rewindNamespace scopes the name-based UUIDs generated for imported frames,
// so re-importing the same file replaces its frame instead of duplicating it.
var rewindNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://custodia-labs.dev/rewind"))

// versionBumper increments the data-source version after an import.
type versionBumper interface {
	BumpDataSourceVersion() (int64, error)
}

// Importer indexes captured frames from a directory tree.
//
// Images (.png, .jpg, .jpeg) become one frame each, timestamped from a
// YYYYMMDD-HHMMSS file name prefix or the file's modification time, with
// OCR nodes read from an optional <name>.ocr.json sidecar. Videos are
// imported only when a <name>.frames.json manifest lists their frames.
// Each directory (and each video) is one recording segment.
type Importer struct {
	indexer  driven.FrameIndexer
	versions versionBumper
	log      *slog.Logger
}

// NewImporter creates an importer. versions may be nil.
func NewImporter(indexer driven.FrameIndexer, versions versionBumper) *Importer {
	return &Importer{
		indexer:  indexer,
		versions: versions,
		log:      logger.For("import"),
	}
}

// sidecarNode is one OCR region in a sidecar file.
type sidecarNode struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Text string  `json:"text"`
}

// manifestFrame is one frame listed in a video manifest.
type manifestFrame struct {
	Index     int           `json:"index"`
	Timestamp time.Time     `json:"timestamp"`
	OCR       []sidecarNode `json:"ocr"`
}

type pendingFrame struct {
	frame domain.FrameRef
	nodes []sidecarNode
}

// Import scans dir and writes every frame it finds.
func (i *Importer) Import(ctx context.Context, dir string) (*domain.ImportResult, error) {
	started := time.Now()
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve import dir: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat import dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	images := make(map[string][]string)
	var videos []string
	err = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		switch {
		case isImageFile(d.Name()):
			images[filepath.Dir(p)] = append(images[filepath.Dir(p)], p)
		case isVideoFile(d.Name()):
			videos = append(videos, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk import dir: %w", err)
	}

	result := &domain.ImportResult{}
	var batches [][]pendingFrame
	for _, d := range sortedKeys(images) {
		batches = append(batches, i.imageSegment(d, images[d], result))
	}
	sort.Strings(videos)
	for _, v := range videos {
		batches = append(batches, i.videoSegment(v, result))
	}

	for _, batch := range batches {
		if len(batch) == 0 {
			continue
		}
		result.Segments++
		for _, p := range batch {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			nodes := toNodes(p.frame.ID, p.nodes)
			if err := i.indexer.SaveFrame(ctx, p.frame, nodes); err != nil {
				return result, fmt.Errorf("save frame %s: %w", p.frame.Locator.Path, err)
			}
			result.Frames++
			result.Nodes += len(nodes)
		}
	}

	if result.Frames > 0 && i.versions != nil {
		v, err := i.versions.BumpDataSourceVersion()
		if err != nil {
			return result, fmt.Errorf("bump data-source version: %w", err)
		}
		result.DataSourceVersion = v
	}
	result.Duration = time.Since(started)
	i.log.Info("import finished", "dir", root, "frames", result.Frames, "skipped", result.Skipped)
	return result, nil
}

func (i *Importer) imageSegment(dir string, paths []string, result *domain.ImportResult) []pendingFrame {
	segment := domain.SegmentID(uuid.NewSHA1(rewindNamespace, []byte(dir)).String())
	var batch []pendingFrame
	for _, p := range paths {
		ts, err := captureTime(p)
		if err != nil {
			i.log.Warn("skipping image", "path", p, "error", err)
			result.Skipped++
			continue
		}
		nodes, err := readSidecar(strings.TrimSuffix(p, filepath.Ext(p)) + ocrSidecarSuffix)
		if err != nil {
			i.log.Warn("ignoring OCR sidecar", "path", p, "error", err)
		}
		batch = append(batch, pendingFrame{
			frame: domain.FrameRef{
				ID:        frameID(p, 0),
				Timestamp: ts,
				SegmentID: segment,
				Locator:   &domain.Locator{Kind: domain.LocatorImage, Path: p},
			},
			nodes: nodes,
		})
	}
	return spreadTimestamps(batch)
}

func (i *Importer) videoSegment(path string, result *domain.ImportResult) []pendingFrame {
	manifest := strings.TrimSuffix(path, filepath.Ext(path)) + videoManifestSuffix
	data, err := os.ReadFile(manifest)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			i.log.Warn("unreadable video manifest", "path", manifest, "error", err)
		}
		result.Skipped++
		return nil
	}
	var frames []manifestFrame
	if err := json.Unmarshal(data, &frames); err != nil {
		i.log.Warn("invalid video manifest", "path", manifest, "error", err)
		result.Skipped++
		return nil
	}

	segment := domain.SegmentID(uuid.NewSHA1(rewindNamespace, []byte(path)).String())
	batch := make([]pendingFrame, 0, len(frames))
	for _, f := range frames {
		batch = append(batch, pendingFrame{
			frame: domain.FrameRef{
				ID:        frameID(path, f.Index),
				Timestamp: f.Timestamp,
				SegmentID: segment,
				Locator:   &domain.Locator{Kind: domain.LocatorVideo, Path: path, FrameIndex: f.Index},
			},
			nodes: f.OCR,
		})
	}
	return spreadTimestamps(batch)
}

// spreadTimestamps sorts a batch and nudges equal timestamps apart by a
// millisecond so the store keeps a strict order.
func spreadTimestamps(batch []pendingFrame) []pendingFrame {
	sort.SliceStable(batch, func(a, b int) bool {
		return batch[a].frame.Timestamp.Before(batch[b].frame.Timestamp)
	})
	for k := 1; k < len(batch); k++ {
		prev := batch[k-1].frame.Timestamp
		if !batch[k].frame.Timestamp.After(prev) {
			batch[k].frame.Timestamp = prev.Add(time.Millisecond)
		}
	}
	return batch
}

func frameID(path string, index int) domain.FrameID {
	return domain.FrameID(uuid.NewSHA1(rewindNamespace, []byte(path+"#"+strconv.Itoa(index))).String())
}

func toNodes(id domain.FrameID, in []sidecarNode) []domain.OCRNode {
	nodes := make([]domain.OCRNode, 0, len(in))
	for k, n := range in {
		nodes = append(nodes, domain.OCRNode{
			ID:      uuid.NewSHA1(rewindNamespace, []byte(string(id)+"/"+strconv.Itoa(k))).String(),
			FrameID: id,
			Box:     domain.Rect{X: n.X, Y: n.Y, W: n.W, H: n.H},
			Text:    n.Text,
		})
	}
	return nodes
}

func captureTime(path string) (time.Time, error) {
	stem := filepath.Base(path)
	if len(stem) >= len(stampLayout) {
		if t, err := time.ParseInLocation(stampLayout, stem[:len(stampLayout)], time.Local); err == nil {
			return t, nil
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func readSidecar(path string) ([]sidecarNode, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var nodes []sidecarNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

func isVideoFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".mov", ".mkv", ".webm", ".avi":
		return true
	}
	return false
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		keys = append(keys, k)
		sort.Strings(v)
	}
	sort.Strings(keys)
	return keys
}
