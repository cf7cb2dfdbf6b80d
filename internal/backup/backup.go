// Package backup creates and restores archives of the CrowdTune store.
// A backup is a zip with a manifest and one JSONL file per entity type;
// restoring replaces the store's contents and rebuilds all indexes.
package backup

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"encoding/json/v2"

	"github.com/crowdtune/crowdtune-server/internal/backup/stream"
	"github.com/crowdtune/crowdtune-server/internal/domain"
	"github.com/crowdtune/crowdtune-server/internal/store"
)

// Archive entry names.
const (
	manifestFile  = "manifest.json"
	usersFile     = "users.jsonl"
	playlistsFile = "playlists.jsonl"
	tagsFile      = "tags.jsonl"
	votesFile     = "votes.jsonl"
)

const backupPrefix = "crowdtune-backup-"

// Service manages backup creation, listing, and restore.
type Service struct {
	store  *store.Store
	dir    string
	logger *slog.Logger
}

// Info describes one backup archive on disk.
type Info struct {
	Path     string   `json:"path"`
	Size     int64    `json:"size"`
	Manifest Manifest `json:"manifest"`
}

// NewService creates a backup service writing archives under dir.
func NewService(s *store.Store, dir string, logger *slog.Logger) *Service {
	return &Service{
		store:  s,
		dir:    dir,
		logger: logger,
	}
}

// Create snapshots the store and writes a timestamped archive.
// Returns the archive path and its manifest.
func (s *Service) Create(ctx context.Context) (string, *Manifest, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("snapshot store: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", nil, fmt.Errorf("create backup dir: %w", err)
	}

	manifest := &Manifest{
		Version:   manifestVersion,
		CreatedAt: time.Now().UTC(),
		Counts: map[string]int{
			"users":     len(snap.Users),
			"playlists": len(snap.Playlists),
			"tags":      len(snap.Tags),
			"votes":     len(snap.Votes),
		},
	}

	name := backupPrefix + manifest.CreatedAt.Format("20060102-150405") + ".zip"
	path := filepath.Join(s.dir, name)

	if err := s.writeArchive(path, manifest, snap); err != nil {
		// Leave no partial archive behind.
		_ = os.Remove(path)
		return "", nil, err
	}

	s.logger.Info("backup created",
		"path", path,
		"users", manifest.Counts["users"],
		"playlists", manifest.Counts["playlists"],
		"tags", manifest.Counts["tags"],
		"votes", manifest.Counts["votes"],
	)
	return path, manifest, nil
}

func (s *Service) writeArchive(path string, manifest *Manifest, snap *store.Snapshot) error {
	f, err := os.Create(path) //#nosec G304 -- path is built from the configured backup dir
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	mw, err := zw.Create(manifestFile)
	if err != nil {
		return err
	}
	if err := json.MarshalWrite(mw, manifest); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	if err := stream.WriteJSONL(zw, usersFile, snap.Users); err != nil {
		return err
	}
	if err := stream.WriteJSONL(zw, playlistsFile, snap.Playlists); err != nil {
		return err
	}
	if err := stream.WriteJSONL(zw, tagsFile, snap.Tags); err != nil {
		return err
	}
	if err := stream.WriteJSONL(zw, votesFile, snap.Votes); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}

// List returns the archives under the backup dir, newest first.
func (s *Service) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var infos []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, ".zip") {
			continue
		}

		path := filepath.Join(s.dir, name)
		manifest, err := readManifest(path)
		if err != nil {
			s.logger.Warn("skipping unreadable backup", "path", path, "error", err)
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			return nil, err
		}

		infos = append(infos, Info{
			Path:     path,
			Size:     fi.Size(),
			Manifest: *manifest,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Manifest.CreatedAt.After(infos[j].Manifest.CreatedAt)
	})
	return infos, nil
}

// Restore replaces the store's contents with the archive at path.
// Existing data is dropped, active sessions included.
func (s *Service) Restore(ctx context.Context, path string) error {
	zr, err := zip.OpenReader(path) //#nosec G304 -- path is operator-supplied on the CLI
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	manifest, err := decodeManifest(&zr.Reader)
	if err != nil {
		return err
	}
	if manifest.Version != manifestVersion {
		return fmt.Errorf("unsupported backup version %d", manifest.Version)
	}

	snap := &store.Snapshot{}
	if snap.Users, err = stream.ReadJSONL[*domain.User](&zr.Reader, usersFile); err != nil {
		return err
	}
	if snap.Playlists, err = stream.ReadJSONL[*domain.Playlist](&zr.Reader, playlistsFile); err != nil {
		return err
	}
	if snap.Tags, err = stream.ReadJSONL[*domain.Tag](&zr.Reader, tagsFile); err != nil {
		return err
	}
	if snap.Votes, err = stream.ReadJSONL[*domain.Vote](&zr.Reader, votesFile); err != nil {
		return err
	}

	if err := s.store.RestoreSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}

	s.logger.Info("backup restored", "path", path)
	return nil
}

func readManifest(path string) (*Manifest, error) {
	zr, err := zip.OpenReader(path) //#nosec G304 -- path is built from the configured backup dir
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return decodeManifest(&zr.Reader)
}

func decodeManifest(zr *zip.Reader) (*Manifest, error) {
	for _, f := range zr.File {
		if f.Name != manifestFile {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		var manifest Manifest
		if err := json.UnmarshalRead(rc, &manifest); err != nil {
			return nil, fmt.Errorf("decode manifest: %w", err)
		}
		return &manifest, nil
	}
	return nil, stream.ErrFileNotFound
}
