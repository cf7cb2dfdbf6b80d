// Command backup creates, lists, and restores CrowdTune data archives.
//
// Usage:
//
//	backup [-data-path DIR] create
//	backup [-data-path DIR] list
//	backup [-data-path DIR] restore <archive.zip>
//
// The server must not be running against the same data directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/crowdtune/crowdtune-server/internal/backup"
	"github.com/crowdtune/crowdtune-server/internal/store"
)

func main() {
	dataPath := flag.String("data-path", defaultDataPath(), "CrowdTune data directory")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	st, err := store.New(filepath.Join(*dataPath, "db"), logger)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()

	svc := backup.NewService(st, filepath.Join(*dataPath, "backups"), logger)
	ctx := context.Background()

	switch args[0] {
	case "create":
		path, manifest, err := svc.Create(ctx)
		if err != nil {
			log.Fatalf("Backup failed: %v", err)
		}
		fmt.Printf("Created %s (%d users, %d playlists, %d tags, %d votes)\n",
			path,
			manifest.Counts["users"],
			manifest.Counts["playlists"],
			manifest.Counts["tags"],
			manifest.Counts["votes"],
		)

	case "list":
		infos, err := svc.List()
		if err != nil {
			log.Fatalf("Listing backups failed: %v", err)
		}
		if len(infos) == 0 {
			fmt.Println("No backups found")
			return
		}
		for _, info := range infos {
			fmt.Printf("%s  %s  %d bytes\n",
				info.Manifest.CreatedAt.Format("2006-01-02 15:04:05"),
				info.Path,
				info.Size,
			)
		}

	case "restore":
		if len(args) != 2 {
			log.Fatal("Usage: backup restore <archive.zip>")
		}
		if err := svc.Restore(ctx, args[1]); err != nil {
			log.Fatalf("Restore failed: %v", err)
		}
		fmt.Println("Restore complete. Active sessions were invalidated.")

	default:
		log.Fatalf("Unknown command %q (want create, list, or restore)", args[0])
	}
}

func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, "CrowdTune", "data")
}
