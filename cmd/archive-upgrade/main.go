// Command archive-upgrade rewrites an existing migration archive
// (assembled per §6.1/§6.3) in place through the current codec, so an
// archive produced by an older writer that emitted the legacy
// element-text lookup form picks up the value-attribute form this
// module's pkg/archive.Writer emits exclusively (see the "Lookup
// serialization form" decision in DESIGN.md). pkg/archive.Reader already
// accepts both forms on read; this tool's job is only to re-emit through
// Writer so every archive on disk converges on one form.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/joshsmithxrm/ppds-engine/pkg/archive"
)

var (
	archiveDir = flag.String("archive-dir", "", "Archive directory to upgrade (required)")
	dryRun     = flag.Bool("dry-run", false, "Show what would change without writing anything")
	backupDir  = flag.String("backup", "", "Directory to copy the archive into before upgrading (default: <archive-dir>.backup)")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Archive Upgrade Tool - legacy lookup form -> value-attribute form")
	log.Println("==================================================================")

	if *archiveDir == "" {
		log.Fatal("--archive-dir is required")
	}
	if _, err := os.Stat(*archiveDir); os.IsNotExist(err) {
		log.Fatalf("Archive directory not found at %s", *archiveDir)
	}

	log.Printf("Archive: %s", *archiveDir)
	log.Printf("Dry run: %v", *dryRun)

	reader := archive.NewReader(archive.NewDirFileSystem(*archiveDir))
	data, err := reader.Read()
	if err != nil {
		log.Fatalf("Failed to read archive: %v", err)
	}
	log.Printf("Found %d entities, reading complete", len(data.Schema.Entities))

	if *dryRun {
		log.Println("\n[DRY RUN] Would perform the following operations:")
		log.Printf("1. Back up %s to %s", *archiveDir, effectiveBackupDir())
		log.Println("2. Re-write schema.xml, data.xml, and [Content_Types].xml through the current codec")
		log.Println("3. Every lookup field converges on the value-attribute form")
		return
	}

	backup := effectiveBackupDir()
	log.Printf("Creating backup: %s", backup)
	if err := copyDir(*archiveDir, backup); err != nil {
		log.Fatalf("Failed to create backup: %v", err)
	}
	log.Println("Backup created successfully")

	writer := archive.NewWriter(archive.NewDirFileSystem(*archiveDir))
	if err := writer.Write(data); err != nil {
		log.Fatalf("Upgrade failed: %v", err)
	}

	log.Println("\nArchive upgraded successfully")
	log.Printf("Original archive preserved at %s for rollback if needed.", backup)
}

func effectiveBackupDir() string {
	if *backupDir != "" {
		return *backupDir
	}
	return *archiveDir + ".backup"
}

// copyDir recursively copies every regular file under src into dst,
// preserving relative paths, the stdlib way the teacher's migration tool
// copies its single database file.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
