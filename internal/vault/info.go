package vault

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lmartins/obsidian-sync/internal/domain"
)

// obsidianMarker is the folder Obsidian keeps its workspace config in;
// its presence identifies a directory as a vault.
const obsidianMarker = ".obsidian"

// ValidationResult reports whether a path looks like a usable Obsidian vault
type ValidationResult struct {
	Valid       bool   `json:"valid"`
	Error       string `json:"error,omitempty"`
	Warning     string `json:"warning,omitempty"`
	MDFileCount int    `json:"md_file_count,omitempty"`
}

// Stats summarizes per-category note counts in a vault
type Stats struct {
	Exists     bool           `json:"exists"`
	Path       string         `json:"path"`
	TotalFiles int            `json:"total_files"`
	FileCounts map[string]int `json:"file_counts"`
	Folders    []string       `json:"folders"`
}

// NoteInfo describes one note file for recent-notes listings
type NoteInfo struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Folder   string    `json:"folder"`
	Modified time.Time `json:"modified"`
	Size     int64     `json:"size"`
}

// Validate checks that a path exists, is a directory, and carries the
// Obsidian marker folder. A pure read with no effect on job state.
func (w *Writer) Validate(vaultPath string) ValidationResult {
	info, err := os.Stat(vaultPath)
	if err != nil {
		return ValidationResult{Valid: false, Error: "path does not exist"}
	}

	if !info.IsDir() {
		return ValidationResult{Valid: false, Error: "path is not a directory"}
	}

	if _, err := os.Stat(filepath.Join(vaultPath, obsidianMarker)); err != nil {
		return ValidationResult{Valid: false, Error: "not an Obsidian vault (missing .obsidian folder)"}
	}

	var mdCount int
	_ = filepath.WalkDir(vaultPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && filepath.Ext(path) == ".md" {
			mdCount++
		}
		return nil
	})

	result := ValidationResult{Valid: true, MDFileCount: mdCount}
	if mdCount == 0 {
		result.Warning = "vault is empty (no .md files found)"
	}

	return result
}

// GetStats counts notes per category folder
func (w *Writer) GetStats(vaultPath string) Stats {
	stats := Stats{
		Path:       vaultPath,
		FileCounts: make(map[string]int),
	}

	if _, err := os.Stat(vaultPath); err != nil {
		return stats
	}
	stats.Exists = true

	for _, category := range domain.Categories {
		folder := FolderFor(category)
		stats.Folders = append(stats.Folders, folder)

		entries, err := os.ReadDir(filepath.Join(vaultPath, folder))
		if err != nil {
			stats.FileCounts[category.String()] = 0
			continue
		}

		var count int
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".md" {
				count++
			}
		}
		stats.FileCounts[category.String()] = count
		stats.TotalFiles += count
	}

	return stats
}

// RecentNotes lists the most recently modified notes across all category
// folders, newest first, bounded by limit.
func (w *Writer) RecentNotes(vaultPath string, limit int) []NoteInfo {
	if _, err := os.Stat(vaultPath); err != nil {
		return nil
	}

	var notes []NoteInfo
	for _, category := range domain.Categories {
		folder := FolderFor(category)
		folderPath := filepath.Join(vaultPath, folder)

		entries, err := os.ReadDir(folderPath)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			notes = append(notes, NoteInfo{
				Path:     filepath.Join(folderPath, entry.Name()),
				Name:     entry.Name(),
				Folder:   folder,
				Modified: info.ModTime(),
				Size:     info.Size(),
			})
		}
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].Modified.After(notes[j].Modified)
	})

	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}

	return notes
}
