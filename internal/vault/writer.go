package vault

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmartins/obsidian-sync/internal/domain"
	"gopkg.in/yaml.v3"
)

// processorName is recorded in every note's front matter
const processorName = "ObsidianAI Sync"

// maxTitleLength bounds the sanitized title used in filenames
const maxTitleLength = 50

// folderMapping maps categories to vault folder names. Unknown categories
// land in the inbox folder.
var folderMapping = map[domain.Category]string{
	domain.CategoryInbox:      "📥 Inbox",
	domain.CategoryIdeas:      "💡 Ideas",
	domain.CategoryTasks:      "✅ Tasks",
	domain.CategoryArticles:   "📚 Articles",
	domain.CategoryMeetings:   "🤝 Meetings",
	domain.CategoryReferences: "📖 References",
}

// Writer persists note drafts as Markdown files in a vault directory tree.
// It holds no vault path itself; every operation receives the owner's
// configured path, since vaults are per-user.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a vault writer
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// FolderFor returns the vault folder name for a category
func FolderFor(category domain.Category) string {
	if folder, ok := folderMapping[category]; ok {
		return folder
	}
	return folderMapping[domain.CategoryInbox]
}

// CreateNote writes a draft into the vault and returns the absolute file
// path. The destination folder is created if missing. Write failures are
// not retried here; the orchestrator records them as job failures.
func (w *Writer) CreateNote(vaultPath string, draft *domain.NoteDraft, category domain.Category, userID string) (string, error) {
	if vaultPath == "" {
		return "", domain.ErrVaultNotConfigured
	}

	if _, err := os.Stat(vaultPath); err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrVaultNotFound, vaultPath)
	}

	targetFolder := filepath.Join(vaultPath, FolderFor(category))
	if err := os.MkdirAll(targetFolder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create category folder: %w", err)
	}

	// The timestamp prefix keeps filenames unique even for identical titles
	filename := fmt.Sprintf("%s_%s.md",
		time.Now().Format("20060102_150405"),
		SanitizeFilename(draft.Title),
	)
	filePath := filepath.Join(targetFolder, filename)

	content, err := buildNoteContent(draft, category, userID)
	if err != nil {
		return "", fmt.Errorf("failed to build note content: %w", err)
	}

	// Write to a temp file first so a crash never leaves a torn note
	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write note: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to finalize note: %w", err)
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		absPath = filePath
	}

	w.logger.Info("Note created in vault",
		slog.String("path", absPath),
		slog.String("category", category.String()),
	)

	return absPath, nil
}

// buildNoteContent serializes the YAML front matter block above the body
func buildNoteContent(draft *domain.NoteDraft, category domain.Category, userID string) (string, error) {
	frontmatter := map[string]any{
		"title":        draft.Title,
		"created":      time.Now().Format(time.RFC3339),
		"tags":         draft.Tags,
		"category":     category.String(),
		"processed_by": processorName,
		"user_id":      userID,
	}

	for key, value := range draft.Metadata {
		frontmatter[key] = value
	}

	frontmatter["processing"] = map[string]any{
		"processing_time_seconds": draft.Processing.ProcessingTimeSeconds,
		"ai_model_used":           draft.Processing.AIModelUsed,
		"category_used":           draft.Processing.CategoryUsed,
		"text_length":             draft.Processing.TextLength,
		"word_count":              draft.Processing.WordCount,
	}

	header, err := yaml.Marshal(frontmatter)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("---\n%s---\n\n%s", header, draft.Content), nil
}

// SanitizeFilename strips filesystem-invalid characters from a title,
// collapses whitespace, and truncates to the filename title limit.
func SanitizeFilename(title string) string {
	replacer := strings.NewReplacer(
		"<", "_", ">", "_", ":", "_", "\"", "_",
		"/", "_", "\\", "_", "|", "_", "?", "_", "*", "_",
		"\n", " ", "\r", " ", "\t", " ",
	)
	title = replacer.Replace(title)

	title = strings.Join(strings.Fields(title), " ")

	if runes := []rune(title); len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength])
	}

	return title
}
