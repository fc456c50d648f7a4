package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"VideoDigest/internal/domain"
	"VideoDigest/internal/failure"
	"VideoDigest/internal/ports"
)

const maxTitleRunes = 150

// maxFileNameBytes keeps "<id>_<title>.txt" plus the temp-file affixes
// under the usual 255-byte name limit, whatever the script of the title.
const maxFileNameBytes = 200

// ArtifactStore writes one text file per item into dir.
type ArtifactStore struct {
	dir string
}

var _ ports.ArtifactStore = (*ArtifactStore)(nil)

// NewArtifactStore binds the store to the output directory.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir}
}

// WriteArtifact renders details and writes it atomically. A full disk is
// reported as transient; every other failure as permanent.
func (s *ArtifactStore) WriteArtifact(_ context.Context, details domain.ItemDetails) (string, error) {
	path := filepath.Join(s.dir, ArtifactFileName(details.Item))
	if err := writeFileAtomic(path, []byte(RenderArtifact(details)), 0o644); err != nil {
		marker := failure.ErrPermanent
		if errors.Is(err, syscall.ENOSPC) {
			marker = failure.ErrTransient
		}
		return "", failure.Wrap(marker, "artifact", "write "+path, err)
	}
	return path, nil
}

// ArtifactFileName is "<id>_<sanitized title>.txt", or "<id>.txt" when the
// title sanitizes to nothing.
func ArtifactFileName(item domain.Item) string {
	budget := maxFileNameBytes - len(item.ID) - len("_.txt")
	title := strings.Trim(truncateUTF8(SanitizeTitle(item.Title), budget), "_")
	if title == "" {
		return item.ID + ".txt"
	}
	return item.ID + "_" + title + ".txt"
}

// SanitizeTitle makes a title safe for use in a file name.
func SanitizeTitle(title string) string {
	title = norm.NFC.String(title)

	var sb strings.Builder
	pendingSpace := false
	for _, r := range title {
		switch {
		case r == unicode.ReplacementChar:
			r = '_'
		case strings.ContainsRune(`\/*?:"<>|`, r):
			continue
		case unicode.IsSpace(r):
			pendingSpace = true
			continue
		}
		if pendingSpace {
			sb.WriteRune('_')
			pendingSpace = false
		}
		sb.WriteRune(r)
	}

	out := []rune(sb.String())
	if len(out) > maxTitleRunes {
		out = out[:maxTitleRunes]
	}
	return strings.Trim(string(out), "_")
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// RenderArtifact formats the header block and the three sections.
func RenderArtifact(details domain.ItemDetails) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", details.Item.Title)
	fmt.Fprintf(&sb, "Video ID: %s\n", details.Item.ID)
	fmt.Fprintf(&sb, "URL: %s\n", details.Item.URL())
	fmt.Fprintf(&sb, "Channel: %s\n", details.ChannelName)
	fmt.Fprintf(&sb, "Duration: %s\n", domain.FormatDuration(details.Duration))
	fmt.Fprintf(&sb, "Processed: %s\n", details.ProcessedAt.UTC().Format(time.RFC3339))

	for _, kind := range domain.ArtifactKinds {
		fmt.Fprintf(&sb, "\n==== %s ====\n\n", strings.ToUpper(kind.Heading()))
		sb.WriteString(strings.TrimSpace(details.Artifacts.Get(kind)))
		sb.WriteString("\n")
	}
	return sb.String()
}
