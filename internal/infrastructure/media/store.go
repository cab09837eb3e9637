// Package media handles story media blobs and thumbnail generation.
package media

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const thumbnailWidth = 480

var dataURIPattern = regexp.MustCompile(`^data:(image|video)/[\w.+-]+;base64,`)

// Store persists story media under a base directory.
type Store struct {
	basePath string
}

// NewStore creates a store rooted at basePath.
func NewStore(basePath string) *Store {
	return &Store{basePath: basePath}
}

// SavePhoto decodes a base64 data URI, writes the original, and generates
// a WebP thumbnail. Returns both paths relative to the base directory.
func (s *Store) SavePhoto(data, storyID string) (mediaPath, thumbPath string, err error) {
	ext := extractExtension(data)
	if ext == "" {
		return "", "", fmt.Errorf("unsupported image format")
	}

	decoded, err := decodeDataURI(data)
	if err != nil {
		return "", "", err
	}

	storiesDir := filepath.Join(s.basePath, "stories")
	if err := os.MkdirAll(storiesDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create media directory: %w", err)
	}

	filename := fmt.Sprintf("%s.%s", storyID, ext)
	fullPath := filepath.Join(storiesDir, filename)
	if err := os.WriteFile(fullPath, decoded, 0644); err != nil {
		return "", "", fmt.Errorf("failed to write media file: %w", err)
	}

	thumbFilename := fmt.Sprintf("%s_thumb.webp", storyID)
	fullThumbPath := filepath.Join(storiesDir, thumbFilename)
	if err := s.writeThumbnail(fullPath, fullThumbPath); err != nil {
		os.Remove(fullPath)
		return "", "", err
	}

	return filepath.Join("stories", filename), filepath.Join("stories", thumbFilename), nil
}

// SaveVideo decodes a base64 data URI and writes the blob. Videos get no
// server-side thumbnail.
func (s *Store) SaveVideo(data, storyID string) (string, error) {
	ext := extractVideoExtension(data)
	if ext == "" {
		return "", fmt.Errorf("unsupported video format")
	}

	decoded, err := decodeDataURI(data)
	if err != nil {
		return "", err
	}

	storiesDir := filepath.Join(s.basePath, "stories")
	if err := os.MkdirAll(storiesDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	filename := fmt.Sprintf("%s.%s", storyID, ext)
	fullPath := filepath.Join(storiesDir, filename)
	if err := os.WriteFile(fullPath, decoded, 0644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}

	return filepath.Join("stories", filename), nil
}

// Remove deletes media blobs by their store-relative paths. Missing files
// are not an error.
func (s *Store) Remove(paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		os.Remove(filepath.Join(s.basePath, p))
	}
}

// FullPath resolves a store-relative path for serving.
func (s *Store) FullPath(relative string) string {
	return filepath.Join(s.basePath, relative)
}

func (s *Store) writeThumbnail(originalPath, thumbPath string) error {
	file, err := os.Open(originalPath)
	if err != nil {
		return fmt.Errorf("failed to open original: %w", err)
	}
	defer file.Close()

	img, err := imaging.Decode(file)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	resized := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	if err := webp.Save(thumbPath, resized, &webp.Options{Quality: 85}); err != nil {
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return nil
}

func decodeDataURI(data string) ([]byte, error) {
	if !dataURIPattern.MatchString(data) {
		return nil, fmt.Errorf("invalid base64 data URI")
	}
	b64Data := dataURIPattern.ReplaceAllString(data, "")
	decoded, err := base64.StdEncoding.DecodeString(b64Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return decoded, nil
}

func extractExtension(data string) string {
	switch {
	case strings.Contains(data, "data:image/png"):
		return "png"
	case strings.Contains(data, "data:image/jpeg"), strings.Contains(data, "data:image/jpg"):
		return "jpg"
	case strings.Contains(data, "data:image/webp"):
		return "webp"
	case strings.Contains(data, "data:image/gif"):
		return "gif"
	}
	return ""
}

func extractVideoExtension(data string) string {
	switch {
	case strings.Contains(data, "data:video/mp4"):
		return "mp4"
	case strings.Contains(data, "data:video/webm"):
		return "webm"
	case strings.Contains(data, "data:video/quicktime"):
		return "mov"
	}
	return ""
}
