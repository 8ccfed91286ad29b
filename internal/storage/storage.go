package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Storage keeps uploaded media files. SaveFile returns the locator stored
// on the media record; DeleteFile takes that same locator.
type Storage interface {
	SaveFile(fileHeader *multipart.FileHeader, filename string) (string, error)
	DeleteFile(location string) error
}

type LocalStorage struct {
	uploadDir string
}

type SpacesStorage struct {
	client *s3.S3
	bucket string
	cdnURL string
}

func NewLocalStorage(uploadDir string) *LocalStorage {
	return &LocalStorage{uploadDir: uploadDir}
}

func NewSpacesStorage(endpoint, region, bucket, cdnURL, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SpacesStorage{
		client: s3.New(sess),
		bucket: bucket,
		cdnURL: cdnURL,
	}, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// normalizeFilename makes a unique storage name: the cleaned base name, a
// random suffix and the lowercased extension.
func normalizeFilename(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	baseName := strings.TrimSuffix(filepath.Base(originalFilename), filepath.Ext(originalFilename))
	baseName = strings.ReplaceAll(baseName, " ", "_")
	baseName = unsafeChars.ReplaceAllString(baseName, "")
	if baseName == "" {
		baseName = "file"
	}
	if len(baseName) > 64 {
		baseName = baseName[:64]
	}
	return fmt.Sprintf("%s_%s%s", baseName, uuid.NewString()[:8], ext)
}

func (ls *LocalStorage) SaveFile(fileHeader *multipart.FileHeader, filename string) (string, error) {
	normalizedFilename := normalizeFilename(filename)
	log.Debug().Str("original", filename).Str("normalized", normalizedFilename).Msg("File upload normalized")
	uploadPath := filepath.Join(ls.uploadDir, normalizedFilename)

	if err := os.MkdirAll(ls.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(uploadPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return uploadPath, nil
}

// DeleteFile removes a file written by SaveFile. Paths outside the upload
// directory are refused.
func (ls *LocalStorage) DeleteFile(location string) error {
	rel, err := filepath.Rel(ls.uploadDir, location)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("refusing to delete %q outside upload directory", location)
	}
	if err := os.Remove(location); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (ss *SpacesStorage) SaveFile(fileHeader *multipart.FileHeader, filename string) (string, error) {
	normalizedFilename := normalizeFilename(filename)
	log.Debug().Str("original", filename).Str("normalized", normalizedFilename).Msg("File upload normalized")

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	key := fmt.Sprintf("uploads/%s", normalizedFilename)

	_, err = ss.client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        src,
		ContentType: aws.String(ContentType(normalizedFilename)),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to upload file to Spaces")
		return "", fmt.Errorf("failed to upload to Spaces: %w", err)
	}

	return fmt.Sprintf("%s/%s", strings.TrimSuffix(ss.cdnURL, "/"), key), nil
}

func (ss *SpacesStorage) DeleteFile(location string) error {
	key := strings.TrimPrefix(location, strings.TrimSuffix(ss.cdnURL, "/")+"/")
	if key == location || !strings.HasPrefix(key, "uploads/") {
		return fmt.Errorf("location %q is not in bucket %s", location, ss.bucket)
	}
	_, err := ss.client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from Spaces: %w", err)
	}
	return nil
}

// ContentType guesses the MIME type from the file extension.
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".avi":
		return "video/x-msvideo"
	case ".mov":
		return "video/quicktime"
	default:
		return "application/octet-stream"
	}
}

// MediaTypeOf classifies an upload as "image" or "video" by extension, or
// returns "" when it is neither.
func MediaTypeOf(filename string) string {
	ct := ContentType(filename)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return "image"
	case strings.HasPrefix(ct, "video/"):
		return "video"
	}
	return ""
}
