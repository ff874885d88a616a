package service

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"image/jpeg"

	// 注册 png/gif 解码器供 image.Decode 使用
	_ "image/gif"
	_ "image/png"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// MaxImageBytes 是单个上传图片允许的最大体积。
const MaxImageBytes = 2 << 20

const thumbnailWidth = 320

var (
	ErrImageType     = errors.New("image type is not allowed")
	ErrImageTooLarge = errors.New("image exceeds the size limit")
)

var allowedImageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

// ImageUpload 是上传文件脱离 multipart 细节后的最小描述。
type ImageUpload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// MediaStore 负责媒体根目录下的文件落盘与清理。
// 文件操作不参与数据库事务，删除一律 best-effort。
type MediaStore struct {
	root string
}

// NewMediaStore creates a MediaStore rooted at the public media directory.
func NewMediaStore(root string) *MediaStore {
	return &MediaStore{root: root}
}

// Root returns the media root directory.
func (m *MediaStore) Root() string {
	return m.root
}

// Validate checks the upload against the extension whitelist and size limit.
func (m *MediaStore) Validate(up *ImageUpload) error {
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if _, ok := allowedImageExts[ext]; !ok {
		return ErrImageType
	}
	if up.Size > MaxImageBytes {
		return ErrImageTooLarge
	}
	return nil
}

// Save 将上传写入 root/subdir 下，文件名为 日期-uuid.扩展名，
// 返回相对媒体根目录的路径（正斜杠分隔）。
func (m *MediaStore) Save(subdir string, up *ImageUpload) (string, error) {
	if err := m.Validate(up); err != nil {
		return "", err
	}

	dir := filepath.Join(m.root, filepath.FromSlash(subdir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(up.Filename))
	name := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	fullPath := filepath.Join(dir, name)

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}

	written, err := io.Copy(dst, io.LimitReader(up.Reader, MaxImageBytes+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > MaxImageBytes {
		err = ErrImageTooLarge
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return "", err
	}

	return path.Join(subdir, name), nil
}

// Remove 删除一个相对路径指向的文件。失败只记录日志，从不中断请求。
func (m *MediaStore) Remove(relPath string) {
	if strings.TrimSpace(relPath) == "" {
		return
	}
	fullPath := filepath.Join(m.root, filepath.FromSlash(relPath))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		log.Printf("media store: failed to remove %s: %v", relPath, err)
	}
}

// GenerateThumbnail 从已保存的图片缩放出一张 JPEG 缩略图，
// 与原图同目录，文件名带 thumb- 前缀。
func (m *MediaStore) GenerateThumbnail(imageRel string) (string, error) {
	src, err := os.Open(filepath.Join(m.root, filepath.FromSlash(imageRel)))
	if err != nil {
		return "", err
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return "", err
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return "", errors.New("image has no pixels")
	}

	targetWidth := thumbnailWidth
	if width < targetWidth {
		targetWidth = width
	}
	targetHeight := height * targetWidth / width
	if targetHeight < 1 {
		targetHeight = 1
	}

	thumb := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.ApproxBiLinear.Scale(thumb, thumb.Bounds(), img, bounds, draw.Over, nil)

	dir := path.Dir(imageRel)
	base := strings.TrimSuffix(path.Base(imageRel), path.Ext(imageRel))
	thumbRel := path.Join(dir, "thumb-"+base+".jpg")

	dst, err := os.Create(filepath.Join(m.root, filepath.FromSlash(thumbRel)))
	if err != nil {
		return "", err
	}

	err = jpeg.Encode(dst, thumb, &jpeg.Options{Quality: 80})
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(m.root, filepath.FromSlash(thumbRel)))
		return "", err
	}

	return thumbRel, nil
}
