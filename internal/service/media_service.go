package service

import (
	"Inkwell/internal/api/dto"
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	log "log/slog"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

// ObjectStorage 对象存储抽象，生产环境为 MinIO
type ObjectStorage interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, objectName string) error
	PublicURL(objectName string) string
}

type MediaService interface {
	UploadImage(ctx context.Context, filename string, size int64, reader io.Reader) (*dto.MediaUploadDTO, error)
}

type mediaServiceImpl struct {
	storage        ObjectStorage
	maxSize        int64
	thumbnailWidth int
	now            func() time.Time
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func NewMediaService(storage ObjectStorage, maxSize int64, thumbnailWidth int) MediaService {
	return &mediaServiceImpl{
		storage:        storage,
		maxSize:        maxSize,
		thumbnailWidth: thumbnailWidth,
		now:            time.Now,
	}
}

// UploadImage 上传正文图片，宽度超过阈值时额外生成 JPEG 缩略图
func (s *mediaServiceImpl) UploadImage(ctx context.Context, filename string, size int64, reader io.Reader) (*dto.MediaUploadDTO, error) {
	if s.maxSize > 0 && size > s.maxSize {
		return nil, ErrFileTooLarge
	}

	limit := s.maxSize
	if limit <= 0 {
		limit = size
	}
	data, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrFileTooLarge
	}

	// 按内容识别类型，不信任扩展名
	mime := mimetype.Detect(data).String()
	ext, ok := allowedImageTypes[mime]
	if !ok {
		return nil, ErrFileNotSupported
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		log.WarnContext(ctx, "decode image failed", "filename", filename, "error", err)
		return nil, ErrFileNotSupported
	}
	bounds := img.Bounds()

	base := path.Join(s.now().Format("2006/01/02"), strings.ReplaceAll(uuid.NewString(), "-", ""))
	objectName := base + ext
	if err = s.storage.Upload(ctx, objectName, bytes.NewReader(data), int64(len(data)), mime); err != nil {
		return nil, err
	}

	result := &dto.MediaUploadDTO{
		ObjectName: objectName,
		URL:        s.storage.PublicURL(objectName),
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Size:       int64(len(data)),
		MimeType:   mime,
	}

	if s.thumbnailWidth > 0 && bounds.Dx() > s.thumbnailWidth {
		thumbName := base + "_thumb.jpg"
		if err = s.uploadThumbnail(ctx, img, thumbName); err != nil {
			// 缩略图失败不影响原图
			log.WarnContext(ctx, "upload thumbnail failed", "object", thumbName, "error", err)
		} else {
			result.ThumbnailURL = s.storage.PublicURL(thumbName)
		}
	}

	result.MarkdownImage = fmt.Sprintf("![%s](%s)", altText(filename), result.URL)
	return result, nil
}

func (s *mediaServiceImpl) uploadThumbnail(ctx context.Context, img image.Image, objectName string) error {
	thumb := imaging.Resize(img, s.thumbnailWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return err
	}
	return s.storage.Upload(ctx, objectName, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "image/jpeg")
}

func altText(filename string) string {
	name := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	name = strings.NewReplacer("[", "", "]", "").Replace(name)
	if name == "" || name == "." || name == "/" {
		return "image"
	}
	return name
}
