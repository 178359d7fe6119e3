package dto

type MediaUploadDTO struct {
	ObjectName    string `json:"object_name"`
	URL           string `json:"url"`
	ThumbnailURL  string `json:"thumbnail_url,omitempty"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Size          int64  `json:"size"`
	MimeType      string `json:"mime_type"`
	MarkdownImage string `json:"markdown"`
}
