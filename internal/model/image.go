package model

// ImageSourceKind tags the variant held by an ImageSource
type ImageSourceKind string

const (
	ImageSourceUploadedFile ImageSourceKind = "uploaded-file"
	ImageSourceDirectURL    ImageSourceKind = "direct-url"
)

// UploadedFile is raw image content supplied by the user
type UploadedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ImageSource is either an uploaded file or a URL that already points at an image
type ImageSource struct {
	Kind ImageSourceKind
	File *UploadedFile
	URL  string
}

// FromFile wraps an uploaded file
func FromFile(filename, contentType string, data []byte) ImageSource {
	return ImageSource{
		Kind: ImageSourceUploadedFile,
		File: &UploadedFile{Filename: filename, ContentType: contentType, Data: data},
	}
}

// FromURL wraps a direct image URL
func FromURL(url string) ImageSource {
	return ImageSource{Kind: ImageSourceDirectURL, URL: url}
}
