package domain

import "time"

type Effect struct {
	ID          string
	Name        string
	Description string
}

// UploadedImage is the backend's record of a stored original. Filename is the
// server-assigned storage key used in later processing requests.
type UploadedImage struct {
	Filename string
	URL      string
}

type ProcessedImage struct {
	Effect string
	URL    string
}

type GalleryEntry struct {
	ID           string
	OriginalURL  string
	ProcessedURL string
	Effect       string
	CreatedAt    time.Time
}

// File is a candidate upload as selected by a user.
type File struct {
	Name     string
	MimeType string
	Size     int64
	Data     []byte
}

type FileDescriptor struct {
	MimeType  string
	SizeBytes int64
}

func (f File) Descriptor() FileDescriptor {
	size := f.Size
	if size == 0 {
		size = int64(len(f.Data))
	}

	return FileDescriptor{MimeType: f.MimeType, SizeBytes: size}
}

type Busy struct {
	Uploading      bool
	Processing     bool
	LoadingGallery bool
}

// State is the complete workflow state rendered by views.
type State struct {
	UploadedImage  *UploadedImage
	SelectedEffect string
	ProcessedImage *ProcessedImage
	Busy           Busy
	Err            *WorkflowError
	Gallery        []GalleryEntry
}

// Clone returns a deep copy that shares no mutable memory with s.
func (s State) Clone() State {
	c := s

	if s.UploadedImage != nil {
		u := *s.UploadedImage
		c.UploadedImage = &u
	}

	if s.ProcessedImage != nil {
		p := *s.ProcessedImage
		c.ProcessedImage = &p
	}

	if s.Gallery != nil {
		c.Gallery = make([]GalleryEntry, len(s.Gallery))
		copy(c.Gallery, s.Gallery)
	}

	return c
}

type Message struct {
	ID            int
	ChatID        int64
	Username      string
	Text          string
	ImageURL      string
	ImageName     string
	ImageMimeType string
	ImageSize     int64
}

type Action string

const (
	Typing         Action = "typing"
	UploadingPhoto Action = "upload_photo"
)
