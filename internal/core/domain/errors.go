package domain

type ErrorKind string

const (
	KindUnsupportedType    ErrorKind = "unsupported_type"
	KindTooLarge           ErrorKind = "too_large"
	KindUploadFailed       ErrorKind = "upload_failed"
	KindProcessingFailed   ErrorKind = "processing_failed"
	KindGalleryFetchFailed ErrorKind = "gallery_fetch_failed"
	KindTimeout            ErrorKind = "timeout"
	KindPreconditionNotMet ErrorKind = "precondition_not_met"
)

// IsValidation reports whether the kind is produced by upload validation.
func (k ErrorKind) IsValidation() bool {
	return k == KindUnsupportedType || k == KindTooLarge
}

// WorkflowError is the single error type surfaced to users. Message is meant for display.
type WorkflowError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func NewError(kind ErrorKind, message string) *WorkflowError {
	return &WorkflowError{Kind: kind, Message: message}
}

func WrapError(kind ErrorKind, message string, err error) *WorkflowError {
	return &WorkflowError{Kind: kind, Message: message, Err: err}
}

func (e *WorkflowError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}

	return e.Message
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is matches any WorkflowError of the same kind when the target carries no message,
// so errors.Is(err, ErrTimeout) works for every timeout.
func (e *WorkflowError) Is(target error) bool {
	t, ok := target.(*WorkflowError)
	if !ok {
		return false
	}

	if t.Message == "" {
		return t.Kind == e.Kind
	}

	return t.Kind == e.Kind && t.Message == e.Message
}

var (
	ErrUnsupportedType    = &WorkflowError{Kind: KindUnsupportedType}
	ErrTooLarge           = &WorkflowError{Kind: KindTooLarge}
	ErrUploadFailed       = &WorkflowError{Kind: KindUploadFailed}
	ErrProcessingFailed   = &WorkflowError{Kind: KindProcessingFailed}
	ErrGalleryFetchFailed = &WorkflowError{Kind: KindGalleryFetchFailed}
	ErrTimeout            = &WorkflowError{Kind: KindTimeout}
	ErrPreconditionNotMet = &WorkflowError{Kind: KindPreconditionNotMet}
)
