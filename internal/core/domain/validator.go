package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

const DefaultMaxUploadBytes int64 = 16 << 20

var DefaultAllowedTypes = []string{"image/jpeg", "image/jpg", "image/png"}

// Validator runs the client-side upload checks. The backend stays authoritative.
type Validator struct {
	allowed  map[string]struct{}
	maxBytes int64
}

func NewValidator(allowedTypes []string, maxBytes int64) (*Validator, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("invalid maximum upload size: %d", maxBytes)
	}

	if len(allowedTypes) == 0 {
		allowedTypes = DefaultAllowedTypes
	}

	v := &Validator{allowed: make(map[string]struct{}, len(allowedTypes)), maxBytes: maxBytes}
	for _, t := range allowedTypes {
		t = normalizeMimeType(t)
		if t == "" {
			return nil, errors.New("empty mime type in allow-list")
		}
		v.allowed[t] = struct{}{}
	}

	return v, nil
}

func (v *Validator) MaxBytes() int64 {
	return v.maxBytes
}

// Validate returns a *WorkflowError of kind KindUnsupportedType or KindTooLarge.
func (v *Validator) Validate(fd FileDescriptor) error {
	if _, ok := v.allowed[normalizeMimeType(fd.MimeType)]; !ok {
		return NewError(KindUnsupportedType, MsgUnsupportedType)
	}

	if fd.SizeBytes > v.maxBytes {
		return NewError(KindTooLarge,
			fmt.Sprintf("Image size should be less than %s", humanize.IBytes(uint64(v.maxBytes))))
	}

	return nil
}

func normalizeMimeType(t string) string {
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}

	return strings.ToLower(strings.TrimSpace(t))
}
