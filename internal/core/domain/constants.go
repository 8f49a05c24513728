package domain

import "errors"

var (
	ErrSendingReplyFailed = errors.New("failed to send reply")
	ErrUnknownEffect      = errors.New("unknown effect")
	ErrEmptyCatalog       = errors.New("effect catalog is empty")
	// ErrSuperseded is returned by an intent whose result was discarded because a newer
	// upload or effect selection changed the workflow context while it was in flight.
	ErrSuperseded = errors.New("result superseded by a newer request")
)

const (
	MsgMissingInputs      = "Please upload an image and select an effect"
	MsgAlreadyProcessing  = "An image is already being processed"
	MsgUploadPending      = "Please wait for the upload to finish"
	MsgUnsupportedType    = "Please upload a valid image file (JPEG, JPG, or PNG)"
	MsgUploadFailed       = "Failed to upload image"
	MsgProcessingFailed   = "Failed to process image"
	MsgGalleryFetchFailed = "Failed to load gallery images"
	MsgTimeout            = "The request timed out, please try again"
)
