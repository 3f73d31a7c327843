package services

import "errors"

var (
	// ErrUploadDisabled is returned when uploads are turned off in configuration.
	ErrUploadDisabled = errors.New("uploads are disabled")
	// ErrUploadTooLarge is returned for uploads above the configured limit.
	ErrUploadTooLarge = errors.New("upload exceeds the maximum size")
	// ErrEmptyQuestion is returned for blank chat questions.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrInvalidRange is returned when from is after to.
	ErrInvalidRange = errors.New("start date is after end date")
)
