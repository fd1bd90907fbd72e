package client

import (
	"fmt"
	"strings"
)

// HasCSVExtension reports whether filename ends in .csv, the only format the
// API accepts
func HasCSVExtension(filename string) bool {
	return strings.HasSuffix(filename, ".csv")
}

// ValidateUpload rejects files the server would reject anyway, so an upload
// fails fast without being sent
func ValidateUpload(file UploadFile) error {
	const op = "upload dataset"

	if file.Filename == "" {
		return &ValidationError{Op: op, Message: "no file selected"}
	}
	if !HasCSVExtension(file.Filename) {
		return &ValidationError{Op: op, Message: "Invalid file format. Only .csv files are supported."}
	}
	if file.Size > MaxUploadSize {
		return &ValidationError{Op: op, Message: fmt.Sprintf("file is %d bytes, larger than the %d MB limit", file.Size, MaxUploadSize>>20)}
	}
	return nil
}

// DatasetName derives the default dataset name from a file name
func DatasetName(filename string) string {
	return strings.TrimSuffix(filename, ".csv")
}
