// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing request bodies into the values the
// stores expect.

package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"

	"rupeetrack/internal/core"
)

// ReceiptField is the multipart field carrying the bill image.
const ReceiptField = "bill_image"

// multipartMemory is how much of a multipart body is kept in memory before spilling
// file parts to temp files.
const multipartMemory = 8 << 20

// isBodyTooLarge reports whether err came from the request body limit.
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// parseError maps a body parsing failure to its response.
func parseError(err error) *JSONResponseBuilder {
	if isBodyTooLarge(err) {
		return RequestEntityTooLargeError()
	}
	return BadRequestError("malformed form data")
}

// ParseFormOrFail parses a urlencoded or multipart body. It returns nil on success,
// or the error response to send.
func ParseFormOrFail(r *http.Request) *JSONResponseBuilder {
	var err error
	if isMultipart(r) {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return parseError(err)
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// FirstValues flattens form values, keeping the first value submitted for each key.
func FirstValues(values url.Values) map[string]string {
	fields := make(map[string]string, len(values))
	for key, vs := range values {
		if len(vs) > 0 {
			fields[key] = vs[0]
		}
	}
	return fields
}

// ReceiptFromRequest returns the uploaded receipt, or nil when the field is absent or
// was submitted without a file name. The caller closes the returned closer.
func ReceiptFromRequest(r *http.Request) (*core.Receipt, io.Closer, error) {
	if r.MultipartForm == nil {
		return nil, nil, nil
	}
	file, header, err := r.FormFile(ReceiptField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if header.Filename == "" {
		file.Close()
		return nil, nil, nil
	}
	return &core.Receipt{Filename: header.Filename, Body: file}, file, nil
}

// ReadBodyOrFail reads the whole (already limited) body.
func ReadBodyOrFail(r *http.Request) ([]byte, *JSONResponseBuilder) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		if isBodyTooLarge(err) {
			return nil, RequestEntityTooLargeError()
		}
		return nil, BadRequestError("could not read request body")
	}
	return body, nil
}
