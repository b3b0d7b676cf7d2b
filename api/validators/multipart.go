package validators

import (
	"mime/multipart"
	"net/http"
	"strings"

	pkgerrors "github.com/soundleaf/soundleaf-backend/pkg/errors"
)

// DefaultMultipartMemory bounds how much of an upload stays in memory before
// spooling to disk.
const DefaultMultipartMemory = 32 << 20

// OpenMultipartFile parses the request form and opens the named file part.
// Callers own closing the returned file.
func OpenMultipartFile(r *http.Request, field string, maxMemory int64) (multipart.File, *multipart.FileHeader, error) {
	if maxMemory <= 0 {
		maxMemory = DefaultMultipartMemory
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "file part is required").WithDetails(map[string]any{"field": field})
	}
	return file, header, nil
}

// FormValue returns the named form field with surrounding whitespace removed.
func FormValue(r *http.Request, field string) string {
	return strings.TrimSpace(r.FormValue(field))
}
