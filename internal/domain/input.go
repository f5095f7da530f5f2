package domain

// SearchInput carries one search request through the pipeline. It lives
// for a single invocation and is never shared across requests.
type SearchInput struct {
	Image    []byte // raw image bytes, already base64-decoded
	MIMEType string
	Query    string // optional free-text refinement
}

// Image MIME types the model provider accepts.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEWebP = "image/webp"
)

// SupportedImageMIME reports whether the pipeline accepts the given MIME type.
func SupportedImageMIME(mime string) bool {
	switch mime {
	case MIMEJPEG, "image/jpg", MIMEPNG, MIMEWebP:
		return true
	}
	return false
}
