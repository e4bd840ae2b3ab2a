package service

import (
	"encoding/base64"
	"errors"
	"strings"
)

const mediaPathPrefix = "/api/media/"

// parseDataURI decodes a base64 data URI of the form
// data:image/png;base64,iVBOR… into its content type and raw bytes.
func parseDataURI(s string) (contentType string, data []byte, err error) {
	if !strings.HasPrefix(s, "data:") {
		return "", nil, errors.New("not a data URI")
	}
	rest := s[len("data:"):]
	sep := strings.IndexByte(rest, ',')
	if sep < 0 {
		return "", nil, errors.New("malformed data URI")
	}
	meta, payload := rest[:sep], rest[sep+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, errors.New("data URI must be base64 encoded")
	}
	contentType = strings.TrimSuffix(meta, ";base64")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.New("invalid base64 payload")
	}
	return contentType, data, nil
}

func mediaURL(id string) string {
	return mediaPathPrefix + id
}

// mediaIDFromURL extracts the media id from a URL this service produced.
// Foreign URLs yield "".
func mediaIDFromURL(url string) string {
	if strings.HasPrefix(url, mediaPathPrefix) {
		return url[len(mediaPathPrefix):]
	}
	return ""
}
