// Package payload converts encoded API payloads into raw bytes.
package payload

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/apresai/podcastr/internal/failure"
)

// Decode converts a base64 payload into a freshly allocated byte slice.
// Surrounding whitespace is ignored; anything else that is not valid
// standard base64 is a DecodeFailure.
func Decode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, failure.New(failure.DecodeFailure, "decode payload", errors.New("empty payload"))
	}
	out, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, failure.New(failure.DecodeFailure, "decode payload", err)
	}
	return out, nil
}
