package utils

import (
	"fmt"
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const tagAlphabet = "0123456789abcdef"

var tagPattern = regexp.MustCompile(`#sl_[0-9a-f]{4,}`)

// NewVerificationTag mints the unique caption tag embedded at authoring
// time, e.g. "#sl_7f3a".
func NewVerificationTag() (string, error) {
	id, err := gonanoid.Generate(tagAlphabet, 4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("#sl_%s", id), nil
}

// ExtractVerificationTag returns the first caption tag found, or "".
func ExtractVerificationTag(caption string) string {
	return tagPattern.FindString(caption)
}
