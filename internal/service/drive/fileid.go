// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package drive

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	bareFileIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	fileURLRegexes  = []*regexp.Regexp{
		regexp.MustCompile(`/file/d/([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`/document/d/([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`/spreadsheets/d/([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`/presentation/d/([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`/folders?/([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`[?&]id=([A-Za-z0-9_-]+)`),
	}
)

// ExtractFileID returns the file id referenced by ref, which is either a bare id or a
// Drive, Docs, Sheets or Slides URL.
func ExtractFileID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if bareFileIDRegex.MatchString(ref) {
		return ref, nil
	}

	for _, regex := range fileURLRegexes {
		if match := regex.FindStringSubmatch(ref); match != nil {
			return match[1], nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidFileReference, ref)
}
