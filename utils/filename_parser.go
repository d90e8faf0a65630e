package utils

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

var (
	slotFileRegex     = regexp.MustCompile(`^(\d+)\.png$`)
	numberedFileRegex = regexp.MustCompile(`^([1-9]\d{0,2})\.(png|jpg|jpeg|webp)$`)
	artworkExts   = []string{".png", ".jpg", ".jpeg", ".webp"}
)

// ParseSlotFileName parses a numbered mockup name such as "59.png" and
// returns its slot. Only positive numbers with a .png extension match.
func ParseSlotFileName(name string) (int, bool) {
	matches := slotFileRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(name)))
	if len(matches) != 2 {
		return 0, false
	}
	n, err := strconv.Atoi(matches[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// SlotFileName is the mockup file name for slot n.
func SlotFileName(n int) string {
	return strconv.Itoa(n) + ".png"
}

// IsArtworkFor reports whether name is the artwork file of folder, that is
// "{folder}.png|jpg|jpeg|webp" compared case-insensitively.
func IsArtworkFor(folder, name string) bool {
	ext := strings.ToLower(path.Ext(name))
	base := strings.TrimSuffix(name, path.Ext(name))
	if !strings.EqualFold(base, folder) {
		return false
	}
	for _, e := range artworkExts {
		if ext == e {
			return true
		}
	}
	return false
}

// IsMetadataFile reports whether name is a design metadata file.
func IsMetadataFile(name string) bool {
	return strings.EqualFold(path.Ext(name), ".json")
}

// ParseNumberedImage matches the generated mockups removed on archive:
// "1.png" through "999.webp", any of the artwork extensions.
func ParseNumberedImage(name string) (int, bool) {
	matches := numberedFileRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(name)))
	if len(matches) != 3 {
		return 0, false
	}
	n, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsNotesFile reports whether name is a notes file (.txt or .pdf).
func IsNotesFile(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".txt" || ext == ".pdf"
}
