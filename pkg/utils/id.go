package utils

import (
	"regexp"
	"strings"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

var (
	videoIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	// format selectors: bestaudio, 140, bestaudio[ext=m4a]/bestaudio, ba*+wa ...
	qualityRe = regexp.MustCompile(`^[a-zA-Z0-9_+*/.,:<>=!?\[\]^$~-]{1,128}$`)
)

// ValidVideoID reports whether id has the shape of a YouTube video id.
func ValidVideoID(id string) bool {
	return videoIDRe.MatchString(id)
}

// ValidQuality reports whether q can be passed to the extractor as a format selector.
// A leading dash is rejected so the value is never read as an option.
func ValidQuality(q string) bool {
	if strings.HasPrefix(q, "-") {
		return false
	}
	return qualityRe.MatchString(q)
}

// WatchURL builds the canonical watch URL the extractor is pointed at.
func WatchURL(videoID string) string {
	return watchURLPrefix + videoID
}

// ExtractVideoID pulls an id out of a full YouTube link, or accepts a bare id.
func ExtractVideoID(input string) string {
	regexPattern := `(?:https?://)?(?:www\.)?(?:youtube|youtu|youtube-nocookie)\.(?:com|be)/(?:watch\?v=|embed/|v/|.+\?v=|shorts/)?([^&=%\?]{11})`

	re := regexp.MustCompile(regexPattern)
	matches := re.FindStringSubmatch(input)

	if len(matches) >= 2 && ValidVideoID(matches[1]) {
		return matches[1]
	}

	if ValidVideoID(input) {
		return input
	}

	return ""
}
