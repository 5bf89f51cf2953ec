package feed

import "strings"

// Format identifies the audio container of an active session, detected from
// the URL the stream actually resolved to after redirects.
type Format uint8

const (
	// FormatNone means no session is active or the container was not
	// recognized.
	FormatNone Format = iota
	FormatWAV
	FormatMP3
	FormatFLAC
)

// formatExtensions maps each supported container to its URL suffix. Matching
// is exact and case sensitive, so "clip.MP3" is not recognized.
var formatExtensions = map[Format]string{
	FormatWAV:  ".wav",
	FormatMP3:  ".mp3",
	FormatFLAC: ".flac",
}

// DetectFormat inspects the final URL of a stream and returns the container
// format, or FormatNone when the suffix is not a supported container. The
// whole URL string is checked, so a trailing query component defeats
// detection on purpose: the engine only trusts explicit extensions.
func DetectFormat(url string) Format {
	for format, ext := range formatExtensions {
		if strings.HasSuffix(url, ext) {
			return format
		}
	}
	return FormatNone
}

// String returns the lowercase container name used in logs and metrics.
func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatMP3:
		return "mp3"
	case FormatFLAC:
		return "flac"
	default:
		return "none"
	}
}

// Extension returns the URL suffix for the format, or "" for FormatNone.
func (f Format) Extension() string {
	return formatExtensions[f]
}
