package worklog

import (
	"net/url"
	"strings"
)

// MarkerPrefix starts every comment written by a sync run.
const MarkerPrefix = "TIMEMACHINE_WID "

// EncodeMarker renders the destination comment for a source worklog.
//
//	TIMEMACHINE_WID <id>:            (empty comment)
//	TIMEMACHINE_WID <id>: <comment>
//
// The id is query-escaped so ids containing ':' or spaces still parse back.
func EncodeMarker(sourceID, comment string) string {
	var b strings.Builder
	b.WriteString(MarkerPrefix)
	b.WriteString(url.QueryEscape(sourceID))
	b.WriteByte(':')
	if comment != "" {
		b.WriteByte(' ')
		b.WriteString(comment)
	}
	return b.String()
}

// ParseMarker extracts the source id and original comment from a destination comment.
// ok is false for comments that do not start with a well-formed marker.
func ParseMarker(text string) (sourceID, comment string, ok bool) {
	rest, found := strings.CutPrefix(text, MarkerPrefix)
	if !found {
		return "", "", false
	}

	end := 0
	for end < len(rest) && isIDByte(rest[end]) {
		end++
	}
	if end == 0 || end >= len(rest) || rest[end] != ':' {
		return "", "", false
	}

	id, err := url.QueryUnescape(rest[:end])
	if err != nil || id == "" {
		return "", "", false
	}

	tail := rest[end+1:]
	switch {
	case tail == "":
		return id, "", true
	case tail[0] == ' ':
		return id, tail[1:], true
	default:
		return "", "", false
	}
}

func isIDByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~', c == '%', c == '+':
		return true
	}
	return false
}
