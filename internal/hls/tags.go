// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package hls

import "strings"

const (
	tagKey        = "#EXT-X-KEY:"
	tagAudioMedia = "#EXT-X-MEDIA:TYPE=AUDIO"
	tagStreamInf  = "#EXT-X-STREAM-INF"
	tagEndList    = "#EXT-X-ENDLIST"

	masterMarker = "RESOLUTION="
)

// LineKind classifies a single playlist line.
type LineKind int

const (
	PassthroughLine LineKind = iota
	URILine
	KeyTag
	AudioMediaTag
	StreamInfTag
	EndListTag
)

func (k LineKind) String() string {
	switch k {
	case URILine:
		return "uri"
	case KeyTag:
		return "key"
	case AudioMediaTag:
		return "audio_media"
	case StreamInfTag:
		return "stream_inf"
	case EndListTag:
		return "endlist"
	default:
		return "passthrough"
	}
}

// IsMaster reports whether doc looks like a master playlist.
func IsMaster(doc string) bool {
	return strings.Contains(doc, masterMarker)
}

// Classify returns the kind of line. StreamInfTag is only recognized inside a
// master playlist and URILine only inside a media playlist; otherwise those
// lines are PassthroughLine.
func Classify(line string, isMaster bool) LineKind {
	switch {
	case strings.HasPrefix(line, tagEndList):
		return EndListTag
	case strings.HasPrefix(line, tagKey):
		return KeyTag
	case strings.HasPrefix(line, tagAudioMedia):
		return AudioMediaTag
	case isMaster && strings.HasPrefix(line, tagStreamInf):
		return StreamInfTag
	case !isMaster && isURILine(line):
		return URILine
	default:
		return PassthroughLine
	}
}

func isURILine(line string) bool {
	return !isBlank(line) && !strings.HasPrefix(line, "#")
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
