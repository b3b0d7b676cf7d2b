package enums

import "fmt"

// AudioFormat enumerates the container formats accepted for chapter uploads.
type AudioFormat string

const (
	AudioFormatMP3  AudioFormat = "mp3"
	AudioFormatM4A  AudioFormat = "m4a"
	AudioFormatM4B  AudioFormat = "m4b"
	AudioFormatFLAC AudioFormat = "flac"
	AudioFormatOGG  AudioFormat = "ogg"
	AudioFormatWAV  AudioFormat = "wav"
)

var validAudioFormats = []AudioFormat{
	AudioFormatMP3,
	AudioFormatM4A,
	AudioFormatM4B,
	AudioFormatFLAC,
	AudioFormatOGG,
	AudioFormatWAV,
}

var audioFormatContentTypes = map[AudioFormat]string{
	AudioFormatMP3:  "audio/mpeg",
	AudioFormatM4A:  "audio/mp4",
	AudioFormatM4B:  "audio/mp4",
	AudioFormatFLAC: "audio/flac",
	AudioFormatOGG:  "audio/ogg",
	AudioFormatWAV:  "audio/wav",
}

// String returns the literal string for the format.
func (a AudioFormat) String() string {
	return string(a)
}

// IsValid reports whether the format is known.
func (a AudioFormat) IsValid() bool {
	for _, candidate := range validAudioFormats {
		if candidate == a {
			return true
		}
	}
	return false
}

// ContentType returns the MIME type stored alongside the blob.
func (a AudioFormat) ContentType() string {
	if ct, ok := audioFormatContentTypes[a]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ParseAudioFormat converts raw input (an extension, with or without the
// leading dot) into an AudioFormat.
func ParseAudioFormat(value string) (AudioFormat, error) {
	if len(value) > 0 && value[0] == '.' {
		value = value[1:]
	}
	for _, candidate := range validAudioFormats {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audio format %q", value)
}
