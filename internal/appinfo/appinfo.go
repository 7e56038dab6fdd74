// Package appinfo holds static identifiers shared by the binaries.
package appinfo

import "fmt"

// Metadata captures static identifiers for the application.
type Metadata struct {
	Name        string
	BinaryName  string
	Slug        string
	Description string
	// Version is the integer release number; release tags are "v<Version>".
	Version int
}

// Info describes the current build.
var Info = Metadata{
	Name:        "Whisper Voice",
	BinaryName:  "whispervoice",
	Slug:        "whisper-voice-input",
	Description: "Offline speech-to-text backed by whisper.cpp.",
	Version:     5,
}

// VersionTag returns the release tag for the current build.
func VersionTag() string {
	return fmt.Sprintf("v%d", Info.Version)
}

// UserAgent is sent with outgoing HTTP requests.
func UserAgent() string {
	return Info.Slug + "/" + VersionTag()
}
