package manifest

import "github.com/brettbedarf/filetree"

// Content encodings accepted in a file entry
const (
	EncodingText   = "text"
	EncodingBase64 = "base64"
)

// NodeRequestDTO is the serialized form of [filetree.NodeRequest]
type NodeRequestDTO struct {
	Path string                         `json:"path" yaml:"path"`
	Type filetree.NodeCreateRequestType `json:"type" yaml:"type"`
}

// FileRequestDTO is the serialized form of [filetree.FileCreateRequest].
// A missing contents field creates a file with nil contents.
type FileRequestDTO struct {
	NodeRequestDTO `yaml:",inline"`
	Contents       *string `json:"contents,omitempty" yaml:"contents,omitempty"`
	Encoding       *string `json:"encoding,omitempty" yaml:"encoding,omitempty"` // "text" (default) or "base64"
}

type DirRequestDTO struct {
	NodeRequestDTO `yaml:",inline"`
}
