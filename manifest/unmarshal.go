package manifest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/brettbedarf/filetree"
)

// GetNodeType extracts the node type from JSON without full unmarshaling
func GetNodeType(data []byte) (filetree.NodeCreateRequestType, error) {
	var meta struct {
		Type filetree.NodeCreateRequestType `json:"type"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", err
	}
	return meta.Type, nil
}

// UnmarshalFileRequest decodes a file entry and its contents
func UnmarshalFileRequest(data []byte) (*filetree.FileCreateRequest, error) {
	var dto FileRequestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}
	if dto.Type != filetree.FileNodeType {
		return nil, fmt.Errorf("%w: entry %q has type %q, want %q", filetree.ErrConfig, dto.Path, dto.Type, filetree.FileNodeType)
	}

	contents, err := decodeContents(dto.Contents, valueOrDefault(dto.Encoding, EncodingText))
	if err != nil {
		return nil, fmt.Errorf("%w: entry %q: %w", filetree.ErrConfig, dto.Path, err)
	}

	return &filetree.FileCreateRequest{
		NodeRequest: convertNodeDTO(dto.NodeRequestDTO),
		Contents:    contents,
	}, nil
}

// UnmarshalDirRequest decodes a directory entry
func UnmarshalDirRequest(data []byte) (*filetree.DirCreateRequest, error) {
	var dto DirRequestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}
	if dto.Type != filetree.DirNodeType {
		return nil, fmt.Errorf("%w: entry %q has type %q, want %q", filetree.ErrConfig, dto.Path, dto.Type, filetree.DirNodeType)
	}

	return &filetree.DirCreateRequest{
		NodeRequest: convertNodeDTO(dto.NodeRequestDTO),
	}, nil
}

func decodeContents(raw *string, encoding string) ([]byte, error) {
	if raw == nil {
		return nil, nil
	}
	switch encoding {
	case EncodingText:
		return []byte(*raw), nil
	case EncodingBase64:
		return base64.StdEncoding.DecodeString(*raw)
	default:
		return nil, fmt.Errorf("unknown encoding %q", encoding)
	}
}

func convertNodeDTO(dto NodeRequestDTO) filetree.NodeRequest {
	return filetree.NodeRequest{
		Path: dto.Path,
		Type: dto.Type,
	}
}

func valueOrDefault[T any](ptr *T, defaultVal T) T {
	if ptr != nil {
		return *ptr
	}
	return defaultVal
}
