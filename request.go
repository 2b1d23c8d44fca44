package filetree

// NodeRequest has common fields embedded in concrete request types
type NodeRequest struct {
	Path string
	Type NodeCreateRequestType
}

// NodeCreateRequestType valid types are FileNodeType "file", DirNodeType "dir"
type NodeCreateRequestType string

const (
	FileNodeType NodeCreateRequestType = "file"
	DirNodeType  NodeCreateRequestType = "dir"
)

func (r *NodeRequest) GetType() NodeCreateRequestType {
	return r.Type
}

func (r *NodeRequest) GetPath() string {
	return r.Path
}

type FileCreateRequest struct {
	NodeRequest
	// Contents may be nil; an empty file and a file with no contents are both valid
	Contents []byte
}

type DirCreateRequest struct {
	NodeRequest
}
