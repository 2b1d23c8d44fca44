package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const yamlManifest = `
nodes:
  - type: file
    path: /srv/etc/motd
    contents: "hello\n"
  - type: dir
    path: /srv/empty
  - type: file
    path: /srv/bin/blob
    contents: AAEC
    encoding: base64
  - type: file
    path: /srv/etc/none
  - type: dir
    path: /srv
`

func TestParse_YAML(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(yamlManifest), ".yaml")
	require.NoError(t, err)

	require.Len(t, m.Dirs, 2)
	require.Len(t, m.Files, 3)
	assert.Equal(t, 5, m.Len())
	assert.Equal(t, "/srv/empty", m.Dirs[0].Path)
	assert.Equal(t, filetree.DirNodeType, m.Dirs[0].GetType())

	assert.Equal(t, "/srv/etc/motd", m.Files[0].GetPath())
	assert.Equal(t, []byte("hello\n"), m.Files[0].Contents)
	assert.Equal(t, []byte{0, 1, 2}, m.Files[1].Contents)
	assert.Nil(t, m.Files[2].Contents)
}

func TestParse_JSON(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"nodes": []map[string]any{
			{"type": "dir", "path": "/a/b"},
			{"type": "file", "path": "/a/f", "contents": "x"},
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	m, err := Parse(data, ".JSON")
	require.NoError(t, err)
	require.Len(t, m.Dirs, 1)
	require.Len(t, m.Files, 1)
	assert.Equal(t, []byte("x"), m.Files[0].Contents)
}

func TestParse_SameResultBothFormats(t *testing.T) {
	t.Parallel()

	var generic map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(yamlManifest), &generic))
	asJSON, err := json.Marshal(generic)
	require.NoError(t, err)

	fromYAML, err := Parse([]byte(yamlManifest), ".yml")
	require.NoError(t, err)
	fromJSON, err := Parse(asJSON, ".json")
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromJSON)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		ext  string
	}{
		{"unknown extension", "nodes: []", ".toml"},
		{"malformed yaml", "nodes: [", ".yaml"},
		{"malformed json", `{"nodes": [`, ".json"},
		{"unknown type", "nodes:\n  - type: symlink\n    path: /a/b\n", ".yaml"},
		{"missing type", "nodes:\n  - path: /a/b\n", ".yaml"},
		{"contents not a string", "nodes:\n  - type: file\n    path: /a/b\n    contents: [1, 2]\n", ".yaml"},
		{"bad base64", "nodes:\n  - type: file\n    path: /a/b\n    contents: '!!'\n    encoding: base64\n", ".yaml"},
		{"unknown encoding", "nodes:\n  - type: file\n    path: /a/b\n    contents: x\n    encoding: hex\n", ".yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.data), tt.ext)
			assert.ErrorIs(t, err, filetree.ErrConfig)
		})
	}
}

func TestUnmarshalRequests_TypeMismatch(t *testing.T) {
	t.Parallel()

	_, err := UnmarshalDirRequest([]byte(`{"type":"file","path":"/a/b"}`))
	assert.ErrorIs(t, err, filetree.ErrConfig)

	_, err = UnmarshalFileRequest([]byte(`{"type":"dir","path":"/a/b"}`))
	assert.ErrorIs(t, err, filetree.ErrConfig)

	typ, err := GetNodeType([]byte(`{"type":"file"}`))
	require.NoError(t, err)
	assert.Equal(t, filetree.FileNodeType, typ)

	_, err = GetNodeType([]byte(`not json`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nodes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlManifest), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, m.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(yamlManifest), ".yaml")
	require.NoError(t, err)

	ft := filesystem.New(nil)
	require.NoError(t, ft.Init())

	res := Apply(ft, m)

	require.NoError(t, res.Err())
	assert.Equal(t, 5, res.Created)
	assert.Zero(t, res.Existing)
	assert.True(t, ft.ContainsDir("/srv/empty"))
	got, err := ft.GetFileContents("/srv/bin/blob")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, got)
	require.NoError(t, ft.Check())
}

func TestApply_RecordsFailuresAndContinues(t *testing.T) {
	t.Parallel()

	m := &Manifest{
		Dirs: []*filetree.DirCreateRequest{
			{NodeRequest: filetree.NodeRequest{Path: "/r/a/b", Type: filetree.DirNodeType}},
			{NodeRequest: filetree.NodeRequest{Path: "/r/a", Type: filetree.DirNodeType}},
			{NodeRequest: filetree.NodeRequest{Path: "/elsewhere", Type: filetree.DirNodeType}},
		},
		Files: []*filetree.FileCreateRequest{
			{NodeRequest: filetree.NodeRequest{Path: "/r/f", Type: filetree.FileNodeType}, Contents: []byte("1")},
			{NodeRequest: filetree.NodeRequest{Path: "/r/f", Type: filetree.FileNodeType}, Contents: []byte("2")},
			{NodeRequest: filetree.NodeRequest{Path: "/r/f/g", Type: filetree.FileNodeType}},
			{NodeRequest: filetree.NodeRequest{Path: "relative", Type: filetree.FileNodeType}},
		},
	}

	ft := filesystem.New(nil)
	require.NoError(t, ft.Init())
	require.NoError(t, ft.InsertDir("/r"))

	res := Apply(ft, m)

	// /elsewhere sorts first and conflicts with the /r root; /r/a sorts
	// before /r/a/b so both are created fresh
	assert.Equal(t, 3, res.Created)
	assert.Zero(t, res.Existing)
	require.Len(t, res.Failures, 4)
	assert.Equal(t, "/elsewhere", res.Failures[0].Path)
	assert.Equal(t, filetree.DirNodeType, res.Failures[0].Type)
	assert.Equal(t, "/r/f/g", res.Failures[2].Path)
	assert.ErrorIs(t, res.Failures[0].Err, filetree.ErrConflictingPath)
	assert.ErrorIs(t, res.Failures[1].Err, filetree.ErrAlreadyInTree)
	assert.ErrorIs(t, res.Failures[2].Err, filetree.ErrNotADirectory)
	assert.ErrorIs(t, res.Failures[3].Err, filetree.ErrBadPath)
	assert.Equal(t, filetree.FileNodeType, res.Failures[3].Type)

	err := res.Err()
	assert.ErrorIs(t, err, filetree.ErrConflictingPath)
	assert.ErrorIs(t, err, filetree.ErrBadPath)

	got, err := ft.GetFileContents("/r/f")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got, "the first entry wins")
	require.NoError(t, ft.Check())
}

func TestApply_ExistingDirectories(t *testing.T) {
	t.Parallel()

	m := &Manifest{
		Dirs: []*filetree.DirCreateRequest{
			{NodeRequest: filetree.NodeRequest{Path: "/r", Type: filetree.DirNodeType}},
		},
	}
	ft := filesystem.New(nil)
	require.NoError(t, ft.Init())
	require.NoError(t, ft.InsertDir("/r"))

	res := Apply(ft, m)

	assert.NoError(t, res.Err())
	assert.Equal(t, 1, res.Existing)
	assert.Zero(t, res.Created)
}

func TestPathDepth(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, pathDepth("/a"))
	assert.Equal(t, 3, pathDepth("/a/b/c"))
	assert.Greater(t, pathDepth("bad"), 1000)
}
