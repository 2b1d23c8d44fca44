// Package manifest loads node definition files and applies them to a tree.
//
// A manifest lists the directories and files to create, in YAML or JSON:
//
//	nodes:
//	  - type: dir
//	    path: /srv/empty
//	  - type: file
//	    path: /srv/etc/motd
//	    contents: "hello\n"
//	  - type: file
//	    path: /srv/bin/blob
//	    contents: AAEC
//	    encoding: base64
package manifest

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/internal/util"
	"github.com/brettbedarf/filetree/paths"
	"gopkg.in/yaml.v3"
)

// Manifest is a parsed node definition file
type Manifest struct {
	Dirs  []*filetree.DirCreateRequest
	Files []*filetree.FileCreateRequest
}

// Len returns the number of entries
func (m *Manifest) Len() int {
	return len(m.Dirs) + len(m.Files)
}

type jsonDocument struct {
	Nodes []json.RawMessage `json:"nodes"`
}

type yamlDocument struct {
	Nodes []map[string]any `yaml:"nodes"`
}

// Load reads and parses the manifest at path; the format follows the extension
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes a manifest. ext selects the format: ".yaml", ".yml" or ".json".
func Parse(data []byte, ext string) (*Manifest, error) {
	var entries []json.RawMessage

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var doc yamlDocument
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: failed to unmarshal manifest: %w", filetree.ErrConfig, err)
		}
		// re-encode each entry so both formats share the JSON request decoders
		for i, node := range doc.Nodes {
			raw, err := json.Marshal(node)
			if err != nil {
				return nil, fmt.Errorf("%w: manifest entry %d: %w", filetree.ErrConfig, i, err)
			}
			entries = append(entries, raw)
		}
	case ".json":
		var doc jsonDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: failed to unmarshal manifest: %w", filetree.ErrConfig, err)
		}
		entries = doc.Nodes
	default:
		return nil, fmt.Errorf("%w: unknown manifest file extension: %q", filetree.ErrConfig, ext)
	}

	m := &Manifest{}
	for i, raw := range entries {
		typ, err := GetNodeType(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: manifest entry %d: %w", filetree.ErrConfig, i, err)
		}
		switch typ {
		case filetree.DirNodeType:
			req, err := UnmarshalDirRequest(raw)
			if err != nil {
				return nil, entryError(i, err)
			}
			m.Dirs = append(m.Dirs, req)
		case filetree.FileNodeType:
			req, err := UnmarshalFileRequest(raw)
			if err != nil {
				return nil, entryError(i, err)
			}
			m.Files = append(m.Files, req)
		default:
			return nil, fmt.Errorf("%w: manifest entry %d has unknown type %q", filetree.ErrConfig, i, typ)
		}
	}
	return m, nil
}

func entryError(i int, err error) error {
	if errors.Is(err, filetree.ErrConfig) {
		return err
	}
	return fmt.Errorf("%w: manifest entry %d: %w", filetree.ErrConfig, i, err)
}

// Failure is one manifest entry the tree rejected
type Failure struct {
	Path string
	Type filetree.NodeCreateRequestType
	Err  error
}

func newFailure(req filetree.NodeRequestor, err error) Failure {
	return Failure{Path: req.GetPath(), Type: req.GetType(), Err: err}
}

// Result summarizes an [Apply] run
type Result struct {
	Created  int       // entries inserted
	Existing int       // directory entries already present, e.g. created as a deeper entry's ancestor
	Failures []Failure // rejected entries, in application order
}

// Err joins every failure, or returns nil when all entries applied
func (r Result) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// Apply inserts every directory then every file of m into op. A rejected
// entry is recorded and the rest of the batch still runs.
func Apply(op filetree.TreeOperator, m *Manifest) Result {
	logger := util.GetLogger("Manifest.Apply")
	var res Result

	// shallow directories first so deeper entries find their parents
	dirs := slices.Clone(m.Dirs)
	slices.SortStableFunc(dirs, func(a, b *filetree.DirCreateRequest) int {
		return cmp.Compare(pathDepth(a.Path), pathDepth(b.Path))
	})

	for _, req := range dirs {
		err := op.InsertDir(req.Path)
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, filetree.ErrAlreadyInTree):
			res.Existing++
		default:
			logger.Warn().Err(err).Str("path", req.Path).Msg("Skipping directory entry")
			res.Failures = append(res.Failures, newFailure(req, err))
		}
	}

	for _, req := range m.Files {
		if err := op.InsertFile(req.Path, req.Contents); err != nil {
			logger.Warn().Err(err).Str("path", req.Path).Msg("Skipping file entry")
			res.Failures = append(res.Failures, newFailure(req, err))
			continue
		}
		res.Created++
	}

	logger.Debug().Int("created", res.Created).Int("existing", res.Existing).Int("failed", len(res.Failures)).Msg("Manifest applied")
	return res
}

// pathDepth orders entries for Apply; malformed paths sort last and are
// rejected by the tree
func pathDepth(raw string) int {
	p, err := paths.New(raw)
	if err != nil {
		return math.MaxInt
	}
	return p.Depth()
}
