package domain

import "path"

// NodeKind tells a file apart from a directory in a staged tree.
type NodeKind string

const (
	NodeKindFile      NodeKind = "file"
	NodeKindDirectory NodeKind = "directory"
)

// FileTreeNode is a single entry found while enumerating a source tree.
type FileTreeNode struct {
	Path string
	Kind NodeKind
}

// IsDir returns true for directory nodes.
func (n FileTreeNode) IsDir() bool {
	return n.Kind == NodeKindDirectory
}

// ManifestEntry is one optional top-level source included in a build.
// Source and Dest are slash-separated and relative to the project root
// and the dist root respectively.
type ManifestEntry struct {
	Source string
	Dest   string
	Kind   NodeKind
}

// StagingManifest is the ordered list of entries copied by a build.
type StagingManifest []ManifestEntry

// VendorLibrary is the slide-rendering package shipped under node_modules.
const VendorLibrary = "reveal.js"

// DefaultManifest returns the presentation template layout: the markup entry
// point, the optional asset directories and the runtime subset of the vendored
// slide library.
func DefaultManifest(vendor string) StagingManifest {
	m := StagingManifest{
		{Source: "index.html", Dest: "index.html", Kind: NodeKindFile},
	}
	for _, dir := range []string{"css", "js", "images", "videos"} {
		m = append(m, ManifestEntry{Source: dir, Dest: dir, Kind: NodeKindDirectory})
	}
	for _, sub := range []string{"dist", "plugin"} {
		p := path.Join("node_modules", vendor, sub)
		m = append(m, ManifestEntry{Source: p, Dest: p, Kind: NodeKindDirectory})
	}
	return m
}
