// Package changes models the working-tree change list shown to the user:
// changed files grouped by folder, with selection and expansion state
// that survives refreshes.
package changes

import (
	"fmt"
	"path"
	"sort"
)

// Status is the kind of change a file carries.
type Status int

const (
	Modified Status = iota
	Added
	Deleted
	Renamed
	TypeChanged
)

var statusNames = map[Status]string{
	Modified:    "modified",
	Added:       "added",
	Deleted:     "deleted",
	Renamed:     "renamed",
	TypeChanged: "type-changed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText renders the status as its lowercase name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a name produced by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown file status %q", text)
}

// StatusEntry is one line of a working-tree status listing.
type StatusEntry struct {
	Path    string
	Status  Status
	Ignored bool
}

// ChangedFile is a file in the change list. Identity is
// (Parent, Name, Status).
type ChangedFile struct {
	Parent   string `json:"parent"`
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Selected bool   `json:"selected"`
	Opened   bool   `json:"opened"`
}

// Path joins Parent and Name.
func (f ChangedFile) Path() string {
	if f.Parent == RootFolder {
		return f.Name
	}
	return f.Parent + "/" + f.Name
}

type fileKey struct {
	parent string
	name   string
	status Status
}

func (f ChangedFile) key() fileKey {
	return fileKey{parent: f.Parent, name: f.Name, status: f.Status}
}

// ChangedFolder groups the changed files sharing a parent directory.
// Selected mirrors the folder checkbox.
type ChangedFolder struct {
	Path     string `json:"path"`
	Expanded bool   `json:"expanded"`
	Selected bool   `json:"selected"`
}

// RootFolder is the parent of files at the repository root. It has no
// ChangedFolder.
const RootFolder = ""

// FileTree is one snapshot of the change list. Every file's Parent is
// RootFolder or the Path of exactly one folder.
type FileTree struct {
	Files   []ChangedFile   `json:"files"`
	Folders []ChangedFolder `json:"folders"`
}

func splitPath(p string) (string, string) {
	dir, name := path.Split(p)
	dir = path.Clean(dir)
	if dir == "." || dir == "/" {
		dir = RootFolder
	}
	return dir, name
}

// buildTree converts entries into a tree, carrying Selected and Opened
// forward from prev by file identity and Expanded by folder path.
func buildTree(prev FileTree, entries []StatusEntry, selectNew bool) FileTree {
	prevFiles := make(map[fileKey]ChangedFile, len(prev.Files))
	for _, f := range prev.Files {
		prevFiles[f.key()] = f
	}
	prevFolders := make(map[string]ChangedFolder, len(prev.Folders))
	for _, f := range prev.Folders {
		prevFolders[f.Path] = f
	}

	sorted := make([]StatusEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Ignored {
			sorted = append(sorted, e)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Path != sorted[j].Path {
			return sorted[i].Path < sorted[j].Path
		}
		return sorted[i].Status < sorted[j].Status
	})

	var tree FileTree
	seenFolder := make(map[string]bool)
	for _, e := range sorted {
		parent, name := splitPath(e.Path)
		file := ChangedFile{Parent: parent, Name: name, Status: e.Status, Selected: selectNew}
		if old, ok := prevFiles[file.key()]; ok {
			file.Selected = old.Selected
			file.Opened = old.Opened
		}
		tree.Files = append(tree.Files, file)

		if parent == RootFolder || seenFolder[parent] {
			continue
		}
		seenFolder[parent] = true
		folder := ChangedFolder{Path: parent, Expanded: true}
		if old, ok := prevFolders[parent]; ok {
			folder.Expanded = old.Expanded
		}
		tree.Folders = append(tree.Folders, folder)
	}
	sort.Slice(tree.Folders, func(i, j int) bool { return tree.Folders[i].Path < tree.Folders[j].Path })

	return tree
}
