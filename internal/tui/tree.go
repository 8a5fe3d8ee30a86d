package tui

import (
	"github.com/bantamhq/gitdesk/internal/changes"
)

type NodeKind int

const (
	NodeFolder NodeKind = iota
	NodeFile
)

// TreeNode is one visible row of the change list.
type TreeNode struct {
	Kind  NodeKind
	Depth int

	Folder *changes.ChangedFolder
	File   *changes.ChangedFile
}

// Path is the folder path or the file path of the row.
func (n TreeNode) Path() string {
	if n.Kind == NodeFolder {
		return n.Folder.Path
	}
	return n.File.Path()
}

// FlattenTree lists the rows to render: root-level files first, then
// each folder followed by its files when expanded.
func FlattenTree(tree changes.FileTree) []TreeNode {
	byParent := make(map[string][]int, len(tree.Folders)+1)
	for i, f := range tree.Files {
		byParent[f.Parent] = append(byParent[f.Parent], i)
	}

	var rows []TreeNode
	for _, i := range byParent[changes.RootFolder] {
		rows = append(rows, TreeNode{Kind: NodeFile, File: &tree.Files[i]})
	}

	for i := range tree.Folders {
		folder := &tree.Folders[i]
		rows = append(rows, TreeNode{Kind: NodeFolder, Folder: folder})
		if !folder.Expanded {
			continue
		}
		for _, j := range byParent[folder.Path] {
			rows = append(rows, TreeNode{Kind: NodeFile, Depth: 1, File: &tree.Files[j]})
		}
	}

	return rows
}

func statusGlyph(s changes.Status) string {
	switch s {
	case changes.Added:
		return StyleAdded.Render("A")
	case changes.Deleted:
		return StyleDeleted.Render("D")
	case changes.Renamed:
		return StyleModified.Render("R")
	case changes.TypeChanged:
		return StyleModified.Render("T")
	default:
		return StyleModified.Render("M")
	}
}

func checkbox(selected bool) string {
	if selected {
		return "[x]"
	}
	return "[ ]"
}
