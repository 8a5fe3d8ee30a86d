package changes

// Tracker owns the current FileTree. It is not safe for concurrent use.
type Tracker struct {
	tree        FileTree
	selectNew   bool
	propagating bool
}

// NewTracker returns an empty tracker. selectNew is the initial value of
// the select-new-files toggle.
func NewTracker(selectNew bool) *Tracker {
	return &Tracker{selectNew: selectNew}
}

// Refresh rebuilds the tree from a fresh status listing, merging the
// previous selection and expansion state forward.
func (t *Tracker) Refresh(entries []StatusEntry) {
	t.tree = buildTree(t.tree, entries, t.selectNew)
	for i := range t.tree.Folders {
		t.tree.Folders[i].Selected = t.AllSelectedInFolder(t.tree.Folders[i].Path)
	}
}

// Reset drops all state, as when another repository is opened.
func (t *Tracker) Reset() {
	t.tree = FileTree{}
}

// Tree returns a copy of the current snapshot.
func (t *Tracker) Tree() FileTree {
	out := FileTree{
		Files:   make([]ChangedFile, len(t.tree.Files)),
		Folders: make([]ChangedFolder, len(t.tree.Folders)),
	}
	copy(out.Files, t.tree.Files)
	copy(out.Folders, t.tree.Folders)
	return out
}

// FilesIn returns the files whose parent is folder.
func (t *Tracker) FilesIn(folder string) []ChangedFile {
	var out []ChangedFile
	for _, f := range t.tree.Files {
		if f.Parent == folder {
			out = append(out, f)
		}
	}
	return out
}

// SelectNewFiles reports the select-new-files toggle.
func (t *Tracker) SelectNewFiles() bool {
	return t.selectNew
}

// SetSelectNewFiles changes the default applied to files first seen on
// the next refresh. Existing files keep their state.
func (t *Tracker) SetSelectNewFiles(v bool) {
	t.selectNew = v
}

func (t *Tracker) SelectedFiles() []ChangedFile {
	var out []ChangedFile
	for _, f := range t.tree.Files {
		if f.Selected {
			out = append(out, f)
		}
	}
	return out
}

// SelectedPaths returns the repository-relative paths of selected files.
func (t *Tracker) SelectedPaths() []string {
	var out []string
	for _, f := range t.tree.Files {
		if f.Selected {
			out = append(out, f.Path())
		}
	}
	return out
}

func (t *Tracker) CountSelected() int {
	n := 0
	for _, f := range t.tree.Files {
		if f.Selected {
			n++
		}
	}
	return n
}

func (t *Tracker) CountTotal() int {
	return len(t.tree.Files)
}

// AllSelectedInFolder reports whether every file in folder is selected.
// A folder with no files is not considered selected.
func (t *Tracker) AllSelectedInFolder(folder string) bool {
	found := false
	for _, f := range t.tree.Files {
		if f.Parent != folder {
			continue
		}
		if !f.Selected {
			return false
		}
		found = true
	}
	return found
}

// AllSelected reports whether the list is non-empty and fully selected.
func (t *Tracker) AllSelected() bool {
	return len(t.tree.Files) > 0 && t.CountSelected() == len(t.tree.Files)
}

// Contains reports whether path is in the current change list.
func (t *Tracker) Contains(path string) bool {
	return t.fileIndex(path) >= 0
}

// SetFileSelected toggles one file and updates its folder checkbox. It
// returns false when path is not in the list.
func (t *Tracker) SetFileSelected(path string, selected bool) bool {
	i := t.fileIndex(path)
	if i < 0 {
		return false
	}
	t.setFileSelected(i, selected)
	return true
}

func (t *Tracker) setFileSelected(i int, selected bool) {
	t.tree.Files[i].Selected = selected

	if t.propagating {
		return
	}
	t.propagating = true
	if parent := t.tree.Files[i].Parent; parent != RootFolder {
		t.SetFolderSelected(parent, t.AllSelectedInFolder(parent))
	}
	t.propagating = false
}

// SetFolderSelected sets the folder checkbox and every file in it, then
// recomputes the select-new-files toggle from AllSelected. It returns
// false when the folder does not exist.
func (t *Tracker) SetFolderSelected(folder string, selected bool) bool {
	i := t.folderIndex(folder)
	if i < 0 {
		return false
	}
	t.tree.Folders[i].Selected = selected

	if t.propagating {
		return true
	}
	t.propagating = true
	for j := range t.tree.Files {
		if t.tree.Files[j].Parent == folder {
			t.setFileSelected(j, selected)
		}
	}
	t.propagating = false

	t.selectNew = t.AllSelected()
	return true
}

// SetAllSelected selects or clears every file and sets the
// select-new-files toggle to match.
func (t *Tracker) SetAllSelected(selected bool) {
	for i := range t.tree.Files {
		t.tree.Files[i].Selected = selected
	}
	for i := range t.tree.Folders {
		t.tree.Folders[i].Selected = selected && t.AllSelectedInFolder(t.tree.Folders[i].Path)
	}
	t.selectNew = selected
}

// SetFolderExpanded records whether a folder is expanded.
func (t *Tracker) SetFolderExpanded(folder string, expanded bool) bool {
	i := t.folderIndex(folder)
	if i < 0 {
		return false
	}
	t.tree.Folders[i].Expanded = expanded
	return true
}

// SetOpened marks path as the file being viewed and clears the flag on
// every other file. An empty path clears it everywhere. A path not in
// the list changes nothing.
func (t *Tracker) SetOpened(path string) bool {
	if path != "" && t.fileIndex(path) < 0 {
		return false
	}
	for i := range t.tree.Files {
		t.tree.Files[i].Opened = path != "" && t.tree.Files[i].Path() == path
	}
	return path != ""
}

// Opened returns the file currently being viewed.
func (t *Tracker) Opened() (ChangedFile, bool) {
	for _, f := range t.tree.Files {
		if f.Opened {
			return f, true
		}
	}
	return ChangedFile{}, false
}

func (t *Tracker) fileIndex(path string) int {
	for i, f := range t.tree.Files {
		if f.Path() == path {
			return i
		}
	}
	return -1
}

func (t *Tracker) folderIndex(folder string) int {
	for i, f := range t.tree.Folders {
		if f.Path == folder {
			return i
		}
	}
	return -1
}
