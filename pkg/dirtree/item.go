package dirtree

import "encoding/json"

// ItemType distinguishes files from directories.
type ItemType string

const (
	ItemTypeFile      ItemType = "file"
	ItemTypeDirectory ItemType = "directory"
)

// Item is one node of a directory tree.
type Item struct {
	Name         string   `json:"name" yaml:"name"`                             // Base name of the entry.
	Path         string   `json:"path" yaml:"path"`                             // Location, joined or absolute depending on PathMode.
	RelativePath string   `json:"relativePath" yaml:"relativePath"`             // Path below the scan root, "" for the root itself.
	Type         ItemType `json:"type" yaml:"type"`                             // File or directory.
	Size         int64    `json:"size" yaml:"size"`                             // Byte length, or the sum of children sizes.
	Children     []*Item  `json:"children,omitempty" yaml:"children,omitempty"` // Directory entries in listing order.
}

// itemView controls which fields are encoded: directories always carry a
// children list, files never do.
type itemView struct {
	Name         string   `json:"name" yaml:"name"`
	Path         string   `json:"path" yaml:"path"`
	RelativePath string   `json:"relativePath" yaml:"relativePath"`
	Type         ItemType `json:"type" yaml:"type"`
	Size         int64    `json:"size" yaml:"size"`
	Children     *[]*Item `json:"children,omitempty" yaml:"children,omitempty"`
}

func (item *Item) view() itemView {
	v := itemView{
		Name:         item.Name,
		Path:         item.Path,
		RelativePath: item.RelativePath,
		Type:         item.Type,
		Size:         item.Size,
	}
	if item.IsDir() {
		children := item.Children
		if children == nil {
			children = []*Item{}
		}
		v.Children = &children
	}
	return v
}

// MarshalJSON implements json.Marshaler.
func (item *Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(item.view())
}

// MarshalYAML implements yaml.Marshaler.
func (item *Item) MarshalYAML() (interface{}, error) {
	return item.view(), nil
}

// IsDir reports whether the item is a directory.
func (item *Item) IsDir() bool {
	return item.Type == ItemTypeDirectory
}

// Walk calls fn for item and every descendant in depth-first pre-order.
// Returning false from fn skips the item's children.
func (item *Item) Walk(fn func(*Item) bool) {
	if item == nil || !fn(item) {
		return
	}
	for _, child := range item.Children {
		child.Walk(fn)
	}
}

// Count returns the number of files and directories below item, item included.
func (item *Item) Count() (files, directories int) {
	item.Walk(func(node *Item) bool {
		if node.IsDir() {
			directories++
		} else {
			files++
		}
		return true
	})
	return files, directories
}

func newFileItem(name, path, relativePath string, size int64) *Item {
	return &Item{
		Name:         name,
		Path:         path,
		RelativePath: relativePath,
		Type:         ItemTypeFile,
		Size:         size,
	}
}

func newDirectoryItem(name, path, relativePath string, children []*Item) *Item {
	if children == nil {
		children = []*Item{}
	}
	return &Item{
		Name:         name,
		Path:         path,
		RelativePath: relativePath,
		Type:         ItemTypeDirectory,
		Size:         sumSizes(children),
		Children:     children,
	}
}

func sumSizes(items []*Item) int64 {
	var total int64
	for _, item := range items {
		total += item.Size
	}
	return total
}
