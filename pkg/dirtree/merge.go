package dirtree

// Merge folds source into dest. Children of source are matched against
// children of dest by name and type: matching directories are merged
// recursively, a matching file takes the location and size of the source
// file, and unmatched children are appended after the existing ones in
// source order. Directory sizes of dest are recomputed afterwards.
//
// Merge(t, t) leaves t unchanged.
func Merge(dest, source *Item) {
	if dest == nil || source == nil {
		return
	}
	mergeChildren(dest, source)
	RecomputeSizes(dest)
}

func mergeChildren(dest, source *Item) {
	for _, sourceChild := range source.Children {
		destChild := findChild(dest.Children, sourceChild.Name, sourceChild.Type)
		switch {
		case destChild == nil:
			dest.Children = append(dest.Children, sourceChild)
		case sourceChild.IsDir():
			mergeChildren(destChild, sourceChild)
		default:
			destChild.Path = sourceChild.Path
			destChild.RelativePath = sourceChild.RelativePath
			destChild.Size = sourceChild.Size
		}
	}
}

func findChild(children []*Item, name string, itemType ItemType) *Item {
	for _, child := range children {
		if child.Name == name && child.Type == itemType {
			return child
		}
	}
	return nil
}

// RecomputeSizes sets every directory size below item to the sum of its
// children and returns the size of item.
func RecomputeSizes(item *Item) int64 {
	if item == nil {
		return 0
	}
	if !item.IsDir() {
		return item.Size
	}
	var total int64
	for _, child := range item.Children {
		total += RecomputeSizes(child)
	}
	item.Size = total
	return total
}
