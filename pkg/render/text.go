package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"dirtree/pkg/dirtree"
)

const (
	branchConnector = "├── "
	lastConnector   = "└── "
	branchExtension = "│   "
	lastExtension   = "    "
)

// TextOptions controls the text tree.
type TextOptions struct {
	Color            bool // Colorize directory names.
	HideSizes        bool // Omit the size column.
	DirectoriesFirst bool // List directories before files, case-insensitively by name.
}

// Text writes item as a box-drawing tree. The root line shows the root's
// path; every other line shows the entry name. Directories end in "/".
func Text(w io.Writer, item *dirtree.Item, opts TextOptions) error {
	if item == nil {
		return nil
	}

	directoryColor := color.New(color.FgBlue, color.Bold)
	if opts.Color {
		directoryColor.EnableColor()
	} else {
		directoryColor.DisableColor()
	}
	t := &textWriter{opts: opts, directory: directoryColor}

	t.line("", item, item.Path)
	t.children(item, "")

	if _, err := io.WriteString(w, t.out.String()); err != nil {
		return fmt.Errorf("writing tree: %w", err)
	}
	return nil
}

type textWriter struct {
	opts      TextOptions
	directory *color.Color
	out       strings.Builder
}

func (t *textWriter) children(item *dirtree.Item, prefix string) {
	children := item.Children
	if t.opts.DirectoriesFirst {
		children = sortedDirectoriesFirst(children)
	}
	for i, child := range children {
		connector, extension := branchConnector, branchExtension
		if i == len(children)-1 {
			connector, extension = lastConnector, lastExtension
		}
		t.line(prefix+connector, child, child.Name)
		if child.IsDir() {
			t.children(child, prefix+extension)
		}
	}
}

func (t *textWriter) line(prefix string, item *dirtree.Item, label string) {
	t.out.WriteString(prefix)
	if item.IsDir() {
		t.out.WriteString(t.directory.Sprint(strings.TrimSuffix(label, "/") + "/"))
	} else {
		t.out.WriteString(label)
	}
	if !t.opts.HideSizes {
		t.out.WriteString(" (" + FormatSize(item.Size) + ")")
	}
	t.out.WriteByte('\n')
}

func sortedDirectoriesFirst(items []*dirtree.Item) []*dirtree.Item {
	sorted := append([]*dirtree.Item(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsDir() != sorted[j].IsDir() {
			return sorted[i].IsDir()
		}
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	return sorted
}

// FormatSize converts a byte count into a short lower-case unit string
// such as "12b", "3.7kb" or "11kb".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "0b"
	}
	units := []string{"b", "kb", "mb", "gb", "tb", "pb"}
	value := float64(bytes)
	unitIndex := 0
	for value >= 1024 && unitIndex < len(units)-1 {
		value /= 1024
		unitIndex++
	}
	if unitIndex == 0 {
		return fmt.Sprintf("%db", bytes)
	}
	if value < 10 {
		return strings.TrimSuffix(fmt.Sprintf("%.1f", value), ".0") + units[unitIndex]
	}
	return fmt.Sprintf("%.0f%s", value, units[unitIndex])
}
