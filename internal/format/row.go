package format

import (
	"strings"

	"github.com/evanschultz/tix/internal/domain"
)

// descSeparator splits the meta line from the optional summary inside one
// encoded row description. The ASCII unit separator cannot appear in ordinary
// text, so the encoding round-trips without escaping.
const descSeparator = "\x1f"

// Row is the rendered, fixed-width representation of a task within the list.
type Row struct {
	ID          string
	Label       string
	Description string
}

// BuildRow renders one task into a selectable-list row. When maxLabelWidth is
// positive the label is padded so all rows share one alignment column
// regardless of embedded color escapes.
func BuildRow(task domain.Task, maxLabelWidth int) Row {
	label := Identity(task) + " " + strings.TrimSpace(task.Title)
	if maxLabelWidth > 0 {
		label = PadVisible(label, maxLabelWidth)
	}
	meta := StatusSymbol(task.Status) + " " + TypeCode(task.Type)
	description := meta
	if summary, ok := Summary(task.Description); ok {
		description = EncodeDescription(meta, summary)
	}
	return Row{ID: task.ID, Label: label, Description: description}
}

// BuildRows renders every task and aligns all labels to the widest one.
func BuildRows(tasks []domain.Task) []Row {
	maxWidth := 0
	for _, task := range tasks {
		if w := VisibleWidth(Identity(task) + " " + strings.TrimSpace(task.Title)); w > maxWidth {
			maxWidth = w
		}
	}
	rows := make([]Row, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, BuildRow(task, maxWidth))
	}
	return rows
}

// EncodeDescription joins a meta line and summary into one string that
// DecodeDescription can split back apart.
func EncodeDescription(meta, summary string) string {
	if summary == "" {
		return meta
	}
	return meta + descSeparator + summary
}

// DecodeDescription splits an encoded row description into its meta line and
// optional summary. The third result reports whether a summary was present.
func DecodeDescription(encoded string) (meta, summary string, hasSummary bool) {
	meta, summary, hasSummary = strings.Cut(encoded, descSeparator)
	return meta, summary, hasSummary
}
