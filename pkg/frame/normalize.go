package frame

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stepframe/stepframe/pkg/table"
	"github.com/stepframe/stepframe/pkg/testmonitor"
)

// pathSep joins nested field path segments into column names.
const pathSep = "."

// columnGroups lists the grouped column prefixes in their fixed output
// order. Columns matching none of these are general and come first.
var columnGroups = []string{
	strings.ToLower(string(testmonitor.FieldInputs)),
	strings.ToLower(string(testmonitor.FieldOutputs)),
	strings.ToLower(string(testmonitor.FieldData)),
	strings.ToLower(string(testmonitor.FieldProperties)),
}

// MalformedEntryError reports an input or output entry that lacks the
// name needed to restructure it into its own column.
type MalformedEntryError struct {
	// Field is "inputs" or "outputs".
	Field string

	// Index is the position of the malformed entry within the field's
	// collection.
	Index int
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("%s entry %d has no name", e.Field, e.Index)
}

// leaf is one flattened (column path, value) pair of a step.
type leaf struct {
	path  string
	value any
}

// Normalize flattens steps into a table. Rows correspond 1:1 to steps in
// input order; columns are the distinct leaf field paths across all
// steps, joined with "." and reordered into five groups: general fields
// first, then inputs.*, outputs.*, data.* and properties.*. Within each
// group, columns keep first-seen order. Columns that are null for every
// row are dropped. A leaf absent for a given step yields a nil cell,
// never an error.
//
// Normalize is a pure transformation: the same steps always produce the
// same table.
func Normalize(steps []testmonitor.Step) (*table.Table, error) {
	t := table.New()

	for i := range steps {
		leaves, err := stepLeaves(&steps[i])
		if err != nil {
			return nil, fmt.Errorf("normalizing step %d: %w", i, err)
		}

		cells := make([]table.Cell, len(leaves))
		for j, l := range leaves {
			cells[j] = table.Cell{Column: l.path, Value: l.value}
		}

		t.AppendRow(cells)
	}

	t.Reindex(groupColumns(t.Columns()))
	t.DropEmptyColumns()

	return t, nil
}

// stepLeaves flattens a single step into ordered (path, value) pairs.
// Only fields the server populated contribute leaves, preserving the
// sparse-response semantics of the Step model.
func stepLeaves(s *testmonitor.Step) ([]leaf, error) {
	var leaves []leaf

	add := func(path string, value any) {
		leaves = append(leaves, leaf{path: path, value: value})
	}

	if s.Name != "" {
		add("name", s.Name)
	}

	if s.StepType != "" {
		add("step_type", s.StepType)
	}

	if s.StepID != "" {
		add("step_id", s.StepID)
	}

	if s.ParentID != "" {
		add("parent_id", s.ParentID)
	}

	if s.ResultID != "" {
		add("result_id", s.ResultID)
	}

	if s.Path != "" {
		add("path", s.Path)
	}

	if len(s.PathIDs) > 0 {
		add("path_ids", s.PathIDs)
	}

	if s.Status != nil {
		if s.Status.StatusType != "" {
			add("status.status_type", s.Status.StatusType)
		}

		if s.Status.StatusName != "" {
			add("status.status_name", s.Status.StatusName)
		}
	}

	if s.TotalTimeInSeconds != nil {
		add("total_time_in_seconds", *s.TotalTimeInSeconds)
	}

	if s.StartedAt != nil {
		add("started_at", *s.StartedAt)
	}

	if s.UpdatedAt != nil {
		add("updated_at", *s.UpdatedAt)
	}

	inputs, err := restructure("inputs", s.Inputs)
	if err != nil {
		return nil, err
	}

	leaves = append(leaves, inputs...)

	outputs, err := restructure("outputs", s.Outputs)
	if err != nil {
		return nil, err
	}

	leaves = append(leaves, outputs...)

	// data_model is a reference field, not measured data: it stays a
	// general column and must not be grouped under data.*.
	if s.DataModel != "" {
		add("data_model", s.DataModel)
	}

	if s.Data != nil {
		if s.Data.Text != "" {
			add("data.text", s.Data.Text)
		}

		if len(s.Data.Parameters) > 0 {
			add("data.parameters", s.Data.Parameters)
		}
	}

	if s.HasChildren != nil {
		add("has_children", *s.HasChildren)
	}

	if s.Workspace != "" {
		add("workspace", s.Workspace)
	}

	if len(s.Keywords) > 0 {
		add("keywords", s.Keywords)
	}

	if len(s.Properties) > 0 {
		keys := make([]string, 0, len(s.Properties))
		for k := range s.Properties {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			add("properties"+pathSep+k, s.Properties[k])
		}
	}

	return leaves, nil
}

// restructure converts an inputs or outputs collection into per-name
// leaves so that each distinct name becomes its own column instead of
// the whole collection occupying a single cell. Duplicate names keep
// their first position but take the last value. An absent or empty
// collection contributes nothing.
func restructure(
	field string, entries []testmonitor.NamedValue,
) ([]leaf, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(entries))
	leaves := make([]leaf, 0, len(entries))

	for i, e := range entries {
		if e.Name == "" {
			return nil, &MalformedEntryError{Field: field, Index: i}
		}

		if j, ok := index[e.Name]; ok {
			leaves[j].value = e.Value

			continue
		}

		index[e.Name] = len(leaves)
		leaves = append(leaves, leaf{
			path:  field + pathSep + e.Name,
			value: e.Value,
		})
	}

	return leaves, nil
}

// groupColumns reorders column names into the fixed group order: general
// columns first, then one block per grouped prefix. Matching is exact
// dotted-path-prefix matching, so a general column whose name merely
// contains a group token (data_model, say) is never misclassified.
func groupColumns(columns []string) []string {
	grouped := make(map[string][]string, len(columnGroups))

	general := make([]string, 0, len(columns))

	for _, col := range columns {
		group := matchGroup(col)
		if group == "" {
			general = append(general, col)
		} else {
			grouped[group] = append(grouped[group], col)
		}
	}

	ordered := general
	for _, group := range columnGroups {
		ordered = append(ordered, grouped[group]...)
	}

	return ordered
}

// matchGroup returns the group a column belongs to, or "" for general.
func matchGroup(column string) string {
	for _, group := range columnGroups {
		if column == group || strings.HasPrefix(column, group+pathSep) {
			return group
		}
	}

	return ""
}
