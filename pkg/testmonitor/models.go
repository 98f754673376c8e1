package testmonitor

import (
	"fmt"
	"strings"
	"time"
)

// StepField identifies a retrievable field of a Step. A query projection
// is a whitelist of these; an empty projection retrieves all fields.
type StepField string

const (
	FieldName               StepField = "NAME"
	FieldStepType           StepField = "STEP_TYPE"
	FieldStepID             StepField = "STEP_ID"
	FieldParentID           StepField = "PARENT_ID"
	FieldResultID           StepField = "RESULT_ID"
	FieldPath               StepField = "PATH"
	FieldPathIDs            StepField = "PATH_IDS"
	FieldStatus             StepField = "STATUS"
	FieldTotalTimeInSeconds StepField = "TOTAL_TIME_IN_SECONDS"
	FieldStartedAt          StepField = "STARTED_AT"
	FieldUpdatedAt          StepField = "UPDATED_AT"
	FieldInputs             StepField = "INPUTS"
	FieldOutputs            StepField = "OUTPUTS"
	FieldDataModel          StepField = "DATA_MODEL"
	FieldData               StepField = "DATA"
	FieldHasChildren        StepField = "HAS_CHILDREN"
	FieldWorkspace          StepField = "WORKSPACE"
	FieldKeywords           StepField = "KEYWORDS"
	FieldProperties         StepField = "PROPERTIES"
)

// stepFields is the set of valid projection fields.
var stepFields = map[StepField]struct{}{
	FieldName:               {},
	FieldStepType:           {},
	FieldStepID:             {},
	FieldParentID:           {},
	FieldResultID:           {},
	FieldPath:               {},
	FieldPathIDs:            {},
	FieldStatus:             {},
	FieldTotalTimeInSeconds: {},
	FieldStartedAt:          {},
	FieldUpdatedAt:          {},
	FieldInputs:             {},
	FieldOutputs:            {},
	FieldDataModel:          {},
	FieldData:               {},
	FieldHasChildren:        {},
	FieldWorkspace:          {},
	FieldKeywords:           {},
	FieldProperties:         {},
}

// ParseStepField converts a user-supplied field name into a known
// StepField, accepting any casing.
func ParseStepField(s string) (StepField, error) {
	f := StepField(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := stepFields[f]; !ok {
		return "", fmt.Errorf("unknown step field %q", s)
	}

	return f, nil
}

// StepOrderBy identifies the field a step query is ordered by.
type StepOrderBy string

const (
	OrderByName      StepOrderBy = "NAME"
	OrderByStartedAt StepOrderBy = "STARTED_AT"
	OrderByUpdatedAt StepOrderBy = "UPDATED_AT"
	OrderByDataModel StepOrderBy = "DATA_MODEL"
)

// Status describes the outcome of a step.
type Status struct {
	StatusType string `json:"statusType,omitempty"`
	StatusName string `json:"statusName,omitempty"`
}

// NamedValue is a single named input or output value on a step. Names are
// unique per step on the server side; duplicates are resolved during
// normalization with last-occurrence-wins semantics.
type NamedValue struct {
	Name  string `json:"name,omitempty"`
	Value any    `json:"value"`
}

// StepParameter is one measurement parameter row in a step's data section.
type StepParameter map[string]string

// StepData holds the measured data attached to a step.
type StepData struct {
	Text       string          `json:"text,omitempty"`
	Parameters []StepParameter `json:"parameters,omitempty"`
}

// Step is a single unit of test execution returned by the query API.
// Pointer and omitempty fields preserve the server's sparse responses:
// a field the server did not populate stays absent rather than becoming
// a zero value in downstream representations.
type Step struct {
	Name               string            `json:"name,omitempty"`
	StepType           string            `json:"stepType,omitempty"`
	StepID             string            `json:"stepId,omitempty"`
	ParentID           string            `json:"parentId,omitempty"`
	ResultID           string            `json:"resultId,omitempty"`
	Path               string            `json:"path,omitempty"`
	PathIDs            []string          `json:"pathIds,omitempty"`
	Status             *Status           `json:"status,omitempty"`
	TotalTimeInSeconds *float64          `json:"totalTimeInSeconds,omitempty"`
	StartedAt          *time.Time        `json:"startedAt,omitempty"`
	UpdatedAt          *time.Time        `json:"updatedAt,omitempty"`
	Inputs             []NamedValue      `json:"inputs,omitempty"`
	Outputs            []NamedValue      `json:"outputs,omitempty"`
	DataModel          string            `json:"dataModel,omitempty"`
	Data               *StepData         `json:"data,omitempty"`
	HasChildren        *bool             `json:"hasChildren,omitempty"`
	Workspace          string            `json:"workspace,omitempty"`
	Keywords           []string          `json:"keywords,omitempty"`
	Properties         map[string]string `json:"properties,omitempty"`
}

// QueryStepsRequest is the request body for the query-steps operation.
type QueryStepsRequest struct {
	Filter            string      `json:"filter,omitempty"`
	ResultFilter      string      `json:"resultFilter,omitempty"`
	OrderBy           StepOrderBy `json:"orderBy,omitempty"`
	Descending        bool        `json:"descending,omitempty"`
	Projection        []StepField `json:"projection,omitempty"`
	Take              int         `json:"take,omitempty"`
	ContinuationToken string      `json:"continuationToken,omitempty"`
	ReturnCount       bool        `json:"returnCount,omitempty"`
}

// QueryStepsResponse is one page of matched steps. A non-empty
// ContinuationToken signals that more pages remain.
type QueryStepsResponse struct {
	Steps             []Step `json:"steps"`
	ContinuationToken string `json:"continuationToken,omitempty"`
	TotalCount        *int   `json:"totalCount,omitempty"`
}
