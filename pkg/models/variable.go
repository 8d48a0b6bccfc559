package models

// VariableRecord is one input site: a variable read from standard input.
type VariableRecord struct {
	Name string   `json:"name" yaml:"name"`
	Type string   `json:"type" yaml:"type"`
	Pos  Position `json:"pos" yaml:"pos"`
}

// DiscoveredData pairs a literal with the data-wrapper class it was passed to.
type DiscoveredData struct {
	Type     string `json:"type" yaml:"type"`
	Filename string `json:"filename" yaml:"filename"`
}

// HarnessReadiness records which harness collaborators the entry function
// declares and whether the test runner is invoked on them.
type HarnessReadiness struct {
	HasTestOptions     bool `json:"hasTestOptions" yaml:"hasTestOptions"`
	HasFunctionManager bool `json:"hasFunctionManager" yaml:"hasFunctionManager"`
	HasDataManager     bool `json:"hasDataManager" yaml:"hasDataManager"`
	HasTestFunctions   bool `json:"hasTestFunctions" yaml:"hasTestFunctions"`
	Ready              bool `json:"ready" yaml:"ready"`
}

// AllMarkers reports whether every collaborator declaration was seen.
func (h HarnessReadiness) AllMarkers() bool {
	return h.HasTestOptions && h.HasFunctionManager && h.HasDataManager && h.HasTestFunctions
}

// VariablesResult is the output of the vars mode.
type VariablesResult struct {
	Variables          []VariableRecord `json:"variables" yaml:"variables"`
	Ready              bool             `json:"ready" yaml:"ready"`
	DiscoveredLiterals []string         `json:"discoveredLiterals" yaml:"discoveredLiterals"`
	DiscoveredData     []DiscoveredData `json:"discoveredData" yaml:"discoveredData"`
	Markers            HarnessReadiness `json:"markers" yaml:"markers"`
}

// NewVariablesResult returns a result with empty, non-nil collections.
func NewVariablesResult() *VariablesResult {
	return &VariablesResult{
		Variables:          []VariableRecord{},
		DiscoveredLiterals: []string{},
		DiscoveredData:     []DiscoveredData{},
	}
}
