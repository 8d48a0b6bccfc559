package output

import (
	"fmt"
	"strings"

	"github.com/panbanda/harnessprobe/pkg/models"
)

// ForFile wraps one file's result. Structured formats print the result
// object itself.
func ForFile(res models.FileResult) Renderable {
	return fileReport(res, res)
}

// ForRun wraps a multi-file result.
func ForRun(run *models.RunResult) Renderable {
	g := &Group{Data: run}
	for _, res := range run.Files {
		g.Reports = append(g.Reports, fileReport(res, res))
	}
	if len(run.Failed) > 0 {
		rows := make([][]string, len(run.Failed))
		for i, f := range run.Failed {
			rows[i] = []string{f.File, f.Error}
		}
		g.Reports = append(g.Reports, &Report{
			Title:    "Failed",
			Sections: []Renderable{NewTable("", []string{"File", "Error"}, rows, nil, nil)},
		})
	}
	return g
}

func fileReport(res models.FileResult, data any) *Report {
	r := &Report{Title: res.File, Data: data}
	if res.FunctionsResult != nil {
		r.Sections = append(r.Sections, functionsTable(res.FunctionsResult))
	}
	if res.VariablesResult != nil {
		r.Sections = append(r.Sections, variableSections(res.VariablesResult)...)
	}
	return r
}

func functionsTable(fr *models.FunctionsResult) *Table {
	rows := make([][]string, 0, len(fr.Functions))
	for _, fn := range fr.Functions {
		params := make([]string, len(fn.Parameters))
		for i, p := range fn.Parameters {
			params[i] = p.Type + " " + p.Title
		}
		var selectors []string
		for _, s := range fn.EnumSelectors {
			selectors = append(selectors, s.Var+"="+strings.Join(s.Enum, "|"))
		}
		var candidates []string
		for _, c := range fn.CandidateArguments {
			candidates = append(candidates, c.Var+"="+strings.Join(c.Names, "|"))
		}
		rows = append(rows, []string{
			fn.Name,
			fn.ReturnType,
			strings.Join(params, ", "),
			fn.Category,
			fn.StartPos.String() + "-" + fn.EndPos.String(),
			strings.Join(selectors, "; "),
			strings.Join(candidates, "; "),
		})
	}
	footer := []string{fmt.Sprintf("%d functions", len(rows)), "", "", "", "", "", ""}
	return NewTable("Functions",
		[]string{"Name", "Returns", "Parameters", "Type", "Span", "Enum values", "Argument variables"},
		rows, footer, fr)
}

func variableSections(vr *models.VariablesResult) []Renderable {
	rows := make([][]string, 0, len(vr.Variables))
	for _, v := range vr.Variables {
		rows = append(rows, []string{v.Name, v.Type, v.Pos.String()})
	}
	vars := NewTable("Input variables", []string{"Name", "Type", "Position"}, rows, nil, vr.Variables)

	m := vr.Markers
	harness := &Section{
		Title: "Harness",
		Lines: [][]string{
			{"ready", yesNo(vr.Ready)},
			{"TestOptions", yesNo(m.HasTestOptions)},
			{"FunctionManager", yesNo(m.HasFunctionManager)},
			{"DataManager", yesNo(m.HasDataManager)},
			{"TestFunctions", yesNo(m.HasTestFunctions)},
			{"literals", strings.Join(vr.DiscoveredLiterals, ", ")},
		},
		Data: vr.Markers,
	}

	dataRows := make([][]string, 0, len(vr.DiscoveredData))
	for _, d := range vr.DiscoveredData {
		dataRows = append(dataRows, []string{d.Type, d.Filename})
	}
	data := NewTable("Data files", []string{"Wrapper", "File"}, dataRows, nil, vr.DiscoveredData)

	return []Renderable{vars, harness, data}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
