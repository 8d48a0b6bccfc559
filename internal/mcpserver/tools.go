package mcpserver

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/harnessprobe/internal/output"
	"github.com/panbanda/harnessprobe/internal/scanner"
	"github.com/panbanda/harnessprobe/pkg/models"
)

// ExtractInput is the input of both extraction tools.
type ExtractInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"C or C++ files, directories or glob patterns. Defaults to the current directory."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, yaml, or markdown."`
}

// ListInput selects what list_sources returns.
type ListInput struct {
	Paths   []string `json:"paths,omitempty" jsonschema:"Directories or glob patterns to search. Defaults to the current directory."`
	Headers bool     `json:"headers,omitempty" jsonschema:"Include header files, not only translation units."`
}

// SourceList is the list_sources result.
type SourceList struct {
	Files []string `json:"files" toon:"files"`
}

func getPaths(paths []string) []string {
	if len(paths) == 0 {
		return []string{"."}
	}
	return paths
}

func getFormat(s string) output.Format {
	switch strings.ToLower(s) {
	case "json":
		return output.FormatJSON
	case "yaml", "yml":
		return output.FormatYAML
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case output.FormatJSON:
		err = output.WriteJSON(&buf, data)
	case output.FormatYAML:
		err = output.WriteYAML(&buf, data)
	case output.FormatMarkdown:
		r, ok := data.(output.Renderable)
		if !ok {
			return "", fmt.Errorf("markdown needs a renderable result, got %T", data)
		}
		err = output.NewWriterFormatter(output.FormatMarkdown, &buf, false).Output(r)
	default:
		err = output.WriteTOON(&buf, data)
	}
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) handleExtractFunctions(ctx context.Context, req *mcp.CallToolRequest, input ExtractInput) (*mcp.CallToolResult, any, error) {
	return s.extract(ctx, input, models.ModeFunctions)
}

func (s *Server) handleExtractInputs(ctx context.Context, req *mcp.CallToolRequest, input ExtractInput) (*mcp.CallToolResult, any, error) {
	return s.extract(ctx, input, models.ModeVariables)
}

// extract runs one mode over the requested paths. A single file yields the
// bare per-file document; several yield the files/failed envelope.
func (s *Server) extract(ctx context.Context, input ExtractInput, mode models.Mode) (*mcp.CallToolResult, any, error) {
	if s.extractor == nil {
		return toolError("no extractor configured")
	}
	files, err := scanner.NewScanner(s.config).Expand(getPaths(input.Paths))
	if err != nil {
		return toolError(err.Error())
	}
	if len(files) == 0 {
		return toolError("no C or C++ source files found")
	}

	run, _ := s.extractor.ExtractFiles(ctx, files, mode)
	if len(run.Files) == 0 {
		msgs := make([]string, 0, len(run.Failed))
		for _, f := range run.Failed {
			msgs = append(msgs, f.File+": "+f.Error)
		}
		return toolError(strings.Join(msgs, "; "))
	}

	format := getFormat(input.Format)
	if len(files) == 1 {
		if format == output.FormatMarkdown {
			return toolResult(output.ForFile(run.Files[0]), format)
		}
		return toolResult(run.Files[0], format)
	}
	if format == output.FormatMarkdown {
		return toolResult(output.ForRun(run), format)
	}
	return toolResult(run, format)
}

func (s *Server) handleListSources(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, any, error) {
	scan := scanner.NewScanner(s.config).WithHeaders(input.Headers)
	files, err := scan.Expand(getPaths(input.Paths))
	if err != nil {
		return toolError(err.Error())
	}
	if files == nil {
		files = []string{}
	}
	return toolResult(SourceList{Files: files}, output.FormatTOON)
}
