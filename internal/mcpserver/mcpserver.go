package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/harnessprobe/pkg/analyzer"
	"github.com/panbanda/harnessprobe/pkg/config"
)

// Server exposes fact extraction as MCP tools.
type Server struct {
	server    *mcp.Server
	extractor *analyzer.Extractor
	config    *config.Config
}

// NewServer creates an MCP server whose tools extract with extractor. cfg
// supplies the exclusion rules used to resolve tool paths.
func NewServer(version string, extractor *analyzer.Extractor, cfg *config.Config) *Server {
	if version == "" {
		version = "dev"
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "harnessprobe",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, extractor: extractor, config: cfg}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run serves over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_functions",
		Description: describeExtractFunctions(),
	}, s.handleExtractFunctions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_inputs",
		Description: describeExtractInputs(),
	}, s.handleExtractInputs)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sources",
		Description: describeListSources(),
	}, s.handleListSources)
}
