package mcpserver

import (
	"encoding/json"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	repositoryURL  = "https://github.com/panbanda/harnessprobe"
	imageName      = "ghcr.io/panbanda/harnessprobe"
)

// Manifest is the MCP registry server.json document.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository points at the source repository.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package is one way to launch the server.
type Package struct {
	RegistryType     string     `json:"registryType"`
	Identifier       string     `json:"identifier"`
	RuntimeHint      string     `json:"runtimeHint,omitempty"`
	PackageArguments []Argument `json:"packageArguments,omitempty"`
	Transport        Transport  `json:"transport"`
}

// Argument is a command-line argument passed to the package.
type Argument struct {
	Type        string `json:"type"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// Transport names how the client talks to the server.
type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest renders server.json for version. The container mounts
// the sources to analyze at /src.
func GenerateManifest(version string) ([]byte, error) {
	if version == "" {
		version = "0.0.0"
	}

	return json.MarshalIndent(Manifest{
		Schema:      manifestSchema,
		Name:        "io.github.panbanda/harnessprobe",
		Description: "C and C++ fact extraction for test-harness generation: function shapes, enum selectors, stdin reads, driver readiness",
		Version:     version,
		Repository:  &Repository{URL: repositoryURL, Source: "github"},
		Packages: []Package{{
			RegistryType: "oci",
			Identifier:   imageName + ":" + version,
			RuntimeHint:  "docker",
			PackageArguments: []Argument{
				{Type: "positional", Value: "mcp"},
				{Type: "named", Value: "--log-level=error", Description: "Keep stderr quiet while serving over stdio"},
			},
			Transport: Transport{Type: "stdio"},
		}},
	}, "", "  ")
}
