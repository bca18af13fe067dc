package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/proposalkb/proposalkb/internal/search"
)

// SearchResourcesInput defines the input schema for search_internal_resources.
type SearchResourcesInput struct {
	Query          string  `json:"query" jsonschema:"Natural language search query"`
	ResourceType   string  `json:"resource_type,omitempty" jsonschema:"Filter by type (staff, tool, asset, facility, license)"`
	MaxResults     int     `json:"max_results,omitempty" jsonschema:"Maximum number of results (default 10)"`
	MatchThreshold float64 `json:"match_threshold,omitempty" jsonschema:"Minimum similarity threshold 0.0-1.0 (default 0.7)"`
}

// SearchExperienceInput defines the input schema for search_experience.
type SearchExperienceInput struct {
	Query          string  `json:"query" jsonschema:"Natural language search query"`
	EntityType     string  `json:"entity_type,omitempty" jsonschema:"Filter by entity type (internal_resource, external_resource, policy)"`
	MaxResults     int     `json:"max_results,omitempty" jsonschema:"Maximum number of results (default 20)"`
	MatchThreshold float64 `json:"match_threshold,omitempty" jsonschema:"Minimum similarity threshold 0.0-1.0 (default 0.6)"`
}

func (s *Server) registerSearchTools() error {
	resourceSchema, err := jsonschema.For[SearchResourcesInput](nil)
	if err != nil {
		return fmt.Errorf("schema for search_internal_resources: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "search_internal_resources",
		Description: "Search internal company resources (staff, tools, assets, facilities, " +
			"licenses) using hybrid semantic + keyword search.",
		InputSchema: resourceSchema,
	}, s.SearchInternalResources)

	experienceSchema, err := jsonschema.For[SearchExperienceInput](nil)
	if err != nil {
		return fmt.Errorf("schema for search_experience: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "search_experience",
		Description: "Search the institutional knowledge base for validated learnings " +
			"relevant to the query.",
		InputSchema: experienceSchema,
	}, s.SearchExperience)

	return nil
}

// SearchInternalResources handles the search_internal_resources MCP tool call.
func (s *Server) SearchInternalResources(ctx context.Context, _ *mcp.CallToolRequest, in SearchResourcesInput) (*mcp.CallToolResult, any, error) {
	resources, err := s.cfg.Searcher.Resources(ctx, search.ResourceQuery{
		Query:          in.Query,
		ResourceType:   in.ResourceType,
		MaxResults:     in.MaxResults,
		MatchThreshold: in.MatchThreshold,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("search_internal_resources failed: %w", err)
	}

	result, err := jsonResult(resources)
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}

// SearchExperience handles the search_experience MCP tool call.
func (s *Server) SearchExperience(ctx context.Context, _ *mcp.CallToolRequest, in SearchExperienceInput) (*mcp.CallToolResult, any, error) {
	matches, err := s.cfg.Searcher.Experience(ctx, search.ExperienceQuery{
		Query:          in.Query,
		EntityType:     in.EntityType,
		MaxResults:     in.MaxResults,
		MatchThreshold: in.MatchThreshold,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("search_experience failed: %w", err)
	}

	result, err := jsonResult(matches)
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}
