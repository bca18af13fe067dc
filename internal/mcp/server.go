// Package mcp exposes the proposal knowledge base as MCP tools. Handlers are
// thin: parse the input, call the component, render the result inline.
package mcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/proposalkb/proposalkb/internal/experience"
	"github.com/proposalkb/proposalkb/internal/log"
	"github.com/proposalkb/proposalkb/internal/notify"
	"github.com/proposalkb/proposalkb/internal/proposal"
	"github.com/proposalkb/proposalkb/internal/search"
	"github.com/proposalkb/proposalkb/internal/store"
	"github.com/proposalkb/proposalkb/internal/validation"
)

const serverInstructions = "Proposal knowledge base: hybrid search over internal resources " +
	"and validated institutional experience, RFP parsing, proposal generation with " +
	"resource validation fan-out, and validation response processing. Record learned " +
	"facts with record_experience; they reach search results only after human review."

// Searcher runs the two hybrid searches.
type Searcher interface {
	Resources(ctx context.Context, q search.ResourceQuery) ([]store.InternalResource, error)
	Experience(ctx context.Context, q search.ExperienceQuery) ([]store.ExperienceMatch, error)
}

// Recorder records learned facts.
type Recorder interface {
	Record(ctx context.Context, in experience.Input) (uuid.UUID, error)
}

// Parser ingests RFP documents.
type Parser interface {
	ParseRFP(ctx context.Context, in proposal.ParseInput) (*proposal.ParseResult, error)
}

// Generator drafts proposals.
type Generator interface {
	Generate(ctx context.Context, rfpID uuid.UUID, progress proposal.ProgressFunc) (string, error)
}

// TeamsDeliverer sends validation requests over Teams.
type TeamsDeliverer interface {
	Send(ctx context.Context, req notify.TeamsRequest, progress notify.ProgressFunc) (string, error)
}

// EmailDeliverer sends validation requests over email.
type EmailDeliverer interface {
	Send(ctx context.Context, req notify.EmailRequest, progress notify.ProgressFunc) (string, error)
}

// Processor applies human validation responses.
type Processor interface {
	Process(ctx context.Context, in validation.Input) (*validation.Result, error)
}

// Lister reads the review and validation queue views.
type Lister interface {
	ListPendingReviews(ctx context.Context, limit int) ([]store.PendingReview, error)
	ListActiveValidations(ctx context.Context, limit int) ([]store.ActiveValidation, error)
}

// Config holds MCP server configuration and the components behind the tools.
type Config struct {
	Name    string
	Version string

	Searcher  Searcher
	Recorder  Recorder
	Parser    Parser
	Generator Generator
	Teams     TeamsDeliverer
	Email     EmailDeliverer
	Processor Processor
	Lister    Lister

	Logger log.Logger
}

// Server wraps the MCP SDK server and the knowledge-base components.
type Server struct {
	mcpServer *mcp.Server
	cfg       Config
	logger    log.Logger
}

// NewServer creates the server and registers every tool.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	for name, dep := range map[string]any{
		"searcher":  cfg.Searcher,
		"recorder":  cfg.Recorder,
		"parser":    cfg.Parser,
		"generator": cfg.Generator,
		"teams":     cfg.Teams,
		"email":     cfg.Email,
		"processor": cfg.Processor,
		"lister":    cfg.Lister,
	} {
		if dep == nil {
			return nil, fmt.Errorf("%s is required", name)
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &mcp.ServerOptions{
		Instructions: serverInstructions,
	})

	s := &Server{mcpServer: mcpServer, cfg: cfg, logger: cfg.Logger}
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	return s, nil
}

// MCPServer exposes the underlying SDK server, used by the HTTP transport.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

// Run serves MCP on the given transport. Blocks until the context is
// canceled or the transport closes.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("mcp server running", "name", s.cfg.Name, "version", s.cfg.Version)
	return s.mcpServer.Run(ctx, transport)
}

func (s *Server) registerTools() error {
	steps := []func() error{
		s.registerSearchTools,
		s.registerExperienceTools,
		s.registerProposalTools,
		s.registerValidationTools,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
