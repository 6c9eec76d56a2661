package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/condfmt/pkg/cell"
	"github.com/macropower/condfmt/pkg/engine"
	"github.com/macropower/condfmt/pkg/report"
	"github.com/macropower/condfmt/pkg/version"
)

// Session is the state the tools operate on. It is implemented by
// [github.com/macropower/condfmt/pkg/session.Session].
type Session interface {
	Evaluate(ranges []cell.Range, all bool) ([]report.Cell, int, error)
	Explain(a cell.Address) (report.Explanation, error)
	Rules() []report.Rule
	Stats() engine.Stats
	Bounds() (cell.Range, bool)
	ReloadValues() ([]cell.Address, error)
	ReloadRules() error
}

// Server implements the MCP server for condfmt.
type Server struct {
	session Session
	server  *mcp.Server
	tracer  trace.Tracer
	address string
}

// NewServer creates a new MCP server instance. An empty address serves over
// stdio.
func NewServer(address string, session Session) *Server {
	impl := &mcp.Implementation{
		Name:    name,
		Title:   title,
		Version: version.GetVersion(),
	}

	s := &Server{
		address: address,
		session: session,
		server:  mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions}),
		tracer:  otel.Tracer("mcp-server"),
	}

	s.registerTools()

	return s
}

// registerTools registers all available tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_rules",
		Description: "List the registered conditional formatting rules in priority order, with engine cache statistics.",
	}, WithTracing(s.tracer, s.handleListRules))

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "evaluate_range",
		Description: "Evaluate every cell of a range in A1 notation and return the cells matched by at least one rule. " +
			"Omit the range to evaluate the whole used area of the sheet.",
	}, WithTracing(s.tracer, s.handleEvaluateRange))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "explain_cell",
		Description: "Explain the formatting of a single cell: its value, every rule covering it, and the rules that matched.",
	}, WithTracing(s.tracer, s.handleExplainCell))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reload",
		Description: "Re-read the workbook, and optionally the rule set, from disk. Only changed cells are re-evaluated.",
	}, WithTracing(s.tracer, s.handleReload))
}

// Server returns the underlying MCP server.
func (s *Server) Server() *mcp.Server {
	return s.server
}

// Serve starts the MCP server.
func (s *Server) Serve(ctx context.Context) error {
	slog.InfoContext(ctx, "starting MCP server", slog.String("address", s.address))

	if s.address == "" {
		err := s.serveStdio(ctx)
		if err != nil {
			return fmt.Errorf("serve Stdio: %w", err)
		}

		return nil
	}

	err := s.serveHTTP(ctx)
	if err != nil {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}

func (s *Server) serveHTTP(ctx context.Context) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	server := &http.Server{
		Addr:    s.address,
		Handler: handler,

		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			slog.Error("shut down MCP server", slog.Any("error", err))
		}
	}()

	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

func (s *Server) serveStdio(ctx context.Context) error {
	t := &mcp.LoggingTransport{Transport: &mcp.StdioTransport{}, Writer: os.Stderr}

	err := s.server.Run(ctx, t)
	if err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

func textContent(text string) []mcp.Content {
	return []mcp.Content{&mcp.TextContent{Text: text}}
}
