// Package mcp exposes the dialogue engine as a Model Context Protocol
// server, so agent hosts can drive conversations as tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/parley-dev/parley"
	"github.com/parley-dev/parley/pkg/domain"
)

// TurnResponse is the structured output of the process_turn tool.
type TurnResponse struct {
	ConversationID string            `json:"conversationId" jsonschema_description:"The conversation this turn belongs to"`
	Action         domain.ActionKind `json:"action" jsonschema_description:"The semantic action the engine chose"`
	Result         json.RawMessage   `json:"result" jsonschema_description:"Action-specific fields"`
}

// Server wraps the parley Engine and exposes it as an MCP Server.
type Server struct {
	engine    *parley.Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine *parley.Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("parley-mcp", parley.Version),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_conversation",
		mcp.WithDescription("Start a new conversation and return its ID."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := s.engine.StartConversation(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("start failed: %v", err)), nil
		}
		return mcp.NewToolResultText(id), nil
	})

	turnTool := mcp.NewTool("process_turn",
		mcp.WithDescription("Send one user utterance to a conversation and get the next semantic action (ask_slot, confirm_normalization, ready_to_execute, ...)."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation ID from start_conversation")),
		mcp.WithString("utterance", mcp.Required(), mcp.Description("The user's message")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(turnTool, mcp.NewStructuredToolHandler(s.handleProcessTurn))

	s.mcpServer.AddTool(mcp.NewTool("get_conversation",
		mcp.WithDescription("Get the full persisted state of a conversation."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation ID")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("conversation_id", "")
		state, err := s.engine.Conversation(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(state)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List the tasks the engine can carry out and their slots."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		type taskInfo struct {
			Name  string   `json:"name"`
			Slots []string `json:"slots"`
		}
		registry := s.engine.Registry()
		names := registry.Tasks()
		infos := make([]taskInfo, 0, len(names))
		for _, name := range names {
			task, err := registry.Task(name)
			if err != nil {
				continue
			}
			infos = append(infos, taskInfo{Name: task.Name, Slots: task.SlotNames()})
		}
		jsonBytes, _ := json.Marshal(infos)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("end_conversation",
		mcp.WithDescription("Terminate a conversation. It stays loadable in its terminated state."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation ID")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("conversation_id", "")
		if err := s.engine.EndConversation(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("end failed: %v", err)), nil
		}
		return mcp.NewToolResultText("terminated"), nil
	})
}

func (s *Server) handleProcessTurn(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TurnResponse, error) {
	id, _ := args["conversation_id"].(string)
	utterance, _ := args["utterance"].(string)
	if id == "" {
		return TurnResponse{}, fmt.Errorf("conversation_id is required")
	}

	result, err := s.engine.ProcessTurn(ctx, id, utterance)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("turn failed: %w", err)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("failed to encode result: %w", err)
	}

	return TurnResponse{
		ConversationID: id,
		Action:         result.Kind(),
		Result:         raw,
	}, nil
}
