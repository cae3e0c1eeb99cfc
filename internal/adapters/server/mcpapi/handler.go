// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/tavla/internal/adapters/server/common"
	"github.com/hylla/tavla/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the board tools.
func NewHandler(cfg Config, board common.BoardService) (*Handler, error) {
	if board == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerBoardTools(mcpSrv, board)
	registerMoveTools(mcpSrv, board)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "tavla"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerBoardTools registers the read and create tools.
func registerBoardTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tavla.get_board",
			mcp.WithDescription("Return every column in display order with its ordered tasks."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			view, err := board.GetBoard(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode get_board result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavla.create_task",
			mcp.WithDescription("Append a new task to the end of one column."),
			mcp.WithString("column_id", mcp.Required(), mcp.Description("Column identifier")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			columnID, err := req.RequireString("column_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := board.CreateTask(ctx, common.CreateTaskRequest{ColumnID: columnID, Title: title})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(task)
			if err != nil {
				return nil, fmt.Errorf("encode create_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavla.list_task_moves",
			mcp.WithDescription("List recorded cross-column moves for one task, newest first."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithNumber("limit", mcp.Description("Maximum rows to return")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			moves, err := board.ListTaskMoves(ctx, taskID, req.GetInt("limit", 0))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"moves": moves,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_task_moves result: %w", err)
			}
			return result, nil
		},
	)
}

// registerMoveTools registers the positional and id-addressed move tools.
func registerMoveTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tavla.drag_end",
			mcp.WithDescription("Apply one drag-completion event. Droppable ids are column positions, or \"board\" for column drags. Omit the destination to cancel."),
			mcp.WithString("type", mcp.Required(), mcp.Description("What was dragged"), mcp.Enum(string(domain.DragKindColumn), string(domain.DragKindTask))),
			mcp.WithString("draggable_id", mcp.Description("Id of the dragged column or task")),
			mcp.WithString("source_droppable_id", mcp.Required(), mcp.Description("Source container id")),
			mcp.WithNumber("source_index", mcp.Required(), mcp.Description("Index within the source container")),
			mcp.WithString("destination_droppable_id", mcp.Description("Destination container id")),
			mcp.WithNumber("destination_index", mcp.Description("Index within the destination container")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			kind, err := req.RequireString("type")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			sourceID, err := req.RequireString("source_droppable_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			sourceIndex, err := req.RequireInt("source_index")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			ev := domain.DragEvent{
				Kind:        domain.DragKind(kind),
				DraggableID: req.GetString("draggable_id", ""),
				Source:      domain.DragPosition{DroppableID: sourceID, Index: sourceIndex},
			}
			if destID := strings.TrimSpace(req.GetString("destination_droppable_id", "")); destID != "" {
				ev.Destination = &domain.DragPosition{
					DroppableID: destID,
					Index:       req.GetInt("destination_index", 0),
				}
			}
			return dragResult(board.DragEnd(ctx, ev))
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavla.move_column",
			mcp.WithDescription("Move one column, addressed by id, to a new position."),
			mcp.WithString("column_id", mcp.Required(), mcp.Description("Column identifier")),
			mcp.WithNumber("to_index", mcp.Required(), mcp.Description("Destination position")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			columnID, err := req.RequireString("column_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			toIndex, err := req.RequireInt("to_index")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return dragResult(board.MoveColumn(ctx, common.MoveColumnRequest{ColumnID: columnID, ToIndex: toIndex}))
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavla.move_task",
			mcp.WithDescription("Move one task, addressed by id, into a column at a position."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("to_column_id", mcp.Required(), mcp.Description("Destination column identifier")),
			mcp.WithNumber("to_index", mcp.Required(), mcp.Description("Destination position")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			columnID, err := req.RequireString("to_column_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			toIndex, err := req.RequireInt("to_index")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return dragResult(board.MoveTask(ctx, common.MoveTaskRequest{TaskID: taskID, ToColumnID: columnID, ToIndex: toIndex}))
		},
	)
}

// dragResult encodes one move outcome as a tool result.
func dragResult(res common.DragResult, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return toolResultFromError(err), nil
	}
	result, err := mcp.NewToolResultJSON(res)
	if err != nil {
		return nil, fmt.Errorf("encode drag result: %w", err)
	}
	return result, nil
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrUnavailable):
		return mcp.NewToolResultError("service_unavailable: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
