package mcp

import (
	"context"
	"fmt"

	"autotundra/internal/costs"
	"autotundra/internal/storage"
)

// BuiltinServerName is the server name always-enabled built-in tools are
// registered under, mirroring the teacher's BUILTIN_SERVER_NAME constant.
const BuiltinServerName = "auto-tundra"

// RegisterBuiltins registers the always-available tools that read straight
// off this daemon's own state — the Go-native equivalent of the teacher's
// file/bash/search tool tree, scoped to what a planning/estimation agent
// actually needs from this domain rather than a general-purpose sandbox.
func RegisterBuiltins(reg *Registry, store *storage.Facade, tracker *costs.Tracker) {
	reg.RegisterTools(BuiltinServerName, []Tool{
		{
			Name:        "list_beads",
			Description: "List every backlog bead and its current status.",
			Annotations: ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				if store == nil {
					return nil, fmt.Errorf("storage not configured")
				}
				return store.ListBeads(), nil
			},
		},
		{
			Name:        "list_tasks",
			Description: "List every task currently tracked, including terminal ones.",
			Annotations: ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				if store == nil {
					return nil, fmt.Errorf("storage not configured")
				}
				return store.ListTasks(), nil
			},
		},
		{
			Name:        "get_task",
			Description: "Fetch one task by id.",
			Parameters: map[string]*ParameterDefinition{
				"id": {Type: StringType, Description: "Task ID", Required: true},
			},
			Annotations: ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				if store == nil {
					return nil, fmt.Errorf("storage not configured")
				}
				id, _ := args["id"].(string)
				task, ok := store.GetTask(id)
				if !ok {
					return nil, fmt.Errorf("task not found: %s", id)
				}
				return task, nil
			},
		},
		{
			Name:        "get_kpi",
			Description: "Fetch the current latency/efficiency/throughput/scalability snapshot.",
			Annotations: ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				if tracker == nil {
					return nil, fmt.Errorf("cost tracker not configured")
				}
				return tracker.ComputeLetsMetrics(0), nil
			},
		},
	})
}
