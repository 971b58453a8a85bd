package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/castellan-home/castellan/pkg/device"
	"github.com/castellan-home/castellan/pkg/gateway"
)

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devices := s.registry.List()

	ready := 0
	for _, d := range devices {
		if d.ConnectionState() == device.StateReady {
			ready++
		}
	}

	out := GetHealthOutput{
		Status:    "healthy",
		Devices:   len(devices),
		Ready:     ready,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devices := s.registry.List()

	infos := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		infos = append(infos, DeviceToInfo(d))
	}

	out := ListDevicesOutput{
		Devices: infos,
		Count:   len(infos),
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requiredString(request, "device")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.registry.Resolve(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("device not found: %s", err)), nil
	}

	out := GetDeviceOutput{Device: DeviceToInfo(d)}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleReconnectDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requiredString(request, "device")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.registry.Reconnect(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("device not found: %s", err)), nil
	}

	out := GetDeviceOutput{Device: DeviceToInfo(d)}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

// actionHandler builds the handler for one portmanteau device tool. All
// device tools funnel into the dispatcher; the MCP layer never touches
// parameters beyond pulling out the action and device names.
func (s *Server) actionHandler(tool string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		action, err := requiredString(request, "action")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		deviceName, err := requiredString(request, "device")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		params := map[string]any{}
		if raw, ok := request.GetArguments()["parameters"]; ok {
			if pm, ok := raw.(map[string]any); ok {
				params = pm
			}
		}

		result := s.dispatcher.Dispatch(ctx, gateway.ActionRequest{
			Tool:       tool,
			Action:     action,
			Device:     deviceName,
			Parameters: params,
		})

		if !result.Success {
			return mcp.NewToolResultError(formatJSON(result.Error)), nil
		}
		return mcp.NewToolResultText(formatJSON(result)), nil
	}
}

// --- helpers ---

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}
