package mcp

import "github.com/mark3labs/mcp-go/mcp"

// registerTools registers all MCP tools with the server. Device-facing
// tools share one shape: an action name, a target device and a free-form
// parameters object that the gateway validates against the action's
// schema before anything reaches a device.
func (s *Server) registerTools() {
	// Health check
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Check the health of the gateway and how many devices are currently ready"),
		),
		s.handleGetHealth,
	)

	// List devices
	s.mcpServer.AddTool(
		mcp.NewTool("list_devices",
			mcp.WithDescription("List all registered devices with family, capabilities and connection state"),
		),
		s.handleListDevices,
	)

	// Get device
	s.mcpServer.AddTool(
		mcp.NewTool("get_device",
			mcp.WithDescription("Get detailed information about a specific device by name"),
			mcp.WithString("device",
				mcp.Required(),
				mcp.Description("Device name"),
			),
		),
		s.handleGetDevice,
	)

	// Reconnect device
	s.mcpServer.AddTool(
		mcp.NewTool("reconnect_device",
			mcp.WithDescription("Force a reconnect attempt for a device stuck in the failed state"),
			mcp.WithString("device",
				mcp.Required(),
				mcp.Description("Device name"),
			),
		),
		s.handleReconnectDevice,
	)

	// Camera actions
	s.mcpServer.AddTool(
		s.actionTool("camera_management",
			"Camera operations. Actions: capture_still (take a snapshot), get_stream (get the live stream descriptor)."),
		s.actionHandler("camera_management"),
	)

	// PTZ actions
	s.mcpServer.AddTool(
		s.actionTool("ptz_management",
			"Pan-tilt-zoom camera operations. Actions: move (relative pan/tilt/zoom deltas, clamped to the device's range), get_position, save_preset (name), recall_preset (preset_name or preset_id), go_home, stop."),
		s.actionHandler("ptz_management"),
	)

	// Smart plug actions
	s.mcpServer.AddTool(
		s.actionTool("energy_management",
			"Smart plug operations. Actions: toggle_power (on: boolean), get_current_power (instantaneous consumption reading)."),
		s.actionHandler("energy_management"),
	)

	// Light actions
	s.mcpServer.AddTool(
		s.actionTool("light_control",
			"Light operations. Actions: set_on (on: boolean), set_brightness (brightness: 0-100), set_color (r, g, b: 0-255)."),
		s.actionHandler("light_control"),
	)

	// Sensor actions
	s.mcpServer.AddTool(
		s.actionTool("sensor_reading",
			"Sensor operations. Actions: read (returns the sensor's current measurement)."),
		s.actionHandler("sensor_reading"),
	)
}

// actionTool builds the shared (action, device, parameters) tool shape.
func (s *Server) actionTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Action to perform"),
		),
		mcp.WithString("device",
			mcp.Required(),
			mcp.Description("Target device name"),
		),
		mcp.WithObject("parameters",
			mcp.Description("Action parameters; unknown keys are dropped, missing optional keys take defaults"),
		),
	)
}
