package mcp

import (
	"github.com/castellan-home/castellan/pkg/device"
)

// --- Health Tool ---

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status    string `json:"status" jsonschema:"description=Overall health status"`
	Devices   int    `json:"devices" jsonschema:"description=Number of registered devices"`
	Ready     int    `json:"ready" jsonschema:"description=Number of devices in the ready state"`
	Timestamp string `json:"timestamp" jsonschema:"description=ISO8601 timestamp"`
}

// --- List Devices Tool ---

// ListDevicesOutput is the output for the list_devices tool
type ListDevicesOutput struct {
	Devices []DeviceInfo `json:"devices" jsonschema:"description=List of registered devices"`
	Count   int          `json:"count" jsonschema:"description=Total number of devices"`
}

// DeviceInfo represents a device in tool outputs
type DeviceInfo struct {
	Name            string   `json:"name" jsonschema:"description=Stable device name used to address actions"`
	Family          string   `json:"family" jsonschema:"description=Device family (camera/ptz_camera/plug/light/sensor)"`
	ConnectionState string   `json:"connection_state" jsonschema:"description=Current connection state"`
	Capabilities    []string `json:"capabilities" jsonschema:"description=Capability groups the device supports"`
}

// --- Get Device Tool ---

// GetDeviceOutput is the output for the get_device tool
type GetDeviceOutput struct {
	Device DeviceInfo `json:"device" jsonschema:"description=Device information"`
}

// --- Helper conversions ---

// DeviceToInfo converts a device.Device to DeviceInfo
func DeviceToInfo(d *device.Device) DeviceInfo {
	caps := d.Capabilities()
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = string(c)
	}
	return DeviceInfo{
		Name:            d.Name(),
		Family:          string(d.Family()),
		ConnectionState: string(d.ConnectionState()),
		Capabilities:    names,
	}
}
