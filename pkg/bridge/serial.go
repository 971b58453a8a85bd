// Package bridge implements the serial transport for bridge-attached
// lights. The bridge speaks line-delimited JSON over a USB serial port;
// one bridge multiplexes many lights addressed by id.
package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"

	"github.com/castellan-home/castellan/pkg/integration"
)

const readTimeout = 2 * time.Second

// SerialBridge owns one serial port shared by every light behind it.
// Commands are serialized on the port; the bridge answers each command
// with a single JSON line.
type SerialBridge struct {
	path string

	mu     sync.Mutex
	port   serial.Port
	reader *bufio.Reader
}

// NewSerialBridge creates a bridge for the given port path. The port is
// opened lazily on first use so registration never blocks on hardware.
func NewSerialBridge(path string) *SerialBridge {
	return &SerialBridge{path: path}
}

// Light returns a per-device client addressing one light on this bridge.
func (b *SerialBridge) Light(id string) *BridgeLight {
	return &BridgeLight{bridge: b, id: id}
}

// Close closes the serial port if it was opened.
func (b *SerialBridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.port == nil {
		return nil
	}
	err := b.port.Close()
	b.port = nil
	b.reader = nil
	return err
}

// command sends one JSON command line and waits for the bridge's reply.
// Caller must hold b.mu.
func (b *SerialBridge) command(ctx context.Context, cmd map[string]any) error {
	if err := b.ensurePort(); err != nil {
		return err
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal bridge command: %w", err)
	}
	data = append(data, '\n')

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= 0 {
		return ctx.Err()
	}

	if _, err := b.port.Write(data); err != nil {
		b.reset()
		return fmt.Errorf("write to bridge: %w", err)
	}

	line, err := b.reader.ReadBytes('\n')
	if err != nil {
		b.reset()
		return fmt.Errorf("read bridge reply: %w", err)
	}

	var reply struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(line, &reply); err != nil {
		return fmt.Errorf("decode bridge reply: %w", err)
	}
	if !reply.OK {
		return fmt.Errorf("bridge error: %s", reply.Error)
	}
	return nil
}

// ensurePort opens the serial port at 115200 baud, 8N1. Caller holds b.mu.
func (b *SerialBridge) ensurePort() error {
	if b.port != nil {
		return nil
	}

	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(b.path, mode)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", b.path, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("set read timeout: %w", err)
	}

	log.Info().Str("port", b.path).Msg("Light bridge serial port opened")

	b.port = port
	b.reader = bufio.NewReader(port)
	return nil
}

// reset drops the port so the next command reopens it.
func (b *SerialBridge) reset() {
	if b.port != nil {
		_ = b.port.Close()
	}
	b.port = nil
	b.reader = nil
}

// BridgeLight implements integration.LightClient for one light on the
// bridge. The bridge is local hardware; per-call auth is unused.
type BridgeLight struct {
	bridge *SerialBridge
	id     string
}

func (l *BridgeLight) Ping(ctx context.Context, _ integration.Auth) error {
	l.bridge.mu.Lock()
	defer l.bridge.mu.Unlock()
	return l.bridge.command(ctx, map[string]any{"cmd": "ping", "light": l.id})
}

func (l *BridgeLight) SetOn(ctx context.Context, _ integration.Auth, on bool) error {
	l.bridge.mu.Lock()
	defer l.bridge.mu.Unlock()
	return l.bridge.command(ctx, map[string]any{"cmd": "set_on", "light": l.id, "on": on})
}

func (l *BridgeLight) SetBrightness(ctx context.Context, _ integration.Auth, level int) error {
	l.bridge.mu.Lock()
	defer l.bridge.mu.Unlock()
	return l.bridge.command(ctx, map[string]any{"cmd": "set_brightness", "light": l.id, "level": level})
}

func (l *BridgeLight) SetColor(ctx context.Context, _ integration.Auth, r, g, b uint8) error {
	l.bridge.mu.Lock()
	defer l.bridge.mu.Unlock()
	return l.bridge.command(ctx, map[string]any{"cmd": "set_color", "light": l.id, "r": r, "g": g, "b": b})
}
