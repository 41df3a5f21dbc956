// Package cli implements the interactive command-line interface for
// zkgate: live terminal status and the management commands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/zkgate-project/zkgate/internal/config"
	"github.com/zkgate-project/zkgate/internal/events"
	"github.com/zkgate-project/zkgate/internal/gateway"
	"github.com/zkgate-project/zkgate/internal/store"
)

// CLI provides an interactive command-line interface.
type CLI struct {
	cfg      *config.Config
	eventBus *events.EventBus
	manager  *gateway.Manager
	db       *store.Database
}

// NewCLI creates a new CLI handler.
func NewCLI(cfg *config.Config, eventBus *events.EventBus, manager *gateway.Manager, db *store.Database) *CLI {
	return &CLI{
		cfg:      cfg,
		eventBus: eventBus,
		manager:  manager,
		db:       db,
	}
}

// Start begins the interactive CLI loop.
func (c *CLI) Start(ctx context.Context) {
	fmt.Println("\nzkgate CLI ready. Type 'help' for available commands.")
	fmt.Println("─────────────────────────────────────────────────────")

	reader := bufio.NewReader(os.Stdin)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Print("zkgate> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return
			}
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		if err := c.execute(ctx, cmd, args); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

// execute processes a single CLI command.
func (c *CLI) execute(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help", "h", "?":
		c.printHelp()
	case "status", "s":
		c.printStatus(args)
	case "enable":
		return c.cmdControl(ctx, args, "enable", c.manager.Enable)
	case "disable":
		return c.cmdControl(ctx, args, "disable", c.manager.Disable)
	case "restart":
		return c.cmdControl(ctx, args, "restart", c.manager.Restart)
	case "voice":
		return c.cmdControl(ctx, args, "voice", c.manager.TestVoice)
	case "poll":
		return c.cmdControl(ctx, args, "poll", c.manager.Poll)
	case "events":
		return c.printEvents()
	case "quit", "exit", "q":
		fmt.Println("Shutting down zkgate...")
		c.eventBus.Emit(ctx, events.Event{
			Type:   events.EventShutdown,
			Source: "cli",
		})
	default:
		fmt.Printf("Unknown command: '%s'. Type 'help' for available commands.\n", cmd)
	}
	return nil
}

// printHelp displays available commands.
func (c *CLI) printHelp() {
	fmt.Println("\n╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      zkgate CLI Commands                     ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Println("║  status [name]      Show status of all or one terminal      ║")
	fmt.Println("║  enable <name>      Return a terminal to normal operation   ║")
	fmt.Println("║  disable <name>     Lock a terminal                         ║")
	fmt.Println("║  restart <name>     Reboot a terminal                       ║")
	fmt.Println("║  voice <name>       Play the terminal test sound            ║")
	fmt.Println("║  poll <name>        Force an immediate status poll          ║")
	fmt.Println("║  events             Show recent device events               ║")
	fmt.Println("║  quit               Shutdown zkgate                         ║")
	fmt.Println("║  help               Show this help message                  ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()
}

// printStatus displays terminal status in a formatted table.
func (c *CLI) printStatus(args []string) {
	if len(args) > 0 {
		info, err := c.manager.DeviceInfo(args[0])
		if err != nil {
			fmt.Printf("Device not found: %s\n", args[0])
			return
		}
		c.printDeviceDetail(info)
		return
	}

	devices := c.manager.AllDevices()
	fmt.Println()

	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Name", "Address", "Transport", "State", "Session", "Firmware", "Last Seen"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, d := range devices {
		state := "DISCONNECTED"
		session := "-"
		if d.Connected {
			state = "CONNECTED"
			if d.Authenticated {
				state = "AUTHENTICATED"
			}
			session = fmt.Sprintf("%d", d.SessionID)
		}

		lastSeen := "-"
		if d.LastSeen != nil {
			lastSeen = d.LastSeen.Format("15:04:05")
		}

		tw.Append([]string{
			d.Name,
			d.Address,
			d.Transport,
			state,
			session,
			d.Firmware,
			lastSeen,
		})
	}

	tw.Render()
	fmt.Println()
}

// printDeviceDetail prints detailed info for a single terminal.
func (c *CLI) printDeviceDetail(d gateway.DeviceInfo) {
	fmt.Printf("\n  Name:          %s\n", d.Name)
	fmt.Printf("  Address:       %s\n", d.Address)
	fmt.Printf("  Transport:     %s\n", d.Transport)
	fmt.Printf("  Connected:     %v\n", d.Connected)
	fmt.Printf("  Authenticated: %v\n", d.Authenticated)
	if d.Connected {
		fmt.Printf("  Session ID:    %d\n", d.SessionID)
	}
	if d.Firmware != "" {
		fmt.Printf("  Firmware:      %s\n", d.Firmware)
	}
	if d.LastSeen != nil {
		fmt.Printf("  Last Seen:     %s\n", d.LastSeen.Format(time.RFC3339))
	}
	if d.LastError != "" {
		fmt.Printf("  Last Error:    %s\n", d.LastError)
	}
	fmt.Println()
}

// printEvents shows the most recent device events.
func (c *CLI) printEvents() error {
	rows, err := c.db.RecentEvents(20)
	if err != nil {
		return err
	}

	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Time", "Device", "Event", "Detail"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, r := range rows {
		tw.Append([]string{
			r.CreatedAt.Format("15:04:05"),
			r.Device,
			r.Event,
			r.Detail,
		})
	}

	tw.Render()
	fmt.Println()
	return nil
}

func (c *CLI) cmdControl(ctx context.Context, args []string, op string, fn func(context.Context, string) error) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <name>", op)
	}
	name := args[0]

	if err := fn(ctx, name); err != nil {
		return err
	}
	fmt.Printf("%s: %s ok\n", name, op)
	return nil
}
