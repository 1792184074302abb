package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/calvinalkan/vmem/pkg/fs"
	"github.com/calvinalkan/vmem/pkg/vmem"
)

// REPL is the interactive command loop.
type REPL struct {
	mem    *vmem.Memory
	path   string
	fs     fs.FS
	logger *zap.Logger
	liner  *liner.State
}

// historyFile returns the path to the history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".vmy_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := r.fs.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("vmy - vmem CLI (page_size=%d, data_capacity=%d)\n", r.mem.PageSize(), r.mem.DataCapacity())
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("vmy> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")

			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "write", "w", "set":
			r.cmdWrite(args)

		case "read", "r", "get":
			r.cmdRead(args)

		case "rm", "del", "delete":
			r.cmdRemove(args)

		case "fill":
			r.cmdFill(args)

		case "stats":
			r.cmdStats()

		case "pages":
			r.cmdPages()

		case "flush":
			r.cmdFlush()

		case "export":
			r.cmdExport(args)

		case "info":
			r.cmdInfo()

		case "clear", "cls":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

// saveHistory persists command history to disk.
func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := r.fs.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

// completer provides tab completion for commands.
func (r *REPL) completer(line string) []string {
	commands := []string{
		"write", "read", "rm", "del", "delete",
		"fill", "stats", "pages", "flush",
		"export", "info", "clear", "cls",
		"help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  write <offset> <byte>          Store a byte at a logical offset")
	fmt.Println("  read <offset>                  Read the byte at a logical offset")
	fmt.Println("  rm <offset>                    Remove the byte at a logical offset")
	fmt.Println("  fill <offset> <count> [byte]   Write count bytes starting at offset")
	fmt.Println("  stats                          Show page fault/eviction/flush counters")
	fmt.Println("  pages                          List resident pages")
	fmt.Println("  flush                          Write all dirty pages to disk")
	fmt.Println("  export <path>                  Atomically write a snapshot of the swap file")
	fmt.Println("  info                           Show memory configuration")
	fmt.Println("  help                           Show this help")
	fmt.Println("  exit / quit / q                Exit")
	fmt.Println()
	fmt.Println("Offsets are decimal. Bytes are decimal (0-255) or hex with 0x prefix.")
}

// parseOffset parses a non-negative decimal offset.
func parseOffset(s string) (int, error) {
	offset, err := strconv.Atoi(s)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid offset %q", s)
	}

	return offset, nil
}

// parseByte parses a byte value, decimal or 0x-prefixed hex.
func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), base(s), 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q (want 0-255 or 0x00-0xff)", s)
	}

	return byte(v), nil
}

func base(s string) int {
	if strings.HasPrefix(s, "0x") {
		return 16
	}

	return 10
}

func (r *REPL) cmdWrite(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: write <offset> <byte>")

		return
	}

	offset, err := parseOffset(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	value, err := parseByte(args[1])
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if err := r.mem.Write(offset, value); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("OK: [%d] = %d (0x%02x)\n", offset, value, value)
}

func (r *REPL) cmdRead(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: read <offset>")

		return
	}

	offset, err := parseOffset(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	value, found, err := r.mem.Read(offset)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if !found {
		fmt.Println("(not set)")

		return
	}

	fmt.Printf("[%d] = %d (0x%02x)\n", offset, value, value)
}

func (r *REPL) cmdRemove(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: rm <offset>")

		return
	}

	offset, err := parseOffset(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	prev, found, err := r.mem.Remove(offset)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if found {
		fmt.Printf("OK: removed [%d] (was %d)\n", offset, prev)
	} else {
		fmt.Printf("OK: [%d] was not set\n", offset)
	}
}

func (r *REPL) cmdFill(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: fill <offset> <count> [byte]")

		return
	}

	offset, err := parseOffset(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	count, err := strconv.Atoi(args[1])
	if err != nil || count < 1 {
		fmt.Println("Error: count must be a positive integer")

		return
	}

	var value byte

	if len(args) >= 3 {
		value, err = parseByte(args[2])
		if err != nil {
			fmt.Printf("Error: %v\n", err)

			return
		}
	}

	for i := range count {
		if err := r.mem.Write(offset+i, value); err != nil {
			fmt.Printf("Error at offset %d: %v\n", offset+i, err)

			return
		}
	}

	fmt.Printf("OK: filled [%d, %d) with %d\n", offset, offset+count, value)
}

func (r *REPL) cmdStats() {
	stats := r.mem.Stats()

	fmt.Printf("Page faults: %d\n", stats.PageFaults)
	fmt.Printf("Evictions:   %d\n", stats.Evictions)
	fmt.Printf("Flushes:     %d\n", stats.Flushes)
}

func (r *REPL) cmdPages() {
	pages := r.mem.Pages()
	if len(pages) == 0 {
		fmt.Println("(no resident pages)")

		return
	}

	fmt.Println("Resident pages (most recently accessed first):")

	for _, p := range pages {
		dirty := " "
		if p.Dirty {
			dirty = "*"
		}

		fmt.Printf("  %s page %-6d last access %s\n", dirty, p.Index, p.LastAccess.Format("15:04:05.000"))
	}

	fmt.Println("(* = dirty)")
}

func (r *REPL) cmdFlush() {
	if err := r.mem.Flush(); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Println("OK: all dirty pages flushed")
}

// cmdExport flushes the memory and writes a point-in-time copy of the swap
// file to the given path. The copy is written atomically so a crash cannot
// leave a partial snapshot behind.
func (r *REPL) cmdExport(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: export <path>")

		return
	}

	dest := args[0]

	if err := r.mem.Flush(); err != nil {
		fmt.Printf("Error flushing before export: %v\n", err)

		return
	}

	data, err := r.fs.ReadFile(r.path)
	if err != nil {
		fmt.Printf("Error reading swap file: %v\n", err)

		return
	}

	if err := atomic.WriteFile(dest, bytes.NewReader(data)); err != nil {
		fmt.Printf("Error writing snapshot: %v\n", err)

		return
	}

	r.logger.Info("exported snapshot", zap.String("dest", dest), zap.Int("bytes", len(data)))
	fmt.Printf("OK: wrote %d bytes to %s\n", len(data), dest)
}

func (r *REPL) cmdInfo() {
	fmt.Printf("Memory Info:\n")
	fmt.Printf("  Swap file:      %s\n", r.path)
	fmt.Printf("  Page size:      %d bytes\n", r.mem.PageSize())
	fmt.Printf("  Data capacity:  %d bytes/page\n", r.mem.DataCapacity())
	fmt.Printf("  Max offset:     %d\n", r.mem.MaxOffset())
	fmt.Printf("  Resident pages: %d\n", len(r.mem.Pages()))
}
