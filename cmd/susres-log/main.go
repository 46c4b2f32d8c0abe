// Command susres-log is a tool for viewing and analyzing suspend/resume
// trace files.
//
// Trace files are created by running susres-sim with the -trace flag, or by
// wiring a file trace logger into the service.
//
// Usage:
//
//	susres-log <command> [flags] <file.strace>
//
// Commands:
//
//	view     View trace file in human-readable format
//	export   Export trace file to JSONL
//	stats    Show statistics about the trace file
//
// Examples:
//
//	# View all events
//	susres-log view session.strace
//
//	# View only state transitions
//	susres-log view -category state session.strace
//
//	# View one suspend session
//	susres-log view -session 4f2c1a session.strace
//
//	# Export to JSONL
//	susres-log export -o session.jsonl session.strace
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/haven-os/susres-go/pkg/log"
)

const usage = `susres-log - Suspend/Resume Trace Analyzer

Usage:
  susres-log <command> [flags] <file.strace>

Commands:
  view     View trace file in human-readable format
  export   Export trace file to JSONL
  stats    Show statistics about the trace file

Use "susres-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `susres-log view - View trace file in human-readable format

Usage:
  susres-log view [flags] <file.strace>

Flags:
`)
		fs.PrintDefaults()
	}

	session := fs.String("session", "", "Filter by session ID (prefix match)")
	category := fs.String("category", "", "Filter by category (message, state, marker, error)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requireFile(fs)

	filter, err := buildFilter(*category)
	if err != nil {
		fatal(err)
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		fatal(err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			fatal(err)
		}
		// Prefix matching is handled here: the reader filter is exact.
		if *session != "" && !strings.HasPrefix(event.SessionID, *session) {
			continue
		}
		fmt.Println(formatEvent(event))
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `susres-log export - Export trace file to JSONL

Usage:
  susres-log export [flags] <file.strace>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requireFile(fs)

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fatal(err)
		}
		defer f.Close()
		out = f
	}

	reader, err := log.NewReader(path)
	if err != nil {
		fatal(err)
	}
	defer reader.Close()

	enc := json.NewEncoder(out)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			fatal(err)
		}
		if err := enc.Encode(event); err != nil {
			fatal(err)
		}
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `susres-log stats - Show statistics about the trace file

Usage:
  susres-log stats <file.strace>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requireFile(fs)

	reader, err := log.NewReader(path)
	if err != nil {
		fatal(err)
	}
	defer reader.Close()

	total := 0
	byCategory := make(map[string]int)
	byOpcode := make(map[string]int)
	sessions := make(map[string]struct{})

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fatal(err)
		}
		total++
		byCategory[event.Category.String()]++
		if event.Message != nil {
			byOpcode[event.Message.Opcode.String()]++
		}
		if event.SessionID != "" {
			sessions[event.SessionID] = struct{}{}
		}
	}

	fmt.Printf("Events:   %d\n", total)
	fmt.Printf("Sessions: %d\n", len(sessions))

	fmt.Println("\nBy category:")
	printCounts(byCategory)

	if len(byOpcode) > 0 {
		fmt.Println("\nBy opcode:")
		printCounts(byOpcode)
	}
}

func printCounts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-20s %d\n", k, counts[k])
	}
}

// formatEvent renders one event as a single line.
func formatEvent(e log.Event) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s [%-7s]", e.Timestamp.Format("15:04:05.000000"), e.Category.String())
	if e.HWTime != 0 {
		fmt.Fprintf(&b, " hw=%dms", e.HWTime)
	}
	if e.SessionID != "" {
		fmt.Fprintf(&b, " session=%.8s", e.SessionID)
	}

	switch {
	case e.Message != nil:
		fmt.Fprintf(&b, " %s", e.Message.Opcode.String())
		if e.Message.Token != nil {
			fmt.Fprintf(&b, " token=%d", *e.Message.Token)
		}
		if e.Message.Order != nil {
			fmt.Fprintf(&b, " order=%s", e.Message.Order.String())
		}
		if e.Message.Status != nil {
			fmt.Fprintf(&b, " status=%s", e.Message.Status.String())
		}
	case e.StateChange != nil:
		fmt.Fprintf(&b, " %s -> %s", e.StateChange.OldState, e.StateChange.NewState)
		if e.StateChange.Reason != "" {
			fmt.Fprintf(&b, " (%s)", e.StateChange.Reason)
		}
		if e.StateChange.Tranche != nil {
			fmt.Fprintf(&b, " tranche=%s", e.StateChange.Tranche.String())
		}
	case e.Marker != nil:
		fmt.Fprintf(&b, " verdict=%s pid=%d", e.Marker.Verdict, e.Marker.ResumePID)
		if e.Marker.Forced {
			b.WriteString(" forced")
		}
	case e.Error != nil:
		fmt.Fprintf(&b, " %s", e.Error.Message)
		if e.Error.Context != "" {
			fmt.Fprintf(&b, " (%s)", e.Error.Context)
		}
	}

	return b.String()
}

func buildFilter(category string) (log.Filter, error) {
	var filter log.Filter
	if category == "" {
		return filter, nil
	}

	var c log.Category
	switch strings.ToLower(category) {
	case "message":
		c = log.CategoryMessage
	case "state":
		c = log.CategoryState
	case "marker":
		c = log.CategoryMarker
	case "error":
		c = log.CategoryError
	default:
		return filter, fmt.Errorf("unknown category: %s", category)
	}
	filter.Category = &c
	return filter, nil
}

func requireFile(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
