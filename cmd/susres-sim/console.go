package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/haven-os/susres-go/internal/mockhw"
	"github.com/haven-os/susres-go/pkg/marker"
	"github.com/haven-os/susres-go/pkg/susres"
	"github.com/haven-os/susres-go/pkg/wire"
)

// Console is the interactive readline frontend for the simulator.
type Console struct {
	orch   *susres.Orchestrator
	engine *mockhw.Engine
	logger *slog.Logger
	rl     *readline.Instance

	// Named subscribers created through the console.
	tokens map[string]wire.Token

	// Count of suspend requests still blocked in their goroutines.
	pending int
	results chan bool
}

// NewConsole creates the interactive frontend.
func NewConsole(orch *susres.Orchestrator, engine *mockhw.Engine, logger *slog.Logger) *Console {
	return &Console{
		orch:    orch,
		engine:  engine,
		logger:  logger,
		tokens:  make(map[string]wire.Token),
		results: make(chan bool, 16),
	}
}

// Run starts the command loop. It returns on quit or EOF.
func (c *Console) Run() {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "susres> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		c.logger.Error("failed to create readline", "error", err)
		return
	}
	c.rl = rl
	defer rl.Close()

	c.printHelp()

	for {
		c.drainResults()

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(rl.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "register", "reg":
			c.cmdRegister(args)

		case "request", "req":
			c.cmdRequest()

		case "ready":
			c.cmdReady(args)

		case "now":
			c.cmdNow()

		case "clean":
			c.cmdClean(args)

		case "allow":
			c.orch.SuspendAllow()
			c.println("Suspend requests allowed")

		case "deny":
			c.orch.SuspendDeny()
			c.println("Suspend requests denied")

		case "time":
			c.cmdTime(args)

		case "vector":
			c.cmdVector(args)

		case "reboot":
			c.cmdReboot(args)

		case "marker", "m":
			c.cmdMarker()

		case "status", "s":
			c.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(rl.Stdout(), "Exiting...")
			return

		default:
			c.printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Println(`
Suspend/Resume Simulator Commands:
  Subscribers:
    register <name> [early|normal|last] [auto]
                       - Register a subscriber; 'auto' answers ready itself
    ready <name>       - Send SUSPEND_READY for a subscriber
    clean <name>       - Ask whether the subscriber answered in time

  Suspend cycle:
    request            - Request a suspend cycle (result reported async)
    now                - Block a goroutine across the power transition
    allow / deny       - Gate acceptance of suspend requests

  Hardware:
    time [+ms]         - Show the virtual clock, or advance it
    marker             - Dump the retained marker page
    vector <addr>      - Set the reboot vector (hex or decimal)
    reboot <cpu|soc>   - Arm and confirm a reboot
    status             - Show service and hardware status

  General:
    help               - Show this help
    quit               - Exit simulator`)
}

// cmdRegister handles: register <name> [order] [auto].
func (c *Console) cmdRegister(args []string) {
	if len(args) < 1 {
		c.println("Usage: register <name> [early|normal|last] [auto]")
		return
	}
	name := args[0]
	if _, exists := c.tokens[name]; exists {
		c.printf("Subscriber %q already registered\n", name)
		return
	}

	order := wire.OrderNormal
	auto := false
	for _, arg := range args[1:] {
		switch strings.ToLower(arg) {
		case "early":
			order = wire.OrderEarly
		case "normal":
			order = wire.OrderNormal
		case "last":
			order = wire.OrderLast
		case "auto":
			auto = true
		default:
			c.printf("Unknown argument: %s\n", arg)
			return
		}
	}

	notify := c.notifyFunc(name, auto)
	token, err := c.orch.Register(order, notify)
	if err != nil {
		c.printf("Register failed: %v\n", err)
		return
	}
	c.tokens[name] = token
	c.printf("Registered %q with token %d (%s)\n", name, token, order.String())
}

// notifyFunc builds the suspend callback for a console subscriber. Auto
// subscribers answer ready immediately; manual ones just announce the
// notification and wait for a 'ready' command.
func (c *Console) notifyFunc(name string, auto bool) susres.NotifyFunc {
	return func(token wire.Token) {
		if auto {
			c.orch.SuspendReady(token)
			fmt.Fprintf(c.rl.Stdout(), "[%s] notified, answered ready\n", name)
			return
		}
		fmt.Fprintf(c.rl.Stdout(), "[%s] notified: suspension imminent (use 'ready %s')\n", name, name)
	}
}

// cmdRequest starts a suspend cycle without blocking the console.
func (c *Console) cmdRequest() {
	c.pending++
	go func() {
		c.results <- c.orch.RequestSuspend()
	}()
	c.println("Suspend requested (result will be reported)")
}

func (c *Console) drainResults() {
	for {
		select {
		case ok := <-c.results:
			c.pending--
			if ok {
				c.println("Suspend cycle completed: suspended and resumed")
			} else {
				c.println("Suspend cycle failed: denied or timed out")
			}
		default:
			return
		}
	}
}

func (c *Console) cmdReady(args []string) {
	token, ok := c.lookup(args)
	if !ok {
		return
	}
	c.orch.SuspendReady(token)
	c.println("OK")
}

// cmdNow parks a goroutine in SUSPENDING_NOW and reports when it returns.
func (c *Console) cmdNow() {
	go func() {
		c.orch.SuspendingNow()
		fmt.Fprintln(c.rl.Stdout(), "[now] released: resumed or cycle over")
	}()
	c.println("Blocked a caller across the power transition")
}

func (c *Console) cmdClean(args []string) {
	token, ok := c.lookup(args)
	if !ok {
		return
	}
	if c.orch.WasSuspendClean(token) {
		c.println("clean: answered in time")
	} else {
		c.println("not clean: missed the deadline (or no cycle yet)")
	}
}

// cmdTime shows or advances the virtual clock.
func (c *Console) cmdTime(args []string) {
	if len(args) == 0 {
		c.printf("Virtual clock: %d ms\n", c.engine.ReadTime())
		return
	}
	arg := strings.TrimPrefix(args[0], "+")
	ms, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		c.printf("Invalid duration: %v\n", err)
		return
	}
	c.engine.AdvanceTime(ms)
	c.printf("Advanced clock by %d ms\n", ms)
}

func (c *Console) cmdVector(args []string) {
	if len(args) < 1 {
		c.println("Usage: vector <addr>")
		return
	}
	addr, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		c.printf("Invalid address: %v\n", err)
		return
	}
	c.orch.SetRebootVector(uint32(addr))
	c.printf("Reboot vector set to 0x%08X\n", uint32(addr))
}

// cmdReboot arms and confirms a reboot in one step.
func (c *Console) cmdReboot(args []string) {
	if len(args) < 1 {
		c.println("Usage: reboot <cpu|soc>")
		return
	}

	var opcode wire.Opcode
	switch strings.ToLower(args[0]) {
	case "cpu":
		opcode = wire.OpRebootCpuConfirm
	case "soc":
		opcode = wire.OpRebootSocConfirm
	default:
		c.printf("Unknown reboot kind: %s\n", args[0])
		return
	}

	c.orch.RebootRequest()
	result := c.orch.Submit(wire.Message{Opcode: opcode})
	c.printf("Reboot confirm: %s\n", result.Status.String())
	if reboots := c.engine.Reboots(); len(reboots) > 0 {
		last := reboots[len(reboots)-1]
		c.printf("Hardware rebooted: kind=%s vector=0x%08X\n", last.Kind.String(), last.Addr)
	}
}

// cmdMarker dumps the retained marker page.
func (c *Console) cmdMarker() {
	page := c.engine.RetainedPage()
	if page.IsZero() {
		c.println("Marker page: all zero (no resume pending)")
		return
	}

	c.println("Marker page: non-zero")
	for s := 0; s < marker.SectorCount; s++ {
		base := s * marker.SectorWords
		c.printf("  sector %d: %08X %08X %08X %08X ... %08X\n",
			s, page[base], page[base+1], page[base+2], page[base+3],
			page[base+marker.SectorWords-1])
	}
}

// cmdStatus shows service and hardware counters.
func (c *Console) cmdStatus() {
	c.println("\nSimulator Status")
	c.println("-------------------------------------------")
	c.printf("  Virtual clock:    %d ms\n", c.engine.ReadTime())
	c.printf("  Subscribers:      %d\n", len(c.tokens))
	for name, token := range c.tokens {
		c.printf("    %-12s token %d\n", name, token)
	}
	c.printf("  Pending requests: %d\n", c.pending)
	c.printf("  Suspend calls:    %d\n", len(c.engine.SuspendCalls()))
	c.printf("  Reboots:          %d\n", len(c.engine.Reboots()))

	report := c.engine.LastReport()
	c.printf("  Last wake:        %s (pid %d)\n", report.Verdict.String(), report.ResumePID)
	c.println("")
}

func (c *Console) lookup(args []string) (wire.Token, bool) {
	if len(args) < 1 {
		c.println("Usage: <command> <name>")
		return 0, false
	}
	token, ok := c.tokens[args[0]]
	if !ok {
		c.printf("Unknown subscriber: %s\n", args[0])
		return 0, false
	}
	return token, ok
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.rl.Stdout(), s)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.rl.Stdout(), format, args...)
}
