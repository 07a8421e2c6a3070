// Package interactive implements the prompt loop used when dpscan is
// started without a target.
package interactive

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/veyra-labs/dpscan/internal/app/scan"
	"github.com/veyra-labs/dpscan/internal/app/ui"
	"github.com/veyra-labs/dpscan/internal/config"
	msges "github.com/veyra-labs/dpscan/internal/messages"
	"github.com/veyra-labs/dpscan/internal/store"
)

// Run starts the interactive prompt with the given base policy.
func Run(policy config.Policy) {
	ui.PrintGradientAsciiArt()
	fmt.Printf("%s%s%s\n\n", ui.ColorWhite, msges.GetUIMessage("InteractiveWelcome"), ui.ColorReset)

	session := &session{policy: policy}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		session.runRawLoop()
		return
	}
	session.runPlainLoop()
}

type session struct {
	policy  config.Policy
	history []string
}

// runPlainLoop is the fallback for piped input.
func (s *session) runPlainLoop() {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("dpscan> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		if s.processCommand(strings.TrimSpace(scanner.Text())) {
			return
		}
	}
}

// runRawLoop is a minimal line editor with history on arrow keys.
func (s *session) runRawLoop() {
	const prompt = "dpscan> "

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		s.runPlainLoop()
		return
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	var cmdBuffer []rune
	cursorPos := 0
	historyIndex := 0
	readBuf := make([]byte, 16)

Loop:
	for {
		moveBack := len(cmdBuffer) - cursorPos
		fmt.Print("\r\033[K" + prompt + string(cmdBuffer))
		if moveBack > 0 {
			fmt.Printf("\033[%dD", moveBack)
		}

		n, err := os.Stdin.Read(readBuf)
		if err != nil {
			break
		}

		if n >= 3 && readBuf[0] == 27 && readBuf[1] == 91 {
			switch readBuf[2] {
			case 65: // Up Arrow
				if historyIndex > 0 {
					historyIndex--
					cmdBuffer = []rune(s.history[historyIndex])
					cursorPos = len(cmdBuffer)
				}
			case 66: // Down Arrow
				if historyIndex < len(s.history)-1 {
					historyIndex++
					cmdBuffer = []rune(s.history[historyIndex])
					cursorPos = len(cmdBuffer)
				} else {
					historyIndex = len(s.history)
					cmdBuffer = []rune{}
					cursorPos = 0
				}
			case 68: // Left Arrow
				if cursorPos > 0 {
					cursorPos--
				}
			case 67: // Right Arrow
				if cursorPos < len(cmdBuffer) {
					cursorPos++
				}
			}
			continue
		}

		inputRunes := []rune(string(readBuf[:n]))
		for _, char := range inputRunes {
			switch char {
			case 3: // Ctrl+C
				term.Restore(int(os.Stdin.Fd()), oldState)
				fmt.Println()
				return
			case 13, 10: // Enter
				term.Restore(int(os.Stdin.Fd()), oldState)
				fmt.Println()
				input := strings.TrimSpace(string(cmdBuffer))
				if len(input) > 0 {
					s.history = append(s.history, input)
					historyIndex = len(s.history)
				}
				cmdBuffer = []rune{}
				cursorPos = 0

				if s.processCommand(input) {
					return
				}
				oldState, _ = term.MakeRaw(int(os.Stdin.Fd()))
				continue Loop
			case 127, 8: // Backspace
				if cursorPos > 0 {
					cmdBuffer = append(cmdBuffer[:cursorPos-1], cmdBuffer[cursorPos:]...)
					cursorPos--
				}
			default:
				if char >= 32 {
					cmdBuffer = append(cmdBuffer, 0)
					copy(cmdBuffer[cursorPos+1:], cmdBuffer[cursorPos:])
					cmdBuffer[cursorPos] = char
					cursorPos++
				}
			}
		}
	}
}

// processCommand runs one command line. It returns true when the loop
// should exit.
func (s *session) processCommand(input string) bool {
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	command := strings.ToLower(parts[0])
	cmdArgs := parts[1:]

	switch command {
	case "exit", "quit":
		fmt.Printf("%s%s%s\n", ui.ColorGray, msges.GetUIMessage("InteractiveExit"), ui.ColorReset)
		return true
	case "help":
		s.printHelp()
	case "scan":
		s.handleScan(cmdArgs)
	case "batch":
		s.handleBatch(cmdArgs)
	case "recent":
		s.handleRecent(cmdArgs)
	case "config":
		s.printConfig()
	default:
		fmt.Printf("%s%s%s\n", ui.ColorRed, msges.GetUIMessage("InteractiveUnknown", command), ui.ColorReset)
	}
	return false
}

func (s *session) handleScan(args []string) {
	if len(args) == 0 {
		fmt.Printf("%s%s%s\n", ui.ColorRed, msges.GetUIMessage("InteractiveErrorTarget", "scan"), ui.ColorReset)
		return
	}
	policy, target, err := s.parseScanFlags(args)
	if err != nil {
		fmt.Printf("%s%v%s\n", ui.ColorRed, err, ui.ColorReset)
		return
	}

	err = scan.Run(scan.Options{
		Target:       target,
		AllowPrompts: true,
		Policy:       policy,
	})
	if err != nil {
		fmt.Printf("%s%s%s\n", ui.ColorRed, msges.GetUIMessage("InteractiveScanFailed", err), ui.ColorReset)
	}
}

func (s *session) handleBatch(args []string) {
	if len(args) == 0 {
		fmt.Printf("%s%s%s\n", ui.ColorRed, msges.GetUIMessage("InteractiveErrorTarget", "batch"), ui.ColorReset)
		return
	}
	policy, _, err := s.parseScanFlags(args[1:])
	if err != nil {
		fmt.Printf("%s%v%s\n", ui.ColorRed, err, ui.ColorReset)
		return
	}

	err = scan.Run(scan.Options{
		InputPath:    args[0],
		AllowPrompts: true,
		Policy:       policy,
	})
	if err != nil {
		fmt.Printf("%s%s%s\n", ui.ColorRed, msges.GetUIMessage("InteractiveScanFailed", err), ui.ColorReset)
	}
}

// handleRecent lists stored reports from the configured database.
func (s *session) handleRecent(args []string) {
	if s.policy.Database == "" {
		fmt.Printf("%s%s%s\n", ui.ColorRed, msges.GetUIMessage("RecentNoDatabase"), ui.ColorReset)
		return
	}
	limit := 10
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}

	reports, err := recentReports(s.policy.Database, limit)
	if err != nil {
		fmt.Printf("%s%v%s\n", ui.ColorRed, err, ui.ColorReset)
		return
	}
	if len(reports) == 0 {
		fmt.Printf("%s%s%s\n", ui.ColorGray, msges.GetUIMessage("RecentEmpty"), ui.ColorReset)
		return
	}

	for _, r := range reports {
		if r.Failed {
			fmt.Printf(" %s%-6s%s %s  %s\n", ui.ColorRed, "fail", ui.ColorReset,
				r.AnalyzedAt.Format("2006-01-02 15:04"), r.URL)
			continue
		}
		fmt.Printf(" %s%-6.1f%s %s  %s (%d detections)\n",
			ui.SeverityColor(r.Severity), r.Severity, ui.ColorReset,
			r.AnalyzedAt.Format("2006-01-02 15:04"), r.URL, r.Detections)
	}
}

// recentReports opens the report database and lists stored reports,
// newest first.
func recentReports(path string, limit int) ([]store.SavedReport, error) {
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.Recent(limit)
}

// parseScanFlags applies per-command overrides on top of the session
// policy. The first non-flag argument is the target.
func (s *session) parseScanFlags(args []string) (config.Policy, string, error) {
	policy := s.policy
	target := ""

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--visible":
			policy.Fetch.Headless = false
		case "--depth":
			if i+1 < len(args) {
				if d, err := strconv.Atoi(args[i+1]); err == nil {
					policy.Depth = d
					i++
				}
			}
		case "--max-pages":
			if i+1 < len(args) {
				if m, err := strconv.Atoi(args[i+1]); err == nil {
					policy.MaxPages = m
					i++
				}
			}
		case "--min-confidence":
			if i+1 < len(args) {
				if c, err := strconv.ParseFloat(args[i+1], 64); err == nil {
					policy.MinConfidence = c
					i++
				}
			}
		default:
			if strings.HasPrefix(arg, "--") {
				return policy, "", fmt.Errorf("unknown flag: %s", arg)
			}
			if target == "" {
				target = arg
			}
		}
	}

	if err := policy.Validate(); err != nil {
		return policy, "", err
	}
	return policy, target, nil
}

func (s *session) printHelp() {
	fmt.Printf("%s%s%s\n", ui.ColorWhite, msges.GetUIMessage("InteractiveHelp"), ui.ColorReset)
	fmt.Println("  scan <url> [--depth N] [--max-pages N] [--min-confidence C] [--visible]")
	fmt.Println("  batch <file> [--depth N] [--max-pages N] [--min-confidence C]")
	fmt.Println("  recent [n]")
	fmt.Println("  config")
	fmt.Println("  help")
	fmt.Println("  exit")
}

func (s *session) printConfig() {
	p := s.policy
	fmt.Printf(" workers:        %d\n", p.Workers)
	fmt.Printf(" min confidence: %.2f\n", p.MinConfidence)
	fmt.Printf(" output dir:     %s\n", p.OutputDir)
	fmt.Printf(" formats:        %s\n", strings.Join(p.Formats, ", "))
	fmt.Printf(" depth:          %d\n", p.Depth)
	fmt.Printf(" max pages:      %d\n", p.MaxPages)
	fmt.Printf(" headless:       %v\n", p.Fetch.Headless)
	fmt.Printf(" timeout:        %s\n", p.Fetch.Timeout())
	if p.Database != "" {
		fmt.Printf(" database:       %s\n", p.Database)
	}
}
