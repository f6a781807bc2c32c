package observability

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
)

var startTime = time.Now()

const (
	colorReset    = "\033[0m"
	colorPurple   = "\033[35m"
	colorNeonCyan = "\033[96m"
	colorNeonMag  = "\033[95m"
)

var radarFrames = []string{"◜", "◝", "◞", "◟"}
var radarIdx = 0

// termMu synchronizes ALL terminal output so that the cursor
// save/restore in PrintLiveStatus can never be interrupted by a log write.
var termMu sync.Mutex

// ------------------------------------------------------------
// Utility
// ------------------------------------------------------------

// IsTerminal reports whether stderr, where logs go, is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

// ------------------------------------------------------------
// TermWriter – a mutex-guarded io.Writer for log output.
// ------------------------------------------------------------

type termWriter struct{}

func (tw termWriter) Write(p []byte) (n int, err error) {
	termMu.Lock()
	defer termMu.Unlock()
	return os.Stderr.Write(p)
}

// NewTermWriter returns an io.Writer suitable for log.SetOutput().
// It serialises writes with PrintLiveStatus via termMu.
func NewTermWriter() io.Writer {
	return termWriter{}
}

// ConfigureLogging sets up logrus: text with full timestamps on a terminal,
// JSON lines otherwise.
func ConfigureLogging(verbose bool) {
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	if IsTerminal() {
		log.SetOutput(NewTermWriter())
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
		return
	}
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.JSONFormatter{})
}

// ------------------------------------------------------------
// Banner
// ------------------------------------------------------------

func PrintBanner() {
	fmt.Print("\033[2J\033[H")

	banner := `
 __  __    _    ___ _   _ _____ ____   ___ _____
|  \/  |  / \  |_ _| \ | |_   _| __ ) / _ \_   _|
| |\/| | / _ \  | ||  \| | | | |  _ \| | | || |
| |  | |/ ___ \ | || |\  | | | | |_) | |_| || |
|_|  |_/_/   \_\___|_| \_| |_| |____/ \___/ |_|

        >> EQUIPMENT MAINTENANCE LOG <<
`

	width := termWidth()
	for _, l := range strings.Split(banner, "\n") {
		padding := max((width-len(l))/2, 0)
		fmt.Printf("%s%s%s\n", strings.Repeat(" ", padding), colorNeonCyan+l, colorReset)
	}
}

func InitializeTerminal() {
	// Header/Logo area: 1-9
	// Dashboard/Status: 10
	// Gap: 11
	// Scrolling Logs: 12+
	fmt.Print("\033[12;r")  // Set scrolling region from line 12 to the bottom
	fmt.Print("\033[12;1H") // Move cursor to the start of the scrolling region
}

func CleanupTerminal() {
	fmt.Print("\033[r\033[2J\033[H")
}

// ------------------------------------------------------------
// Live Status
// ------------------------------------------------------------

func PrintLiveStatus() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	memMB := float64(m.Alloc) / 1024 / 1024

	s := GetSnapshot()

	pulseIcon, pulseText, pulseColor := "🔴", "OFFLINE", colorNeonMag
	switch delta := time.Since(s.LastHeartbeat); {
	case delta < 40*time.Second:
		pulseIcon, pulseText, pulseColor = "🟢", "HEALTHY", colorNeonCyan
	case delta < 90*time.Second:
		pulseIcon, pulseText, pulseColor = "🟡", "LAGGING", colorPurple
	}

	icon, roleColor := "💤", colorReset
	switch s.Role {
	case RoleUpdating:
		icon, roleColor = "📝", colorNeonCyan
	case RoleNotifying:
		icon, roleColor = "🔔", colorNeonMag
	}

	radar := " "
	if s.Role != RoleIdle {
		radar = radarFrames[radarIdx]
		radarIdx = (radarIdx + 1) % len(radarFrames)
	}

	task := s.ActiveTask
	if task == "" {
		task = "Waiting..."
	}
	if r := []rune(task); len(r) > 25 {
		task = string(r[:22]) + "..."
	}

	// Build the status string BEFORE locking, to minimise lock hold time.
	statusStr := fmt.Sprintf(
		"\033[s\033[10;1H\033[K%s[%s] %s%s %-8s%s | %s%s %-9s%s [%s] %s%s%s [%s] ✓%d ✗%d [%.1fMB]\033[u",
		colorReset,
		s.LastHeartbeat.Format("15:04:05"),
		pulseColor, pulseIcon, pulseText, colorReset,
		roleColor, icon, s.Role, colorReset,
		task,
		colorPurple, radar, colorReset,
		s.Uptime,
		s.Succeeded, s.Failed,
		memMB,
	)

	termMu.Lock()
	fmt.Print(statusStr)
	termMu.Unlock()
}
