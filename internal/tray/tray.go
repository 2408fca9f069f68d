// Package tray provides a system tray menu for pausing arm commands while tracking keeps running.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/handarm/internal/gesture"
)

const (
	titlePublishing = "● Publishing"
	titlePaused     = "○ Paused"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle  func(publishing bool)
	onMonitor func()
	onQuit    func()
	enabled   bool
	status    string
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuStatus *systray.MenuItem
}

// New creates a new Tray with the given initial publishing state.
func New(publishing bool) *Tray {
	return &Tray{
		enabled: publishing,
		status:  StatusText(nil),
	}
}

// OnToggle sets the callback function to be called when publishing is toggled.
func (t *Tray) OnToggle(fn func(publishing bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnMonitor sets the callback function to be called when the monitor menu item is clicked.
func (t *Tray) OnMonitor(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMonitor = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu, e.g. when tracking stops.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("handarm")
	systray.SetTooltip("Hand tracking arm controller")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume arm commands")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(t.status, "Latest hand metrics")
	t.menuStatus.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuMonitor := systray.AddMenuItem("Open Monitor...", "Open the live monitor in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit handarm")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuMonitor.ClickedCh:
				t.handleMonitor()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func toggleTitle(publishing bool) string {
	if publishing {
		return titlePublishing
	}
	return titlePaused
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleMonitor handles the monitor menu item click.
func (t *Tray) handleMonitor() {
	t.mu.RLock()
	callback := t.onMonitor
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetPublishing updates the toggle without firing the callback,
// for changes made elsewhere (such as the HTTP monitor).
func (t *Tray) SetPublishing(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = on
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(on))
	}
}

// SetMetrics updates the status line. A nil m shows that no hand is in view.
// The menu is only touched when the text changes.
func (t *Tray) SetMetrics(m *gesture.Metrics) {
	text := StatusText(m)

	t.mu.Lock()
	defer t.mu.Unlock()
	if text == t.status {
		return
	}
	t.status = text
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(text)
	}
}

// Status returns the current status line.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// StatusText formats the status line for m.
func StatusText(m *gesture.Metrics) string {
	if m == nil {
		return "No hand"
	}
	return fmt.Sprintf("Openness: %d%% (%s)", m.OpennessPercent, m.OpennessState)
}

// IsEnabled returns whether publishing is on.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
