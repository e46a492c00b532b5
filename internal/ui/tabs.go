// Package ui renders kiosk frames: a header, the active tab's content and
// page indicators. Tab bodies other than the action tabs are supplied by
// external Content implementations.
package ui

import (
	"image"
	"time"

	"github.com/fogleman/gg"

	"tagtapper/internal/model"
)

// TabID identifies a tab. Tabs are indexed by this enum rather than looked
// up by name.
type TabID int

const (
	TabIPs TabID = iota
	TabPings
	TabWiFi
	TabReboot
	TabShutdown
)

// Tab is a registry entry.
type Tab struct {
	ID     TabID
	Label  string
	Action model.ActionKind
}

// Destructive reports whether the tab arms a long-press action.
func (t Tab) Destructive() bool { return t.Action.Destructive() }

// Content draws a tab body into area.
type Content interface {
	Draw(dc *gg.Context, area image.Rectangle, now time.Time)
}

// ContentFunc adapts a function to Content.
type ContentFunc func(dc *gg.Context, area image.Rectangle, now time.Time)

func (f ContentFunc) Draw(dc *gg.Context, area image.Rectangle, now time.Time) {
	f(dc, area, now)
}

// Registry is the ordered tab list plus registered content.
type Registry struct {
	tabs    []Tab
	content map[TabID]Content
}

// DefaultRegistry returns the kiosk tabs in display order.
func DefaultRegistry() *Registry {
	return NewRegistry([]Tab{
		{ID: TabIPs, Label: "IPs"},
		{ID: TabPings, Label: "Pings"},
		{ID: TabWiFi, Label: "WiFi"},
		{ID: TabReboot, Label: "Reboot", Action: model.ActionReboot},
		{ID: TabShutdown, Label: "Shutdown", Action: model.ActionShutdown},
	})
}

// NewRegistry builds a registry over tabs.
func NewRegistry(tabs []Tab) *Registry {
	return &Registry{tabs: tabs, content: map[TabID]Content{}}
}

// Len is the number of tabs.
func (r *Registry) Len() int { return len(r.tabs) }

// Tab returns the tab at index i, clamped to the valid range.
func (r *Registry) Tab(i int) Tab {
	return r.tabs[r.Clamp(i)]
}

// Clamp limits i to [0, Len()-1].
func (r *Registry) Clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(r.tabs) {
		return len(r.tabs) - 1
	}
	return i
}

// Register installs the body renderer for a tab.
func (r *Registry) Register(id TabID, c Content) {
	r.content[id] = c
}

// Content returns the registered body for id, or nil.
func (r *Registry) Content(id TabID) Content {
	return r.content[id]
}
