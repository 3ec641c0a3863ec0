package router

import (
	"github.com/prodiplan/essaygrader/internal/screen"

	tea "charm.land/bubbletea/v2"
)

// PushScreenMsg requests the router to push a new screen onto the stack.
type PushScreenMsg struct {
	Screen screen.Screen
}

// PopScreenMsg requests the router to pop the current screen off the stack.
type PopScreenMsg struct{}

// ReplaceScreenMsg swaps the active screen without growing the stack.
type ReplaceScreenMsg struct {
	Screen screen.Screen
}

// ResetScreenMsg drops the whole stack and starts over from Screen.
// Used for auth transitions (login, logout) where "back" must not
// return to the previous identity's screens.
type ResetScreenMsg struct {
	Screen screen.Screen
}

// Router manages a stack of screens.
type Router struct {
	stack []screen.Screen
}

// New creates a new Router with the given initial screen.
func New(initial screen.Screen) *Router {
	return &Router{
		stack: []screen.Screen{initial},
	}
}

// Push adds a screen on top of the stack and calls its Init().
func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

// Pop removes the top screen. No-op if stack depth would become 0.
// A screen implementing screen.Leaver gets a chance to clean up first.
func (r *Router) Pop() tea.Cmd {
	if len(r.stack) <= 1 {
		return nil
	}
	leaving := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return leave(leaving)
}

// Replace swaps the top screen for s and calls its Init().
func (r *Router) Replace(s screen.Screen) tea.Cmd {
	if len(r.stack) == 0 {
		r.stack = []screen.Screen{s}
		return s.Init()
	}
	r.stack[len(r.stack)-1] = s
	return s.Init()
}

// Reset empties the stack, leaving every screen on it, and installs s.
func (r *Router) Reset(s screen.Screen) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(r.stack)+1)
	for i := len(r.stack) - 1; i >= 0; i-- {
		cmds = append(cmds, leave(r.stack[i]))
	}
	r.stack = []screen.Screen{s}
	cmds = append(cmds, s.Init())
	return tea.Batch(cmds...)
}

// Close leaves every screen top-down without changing the stack. Call it
// once before the program quits.
func (r *Router) Close() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(r.stack))
	for i := len(r.stack) - 1; i >= 0; i-- {
		cmds = append(cmds, leave(r.stack[i]))
	}
	return tea.Batch(cmds...)
}

func leave(s screen.Screen) tea.Cmd {
	if l, ok := s.(screen.Leaver); ok {
		return l.Leave()
	}
	return nil
}

// Active returns the top screen on the stack.
func (r *Router) Active() screen.Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

// Depth returns the number of screens on the stack.
func (r *Router) Depth() int {
	return len(r.stack)
}

// Update forwards a message to the active screen and handles navigation messages.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	case ReplaceScreenMsg:
		return r.Replace(msg.Screen)
	case ResetScreenMsg:
		return r.Reset(msg.Screen)
	}

	active := r.Active()
	if active == nil {
		return nil
	}

	updated, cmd := active.Update(msg)
	r.stack[len(r.stack)-1] = updated
	return cmd
}

// Broadcast delivers msg to every screen on the stack, bottom first. Use it
// for state changes that screens below the active one must also see.
func (r *Router) Broadcast(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(r.stack))
	for i, s := range r.stack {
		updated, cmd := s.Update(msg)
		r.stack[i] = updated
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// View renders the active screen.
func (r *Router) View(width, height int) string {
	active := r.Active()
	if active == nil {
		return ""
	}
	return active.View(width, height)
}
