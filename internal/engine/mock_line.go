package engine

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedLine is a test implementation of VendorLine. It replays a fixed
// sequence of vendor turns and records everything the agent says.
type ScriptedLine struct {
	sayErr   error
	onListen func()
	said     []string
	turns    []VendorTurn
	next     int
	hungUp   bool
	mu       sync.Mutex
}

// NewScriptedLine creates a line that will answer with the given turns in order.
func NewScriptedLine(turns ...VendorTurn) *ScriptedLine {
	return &ScriptedLine{turns: turns}
}

// FailSay makes every subsequent Say call return err.
func (l *ScriptedLine) FailSay(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sayErr = err
}

// Say records the agent's line.
func (l *ScriptedLine) Say(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sayErr != nil {
		return l.sayErr
	}
	l.said = append(l.said, text)
	return nil
}

// Listen returns the next scripted vendor turn. Running past the script
// reports a hangup, which keeps a misbehaving loop from spinning forever.
func (l *ScriptedLine) Listen(ctx context.Context) (VendorTurn, error) {
	if l.onListen != nil {
		l.onListen()
	}
	if err := ctx.Err(); err != nil {
		return VendorTurn{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.next >= len(l.turns) {
		return VendorTurn{HungUp: true}, nil
	}
	turn := l.turns[l.next]
	l.next++
	return turn, nil
}

// Hangup marks the line as closed.
func (l *ScriptedLine) Hangup() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hungUp = true
	return nil
}

// Said returns a copy of everything the agent spoke on this line.
func (l *ScriptedLine) Said() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	said := make([]string, len(l.said))
	copy(said, l.said)
	return said
}

// HungUp reports whether the line was closed.
func (l *ScriptedLine) HungUp() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hungUp
}

// MockDialer is a test implementation of LineDialer backed by a map of
// contact address to scripted line.
type MockDialer struct {
	lines       map[string]*ScriptedLine
	unreachable map[string]bool
	mu          sync.Mutex
}

// NewMockDialer creates an empty mock dialer.
func NewMockDialer() *MockDialer {
	return &MockDialer{
		lines:       make(map[string]*ScriptedLine),
		unreachable: make(map[string]bool),
	}
}

// AddLine registers the scripted line answering for a contact.
func (d *MockDialer) AddLine(contact string, line *ScriptedLine) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines[contact] = line
}

// MarkUnreachable makes Dial fail for a contact.
func (d *MockDialer) MarkUnreachable(contact string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unreachable[contact] = true
}

// Dial returns the scripted line for the contact.
func (d *MockDialer) Dial(ctx context.Context, contact string) (VendorLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.unreachable[contact] {
		return nil, fmt.Errorf("no answer from %s", contact)
	}
	line, ok := d.lines[contact]
	if !ok {
		return nil, fmt.Errorf("no line registered for %s", contact)
	}
	return line, nil
}
