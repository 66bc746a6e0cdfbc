// Package notify delivers transient user notifications (toasts).
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Level of a notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notifier shows a transient message to the user
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	infoColor    = color.New(color.FgCyan)
)

// Console prints notifications to a terminal
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console notifier; a nil writer means color.Output
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = color.Output
	}
	return &Console{out: out}
}

func (c *Console) Success(msg string) {
	c.print(successColor, "✓ "+msg)
}

func (c *Console) Error(msg string) {
	c.print(errorColor, "✗ "+msg)
}

func (c *Console) Info(msg string) {
	c.print(infoColor, msg)
}

func (c *Console) print(col *color.Color, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	col.Fprintln(c.out, msg)
}

// Nop discards notifications
type Nop struct{}

func (Nop) Success(string) {}
func (Nop) Error(string)   {}
func (Nop) Info(string)    {}

// Message is a recorded notification
type Message struct {
	Level Level
	Text  string
}

func (m Message) String() string {
	return fmt.Sprintf("%s: %s", m.Level, m.Text)
}

// Recorder keeps every notification in memory
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }
func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: msg})
}

// Messages returns a copy of everything recorded so far
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Texts returns the recorded texts at the given level
func (r *Recorder) Texts(level Level) []string {
	var out []string
	for _, m := range r.Messages() {
		if m.Level == level {
			out = append(out, m.Text)
		}
	}
	return out
}

// Reset drops every recorded message
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
