package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const chatWelcome = "Welcome to tern. Send a message to start chatting, or type / for commands."

// ChatComponent is the scrolling transcript view. Blocks are stored
// already rendered; plain text added via AddMessage is word-wrapped on
// insert and on resize.
type ChatComponent struct {
	Viewport     viewport.Model
	blocks       []chatBlock
	Width        int
	Height       int
	Style        lipgloss.Style
	AutoScroll   bool
	UserScrolled bool
}

type chatBlock struct {
	text     string
	rendered bool // pre-styled ANSI, never rewrapped
}

// NewChatComponent creates a new chat component
func NewChatComponent(width, height int) ChatComponent {
	vp := viewport.New(width-2, height-2) // account for borders
	vp.SetContent(chatWelcome)

	return ChatComponent{
		Viewport:   vp,
		blocks:     []chatBlock{{text: chatWelcome}},
		Width:      width,
		Height:     height,
		AutoScroll: true,
		Style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#F4DB53")).
			Width(width).
			Height(height),
	}
}

// SetWidth updates the width of the chat component
func (c *ChatComponent) SetWidth(width int) {
	c.Width = width
	c.Style = c.Style.Width(width)
	c.Viewport.Width = width - 2
	c.UpdateContent()
}

// SetHeight updates the height of the chat component
func (c *ChatComponent) SetHeight(height int) {
	c.Height = height
	c.Style = c.Style.Height(height)
	c.Viewport.Height = height
	c.UpdateContent()
}

// AddMessage appends a plain text block that gets word-wrapped to fit.
func (c *ChatComponent) AddMessage(message string) {
	c.blocks = append(c.blocks, chatBlock{text: message})
	c.UpdateContent()
	c.AutoScroll = true
	c.UserScrolled = false
}

// AddRendered appends an already styled block verbatim.
func (c *ChatComponent) AddRendered(block string) {
	c.blocks = append(c.blocks, chatBlock{text: block, rendered: true})
	c.UpdateContent()
	c.AutoScroll = true
	c.UserScrolled = false
}

// Clear resets the transcript view to the welcome text.
func (c *ChatComponent) Clear() {
	c.blocks = []chatBlock{{text: chatWelcome}}
	c.UpdateContent()
	c.AutoScroll = true
	c.UserScrolled = false
}

// UpdateContent rebuilds the viewport content from the blocks
func (c *ChatComponent) UpdateContent() {
	views := make([]string, 0, len(c.blocks))
	for _, block := range c.blocks {
		if block.rendered {
			views = append(views, block.text)
			continue
		}
		views = append(views, wordwrap.String(block.text, c.Viewport.Width))
	}
	c.Viewport.SetContent(strings.Join(views, "\n\n"))
	if c.AutoScroll && !c.UserScrolled {
		c.Viewport.GotoBottom()
	}
}

// Update handles scroll input for the chat viewport
func (c ChatComponent) Update(msg tea.Msg) (ChatComponent, tea.Cmd) {
	var cmd tea.Cmd
	atBottom := c.Viewport.AtBottom()
	c.Viewport, cmd = c.Viewport.Update(msg)

	// Scrolling away from the bottom pins the view; scrolling back to
	// the bottom re-enables follow mode.
	if c.Viewport.AtBottom() {
		c.UserScrolled = false
		c.AutoScroll = true
	} else if atBottom {
		c.UserScrolled = true
		c.AutoScroll = false
	}
	return c, cmd
}

// View renders the chat component
func (c ChatComponent) View() string {
	return c.Style.Render(c.Viewport.View())
}
