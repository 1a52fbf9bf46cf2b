// Package view holds the presentation state of the client: the visible
// month, the current slot selection, and the navigation line that
// reflects login state.
package view

import (
	"fmt"

	"github.com/drewfead/slotbook/internal/session"
)

// Nav is the rendered navigation state. Exactly one of ShowLogin and
// ShowLogout is set.
type Nav struct {
	ShowLogin  bool
	ShowLogout bool
	Welcome    string
}

// RenderNav maps the session onto the navigation: logged in shows the
// welcome line and the logout affordance, logged out the inverse. Pure
// function of the session; safe to call on every state change.
func RenderNav(sess *session.Session) Nav {
	if sess == nil {
		return Nav{ShowLogin: true}
	}
	return Nav{
		ShowLogout: true,
		Welcome:    fmt.Sprintf("Welcome, %s!", sess.Username),
	}
}

// Line renders the navigation as a single status line for the terminal.
func (n Nav) Line() string {
	if n.ShowLogout {
		return fmt.Sprintf("%s  [logout available]", n.Welcome)
	}
	return "Not logged in  [run 'slotbook login']"
}
