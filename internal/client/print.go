package client

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/atinyakov/ContactKeeper/internal/models"
)

// PrintContacts writes a human-readable listing of contacts to w.
func PrintContacts(w io.Writer, contacts []models.Contact) {
	if len(contacts) == 0 {
		fmt.Fprintln(w, color.YellowString("No contacts yet."))
		return
	}
	for _, c := range contacts {
		fmt.Fprintf(w, "%s %s\n", color.CyanString(c.ID), color.New(color.Bold).Sprint(c.FirstName+" "+c.LastName))
		printFields(w, c.ContactData)
		fmt.Fprintln(w, "---")
	}
}

// PrintShared writes a redeemed contact and the share expiry to w.
func PrintShared(w io.Writer, shared *models.SharedContact) {
	c := shared.Contact
	fmt.Fprintln(w, color.New(color.Bold).Sprint(c.FirstName+" "+c.LastName))
	printFields(w, c)
	fmt.Fprintf(w, "%s share valid until %s\n", color.CyanString("→"), shared.ExpiresAt.Local().Format(time.DateTime))
}

// PrintShareCode writes a newly issued share code to w.
func PrintShareCode(w io.Writer, code *models.ShareCode) {
	fmt.Fprintf(w, "%s Share code: %s\n", color.GreenString("✓"), color.YellowString(code.Code))
	fmt.Fprintf(w, "%s Expires at %s\n", color.CyanString("→"), code.ExpiresAt.Local().Format(time.DateTime))
}

// Success prints a green check followed by the formatted message.
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

// Failure prints a red cross followed by err.
func Failure(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", color.RedString("✗"), err)
}

func printFields(w io.Writer, c models.ContactData) {
	for _, f := range []struct {
		label string
		value *string
	}{
		{"Phone", c.Phone},
		{"Email", c.Email},
		{"Note", c.Note},
	} {
		if f.value != nil && *f.value != "" {
			fmt.Fprintf(w, "  %s: %s\n", f.label, *f.value)
		}
	}
}
