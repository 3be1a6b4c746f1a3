package client

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/atinyakov/ContactKeeper/internal/models"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Prompter reads answers line by line from an input stream.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
	// fd is set when the input is a terminal, so passwords are read without echo.
	fd int
}

// NewPrompter reads from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{scanner: bufio.NewScanner(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

// Ask prints label and returns the trimmed answer. When the answer is
// empty, def is returned instead.
func (p *Prompter) Ask(label, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	if !p.scanner.Scan() {
		return def
	}
	answer := strings.TrimSpace(p.scanner.Text())
	if answer == "" {
		return def
	}
	return answer
}

// Password asks for a secret. On a terminal the input is not echoed.
func (p *Prompter) Password(label string) string {
	if p.fd < 0 {
		return p.Ask(label, "")
	}
	fmt.Fprintf(p.out, "%s: ", label)
	b, err := readPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// Credentials asks for a username and password.
func (p *Prompter) Credentials() (username, password string) {
	return p.Ask("Username", ""), p.Password("Password")
}

// Contact asks for every contact field. Existing values from current are
// offered as defaults; a single "-" clears an optional field.
func (p *Prompter) Contact(current *models.ContactData) models.ContactData {
	var cur models.ContactData
	if current != nil {
		cur = *current
	}

	data := models.ContactData{
		FirstName: p.Ask("First name", cur.FirstName),
		LastName:  p.Ask("Last name", cur.LastName),
	}
	data.Phone = p.optional("Phone", cur.Phone)
	data.Email = p.optional("Email", cur.Email)
	data.Note = p.optional("Note", cur.Note)
	return data
}

func (p *Prompter) optional(label string, cur *string) *string {
	def := ""
	if cur != nil {
		def = *cur
	}
	answer := p.Ask(label, def)
	if answer == "" || answer == "-" {
		return nil
	}
	return &answer
}
