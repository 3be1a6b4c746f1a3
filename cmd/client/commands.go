package main

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/atinyakov/ContactKeeper/internal/client"
	"github.com/atinyakov/ContactKeeper/internal/models"
)

// app holds the state shared by every command of one invocation.
type app struct {
	in          io.Reader
	out         io.Writer
	baseURL     string
	caFile      string
	sessionPath string

	session *client.Session
	api     *client.Client
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{in: in, out: out}

	root := &cobra.Command{
		Use:           "contactkeeper",
		Short:         "Manage encrypted contacts and share them with time-limited codes",
		Version:       fmt.Sprintf("%s (built %s)", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A")),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetIn(in)
	root.SetOut(out)

	root.PersistentFlags().StringVar(&a.baseURL, "url", "", "server base URL (default: saved session or http://localhost:8080)")
	root.PersistentFlags().StringVar(&a.caFile, "ca", "", "path to a CA certificate for a TLS server")
	root.PersistentFlags().StringVar(&a.sessionPath, "session", client.DefaultSessionPath(), "path to the session file")

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.listCmd(),
		a.addCmd(),
		a.editCmd(),
		a.deleteCmd(),
		a.shareCmd(),
		a.revokeCmd(),
		a.redeemCmd(),
		a.exportCmd(),
		a.importCmd(),
	)
	return root
}

func (a *app) init() error {
	sess, err := client.LoadSession(a.sessionPath)
	if err != nil {
		return err
	}
	a.session = sess

	httpClient, err := client.NewHTTPClient(a.caFile)
	if err != nil {
		return err
	}
	a.api = &client.Client{
		BaseURL: cmp.Or(a.baseURL, sess.BaseURL, "http://localhost:8080"),
		Token:   sess.Token,
		HTTP:    httpClient,
	}
	return nil
}

func (a *app) saveSession(res *client.AuthResult) error {
	a.session = &client.Session{BaseURL: a.api.BaseURL, Token: res.Token, Username: res.User.Username}
	return a.session.Save(a.sessionPath)
}

func (a *app) registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, pass := client.NewPrompter(a.in, a.out).Credentials()
			res, err := a.api.Register(cmd.Context(), user, pass)
			if err != nil {
				return err
			}
			if err := a.saveSession(res); err != nil {
				return err
			}
			client.Success(a.out, "Registered and logged in as %s", res.User.Username)
			return nil
		},
	}
}

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, pass := client.NewPrompter(a.in, a.out).Credentials()
			res, err := a.api.Login(cmd.Context(), user, pass)
			if err != nil {
				return err
			}
			if err := a.saveSession(res); err != nil {
				return err
			}
			client.Success(a.out, "Logged in as %s", res.User.Username)
			return nil
		},
	}
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Clear(a.sessionPath); err != nil {
				return err
			}
			client.Success(a.out, "Logged out")
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			contacts, err := a.api.ListContacts(cmd.Context())
			if err != nil {
				return err
			}
			client.PrintContacts(a.out, contacts)
			return nil
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Add a contact interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := client.NewPrompter(a.in, a.out).Contact(nil)
			contact, err := a.api.CreateContact(cmd.Context(), data)
			if err != nil {
				return err
			}
			client.Success(a.out, "Added %s %s (%s)", contact.FirstName, contact.LastName, contact.ID)
			return nil
		},
	}
}

func (a *app) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a contact; press enter to keep a value, '-' to clear it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contacts, err := a.api.ListContacts(cmd.Context())
			if err != nil {
				return err
			}
			var current *models.ContactData
			for _, c := range contacts {
				if c.ID == args[0] {
					current = &c.ContactData
					break
				}
			}
			if current == nil {
				return fmt.Errorf("contact %s not found", args[0])
			}

			data := client.NewPrompter(a.in, a.out).Contact(current)
			if _, err := a.api.UpdateContact(cmd.Context(), args[0], data); err != nil {
				return err
			}
			client.Success(a.out, "Contact updated")
			return nil
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a contact and its share codes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.DeleteContact(cmd.Context(), args[0]); err != nil {
				return err
			}
			client.Success(a.out, "Contact deleted")
			return nil
		},
	}
}

func (a *app) shareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share <id>",
		Short: "Issue a share code valid for 30 minutes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := a.api.ShareContact(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			client.PrintShareCode(a.out, code)
			return nil
		},
	}
}

func (a *app) revokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <code>",
		Short: "Invalidate a share code before it expires",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.RevokeShare(cmd.Context(), args[0]); err != nil {
				return err
			}
			client.Success(a.out, "Share code revoked")
			return nil
		},
	}
}

func (a *app) redeemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redeem <code>",
		Short: "Show the contact behind a share code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shared, err := a.api.Redeem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			client.PrintShared(a.out, shared)
			return nil
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write all contacts as JSON to file, or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contacts, err := a.api.Export(cmd.Context())
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(contacts, "", "  ")
			if err != nil {
				return err
			}
			if len(args) == 0 {
				_, err := fmt.Fprintln(a.out, string(data))
				return err
			}
			if err := os.WriteFile(args[0], data, 0o600); err != nil {
				return err
			}
			client.Success(a.out, "Exported %d contacts to %s", len(contacts), args[0])
			return nil
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import contacts from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var contacts []models.ContactData
			if err := json.Unmarshal(raw, &contacts); err != nil {
				return errors.New("import file must be a JSON array of contacts")
			}
			n, err := a.api.Import(cmd.Context(), contacts)
			if err != nil {
				return err
			}
			client.Success(a.out, "Imported %d of %d contacts", n, len(contacts))
			return nil
		},
	}
}
