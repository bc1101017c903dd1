package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/readspace/readspace/internal/config"
	"github.com/readspace/readspace/internal/session"
)

// SessionStatusCommand inspects or clears the stored session from the
// command line, without going through the web UI.
type SessionStatusCommand struct {
	DatabasePath string
	KeyFilePath  string
	Clear        bool
}

// NewSessionStatusCommand creates a new SessionStatusCommand
func NewSessionStatusCommand() *SessionStatusCommand {
	return &SessionStatusCommand{}
}

// ParseFlags parses command line flags
func (cmd *SessionStatusCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("session", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultSessionDatabasePath, "Path to the session database file")
	fs.StringVar(&cmd.KeyFilePath, "key-file", "", "Path to the encryption key file (defaults to ~/"+session.DefaultKeyFileName+")")
	fs.BoolVar(&cmd.Clear, "clear", false, "Clear the stored session (sign out)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s session [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Show who is signed in, or sign out with -clear.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the command
func (cmd *SessionStatusCommand) Run() error {
	store, err := session.NewStore(session.Config{
		DatabasePath: cmd.DatabasePath,
		KeyFilePath:  cmd.KeyFilePath,
	})
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer store.Close()

	if cmd.Clear {
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
		fmt.Println("Session cleared.")
		return nil
	}

	state, err := store.Current()
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}
	if state == nil {
		fmt.Println("Nobody is signed in.")
		return nil
	}

	fmt.Printf("Signed in as %s <%s> (role %s)\n",
		state.User.Username, state.User.Email, state.User.Role)
	return nil
}
