package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/readspace/readspace/internal/crypto"
)

// GenerateKeyCommand prints a fresh session encryption key, for deployments
// that configure the key explicitly instead of using the key file.
type GenerateKeyCommand struct{}

// NewGenerateKeyCommand creates a new GenerateKeyCommand
func NewGenerateKeyCommand() *GenerateKeyCommand {
	return &GenerateKeyCommand{}
}

// ParseFlags parses command line flags
func (cmd *GenerateKeyCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("generate-key", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s generate-key\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print a new base64 encryption key for SESSION_ENCRYPTION_KEY.\n")
	}
	return fs.Parse(args)
}

// Run executes the command
func (cmd *GenerateKeyCommand) Run() error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}
	fmt.Println(key)
	return nil
}
