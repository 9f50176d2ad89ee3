// Package keytool implements the operator commands for managing the master
// key and minting development tokens.
package keytool

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/cryptox"
	"github.com/dmitrijs2005/hashenv/internal/server/auth"
	"golang.org/x/term"
)

// test seams
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
	stdinFd      = func() int { return int(os.Stdin.Fd()) }
)

const usage = `usage: keytool <command> [flags]

commands:
  generate   print a new random master key
  check      validate a master key read from stdin
  token      mint a signed access token for development
`

// Run executes one command and returns the process exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "generate":
		fmt.Fprintln(stdout, cryptox.GenerateMasterKey())
	case "check":
		err = check(stdin, stdout, stderr)
	case "token":
		err = token(args[1:], stdout, stderr)
	default:
		fmt.Fprint(stderr, usage)
		return 2
	}

	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}

// readKey reads without echo when stdin is a terminal, otherwise one line.
func readKey(stdin io.Reader, stderr io.Writer) ([]byte, error) {
	if isTerminal(stdinFd()) {
		fmt.Fprint(stderr, "Enter master key: ")
		b, err := readPassword(stdinFd())
		fmt.Fprintln(stderr)
		return b, err
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return nil, err
	}
	return []byte(line), nil
}

func check(stdin io.Reader, stdout, stderr io.Writer) error {
	raw, err := readKey(stdin, stderr)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(raw)

	key, err := cryptox.ParseMasterKey(string(raw))
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	c, err := cryptox.NewCipher(key, cryptox.AlgorithmAESGCM)
	if err != nil {
		return err
	}
	blob, err := c.Encrypt([]byte("check"))
	if err != nil {
		return err
	}
	if _, err := c.Decrypt(blob); err != nil {
		return err
	}

	fmt.Fprintln(stdout, "master key OK")
	return nil
}

func token(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)

	userID := fs.String("user", "", "user id (subject)")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email")
	secret := fs.String("secret", os.Getenv("HASHENV_JWT_SECRET"), "signing secret")
	ttl := fs.Duration("ttl", time.Hour, "token validity")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*userID) == "" {
		return fmt.Errorf("%w: -user is required", common.ErrValidation)
	}
	if *secret == "" {
		return fmt.Errorf("%w: signing secret is not set", common.ErrConfiguration)
	}

	tok, err := auth.GenerateToken(*userID, *name, *email, []byte(*secret), *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, tok)
	return nil
}
