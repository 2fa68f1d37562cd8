package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cory-johannsen/pdabridge/internal/frontend/console"
)

var errPasswordMismatch = errors.New("passwords do not match")

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print a bcrypt hash for console.password_hash",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pw, err := promptPassword(cmd.ErrOrStderr(), os.Stdin)
		if err != nil {
			return err
		}
		hash, err := console.HashPassword(pw)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

// promptPassword asks twice without echo when in is a terminal, and reads
// a single line otherwise.
func promptPassword(prompt io.Writer, in *os.File) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return nonEmpty(strings.TrimRight(line, "\r\n"))
	}
	read := func(label string) (string, error) {
		fmt.Fprint(prompt, label)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	first, err := read("Password: ")
	if err != nil {
		return "", err
	}
	second, err := read("Again: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errPasswordMismatch
	}
	return nonEmpty(first)
}

func nonEmpty(pw string) (string, error) {
	if pw == "" {
		return "", errors.New("password must not be empty")
	}
	return pw, nil
}
