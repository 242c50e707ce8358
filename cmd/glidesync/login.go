package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/glidekit/glidesync/internal/snow"
	"github.com/glidekit/glidesync/internal/ui"
)

var loginCmd = &cobra.Command{
	Use:     "login [instance]",
	GroupID: "setup",
	Short:   "Update the stored password for an instance",
	Long: `Prompt for a new password, verify it against the instance, and store it in
the config file.

The password is read without echo on a terminal. When stdin is a pipe
the first line is used instead, so a secret store can inject it:

  pass show snow/dev | glidesync login dev`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		want := instanceFlag
		if len(args) == 1 {
			want = args[0]
		}
		name, inst, err := cfg.Instance(want)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		password, err := readPassword(fmt.Sprintf("Password for %s@%s: ", inst.Username, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
			os.Exit(1)
		}
		if password == "" {
			fmt.Fprintf(os.Stderr, "Error: empty password\n")
			os.Exit(1)
		}

		client, err := snow.New(snow.Config{
			URL:      inst.URL,
			Username: inst.Username,
			Password: password,
			Logger:   logger,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.TestConnection(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: the instance rejected the new credentials: %v\n", err)
			os.Exit(1)
		}

		inst.Password = password
		cfg.Instances[name] = inst
		path := configWritePath()
		if err := writeConfig(path, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Password updated for %s in %s\n", ui.RenderPass("✓"), name, path)
	},
}

// readPassword reads without echo on a terminal and falls back to the
// first stdin line otherwise.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
