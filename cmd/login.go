package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/testcentral/outpost/internal/config"
	"github.com/testcentral/outpost/internal/models"
	"github.com/testcentral/outpost/pkg/central"
	"github.com/testcentral/outpost/pkg/credentials"
	srvErrors "github.com/testcentral/outpost/pkg/errors"
)

const loginAttempts = 3

type authenticator interface {
	Authenticate(ctx context.Context, ssoPath, email, password string) (*models.Session, error)
}

func NewLoginCommand(cfg *config.Configuration) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to Test Central and store the session used by run",
		PreRunE: cobrautil.CommandStack(
			loadConfig(&configFile),
			setupLogging(cfg),
			func(cmd *cobra.Command, args []string) error {
				if cfg.Central.URL == "" {
					return errors.New("central-url cannot be empty")
				}
				return validateBaseURL(cfg.Central.URL)
			},
		),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := central.NewClient(cfg.Central.URL, cfg.Central.Timeout)
			if err != nil {
				return err
			}
			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			_, err = login(cmd.Context(), cfg, client, credentials.NewDiskStore(cfg.Central.SessionFile), p)
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&configFile, "config", "", "Optional YAML config file; keys are flag names")
	registerCentralFlags(fs, cfg)
	registerLogFlags(fs, cfg)

	return cmd
}

// login asks for credentials until Test Central accepts them or the attempts
// run out, then stores the session.
func login(ctx context.Context, cfg *config.Configuration, auth authenticator, sessions credentials.Store, p *prompter) (*models.Session, error) {
	for attempt := 1; attempt <= loginAttempts; attempt++ {
		email, err := p.ask("Email", cfg.Central.Email)
		if err != nil {
			return nil, err
		}
		password, err := p.askSecret("Password")
		if err != nil {
			return nil, err
		}

		session, err := auth.Authenticate(ctx, cfg.Central.SSOPath, email, password)
		if err != nil {
			if !srvErrors.IsCentralClientError(err) {
				return nil, fmt.Errorf("failed to reach test central: %w", err)
			}
			p.fail("Login failed: %s (%d/%d)", err, attempt, loginAttempts)
			cfg.Central.Email = email
			continue
		}

		if err := sessions.Save(*session); err != nil {
			return nil, fmt.Errorf("failed to store session: %w", err)
		}
		p.success("Logged in as %s", session.Email)
		return session, nil
	}

	return nil, fmt.Errorf("login failed after %d attempts", loginAttempts)
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.tty = true
	}
	return p
}

func (p *prompter) ask(label, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return current, nil
	}
	return line, nil
}

func (p *prompter) askSecret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.tty {
		return p.readLine()
	}

	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (p *prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) fail(format string, a ...any) {
	color.New(color.FgRed).Fprintf(p.out, format+"\n", a...)
}

func (p *prompter) success(format string, a ...any) {
	color.New(color.FgGreen, color.Bold).Fprintf(p.out, format+"\n", a...)
}
