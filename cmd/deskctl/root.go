package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/studiodesk/studio-desk/internal/client"
)

const defaultServer = "http://localhost:8080"

// profile is persisted between invocations so the token and template
// session survive.
type profile struct {
	Server    string `yaml:"server"`
	Token     string `yaml:"token,omitempty"`
	SessionID string `yaml:"session_id,omitempty"`
}

type cli struct {
	out        io.Writer
	configPath string
	server     string
	timeout    time.Duration
	retries    int

	profile profile
	client  *client.Client
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:           "deskctl",
		Short:         "Studio desk ticket dashboard from the terminal",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if c.client != nil && c.client.SessionID() != c.profile.SessionID {
				return c.persist("")
			}
			return nil
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&c.configPath, "config", defaultConfigPath(), "profile file")
	root.PersistentFlags().StringVar(&c.server, "server", os.Getenv("DESKCTL_SERVER"), "API base URL")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 15*time.Second, "request timeout")
	root.PersistentFlags().IntVar(&c.retries, "retries", 2, "retries for unavailable responses")

	root.AddCommand(
		newLoginCmd(c),
		newTicketsCmd(c),
		newAnalyticsCmd(c),
		newTemplatesCmd(c),
	)
	return root
}

func defaultConfigPath() string {
	if path := os.Getenv("DESKCTL_CONFIG"); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".deskctl.yaml"
	}
	return filepath.Join(dir, "deskctl", "config.yaml")
}

func (c *cli) setup() error {
	p, err := loadProfile(c.configPath)
	if err != nil {
		return err
	}
	if c.server != "" {
		p.Server = c.server
	}
	if p.Server == "" {
		p.Server = defaultServer
	}
	c.profile = p
	c.client = client.New(client.Config{
		BaseURL:    p.Server,
		Token:      p.Token,
		SessionID:  p.SessionID,
		Timeout:    c.timeout,
		RetryCount: c.retries,
	})
	return nil
}

// persist stores the current token and template session.
func (c *cli) persist(token string) error {
	if token != "" {
		c.profile.Token = token
	}
	if id := c.client.SessionID(); id != "" {
		c.profile.SessionID = id
	}
	return saveProfile(c.configPath, c.profile)
}

func loadProfile(path string) (profile, error) {
	var p profile
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}

func saveProfile(path string, p profile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func newLoginCmd(c *cli) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("DESKCTL_PASSWORD")
			}
			resp, err := c.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := c.persist(resp.Auth.Token); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Signed in as %s (%s), token valid until %s\n",
				resp.User.Name, resp.User.Role, resp.Auth.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or DESKCTL_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
