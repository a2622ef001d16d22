package defconboard

import (
	"errors"
	"net/url"
	"strings"
)

// DefaultSourceURL is the aggregate raised-levels page scraped by default.
const DefaultSourceURL = "https://www.defconlevel.com/raised-levels"

// CommandID identifies one of the tracked alert commands.
//
// The identifier doubles as the command's canonical keyword: a command is
// considered raised when its ID appears in the page text.
type CommandID string

// The built-in command set.
const (
	Cybercom    CommandID = "CYBERCOM"
	Socom       CommandID = "SOCOM"
	Stratcom    CommandID = "STRATCOM"
	Transcom    CommandID = "TRANSCOM"
	Biocom      CommandID = "BIOCOM"
	Disastercom CommandID = "DISASTERCOM"
	Fincom      CommandID = "FINCOM"
	Spacecom    CommandID = "SPACECOM"
)

// String returns the identifier as a string.
func (id CommandID) String() string {
	return string(id)
}

// Command is one tracked alert feed.
//
// Command is immutable after creation via [NewCommand]. Getters return copies
// of mutable data, so a Command can be shared freely between goroutines.
type Command struct {
	id      CommandID
	url     string
	aliases []string
}

// ID returns the command identifier.
func (c Command) ID() CommandID {
	return c.id
}

// URL returns the command's alert page.
func (c Command) URL() string {
	return c.url
}

// Aliases returns a copy of the alternative phrases that count as evidence
// the command is raised. Returns nil if none are set.
func (c Command) Aliases() []string {
	if c.aliases == nil {
		return nil
	}
	return append([]string(nil), c.aliases...)
}

// Keywords returns the ID followed by every alias.
func (c Command) Keywords() []string {
	out := make([]string, 0, 1+len(c.aliases))
	out = append(out, string(c.id))
	return append(out, c.aliases...)
}

// Name returns the display name, e.g. "DEFCON STRATCOM".
func (c Command) Name() string {
	return "DEFCON " + string(c.id)
}

// commandConfig holds mutable state during command construction.
type commandConfig struct {
	aliases []string
}

// CommandOption configures a [Command] during construction.
type CommandOption func(*commandConfig) error

// WithAliases adds phrases that are treated like the command's own keyword.
//
// The source site is not consistent in how it names some commands; for
// example SPACECOM is sometimes written "Space Command".
//
// Example:
//
//	cmd, err := defconboard.NewCommand(defconboard.Spacecom, url,
//	    defconboard.WithAliases("Space Command"),
//	)
//
// Returns an error if any alias is blank.
func WithAliases(aliases ...string) CommandOption {
	return func(cfg *commandConfig) error {
		for _, a := range aliases {
			if strings.TrimSpace(a) == "" {
				return errors.New("alias cannot be empty")
			}
			cfg.aliases = append(cfg.aliases, a)
		}
		return nil
	}
}

// NewCommand creates a [Command] with the given ID, alert page URL and options.
//
// Returns an error if the ID is empty or contains whitespace, or if the URL
// is not an absolute http(s) URL.
func NewCommand(id CommandID, rawURL string, opts ...CommandOption) (Command, error) {
	if id == "" {
		return Command{}, errors.New("command id cannot be empty")
	}
	if strings.ContainsAny(string(id), " \t\r\n") {
		return Command{}, errors.New("command id cannot contain whitespace")
	}
	if err := validateHTTPURL(rawURL); err != nil {
		return Command{}, err
	}

	cfg := &commandConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Command{}, err
		}
	}

	return Command{
		id:      id,
		url:     rawURL,
		aliases: cfg.aliases,
	}, nil
}

// defaultCommandURLs maps the built-in commands to their alert pages.
var defaultCommandURLs = []struct {
	id      CommandID
	url     string
	aliases []string
}{
	{Cybercom, "https://www.defconlevel.com/alerts/cyber-command", nil},
	{Socom, "https://www.defconlevel.com/alerts/special-operations-command", nil},
	{Stratcom, "https://www.defconlevel.com/alerts/strategic-command", nil},
	{Transcom, "https://www.defconlevel.com/alerts/transportation-command", nil},
	{Biocom, "https://www.defconlevel.com/alerts/biological-command", nil},
	{Disastercom, "https://www.defconlevel.com/alerts/disaster-command", nil},
	{Fincom, "https://www.defconlevel.com/alerts/financial-command", nil},
	{Spacecom, "https://www.defconlevel.com/alerts/space-command", []string{"Space Command"}},
}

// DefaultCommands returns the eight built-in commands in display order.
//
// Each call returns a fresh slice. SPACECOM carries the "Space Command" alias;
// no other command has aliases.
func DefaultCommands() []Command {
	out := make([]Command, 0, len(defaultCommandURLs))
	for _, d := range defaultCommandURLs {
		out = append(out, Command{
			id:      d.id,
			url:     d.url,
			aliases: append([]string(nil), d.aliases...),
		})
	}
	return out
}

// validateHTTPURL checks that rawURL is absolute with an http or https scheme.
func validateHTTPURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL: " + err.Error())
	}
	if parsedURL.Scheme == "" {
		return errors.New("URL must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("URL scheme must be http or https")
	}
	if parsedURL.Host == "" {
		return errors.New("URL must have a host")
	}
	return nil
}
