package config

import (
	"fmt"

	"github.com/jpalmerr/defconboard"
)

// Options converts parsed configuration into SDK options for
// [defconboard.New].
//
// Logging and tracing are not included; the caller owns those.
func Options(cfg *Config) ([]defconboard.Option, error) {
	opts := []defconboard.Option{
		defconboard.WithPort(cfg.Port),
		defconboard.WithPollingInterval(cfg.PollInterval.Duration()),
		defconboard.WithTimeout(cfg.Timeout.Duration()),
		defconboard.WithSourceURL(cfg.SourceURL),
	}

	if cfg.Title != "" {
		opts = append(opts, defconboard.WithTitle(cfg.Title))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, defconboard.WithUserAgent(cfg.UserAgent))
	}

	extractor, err := buildLevelExtractor(cfg.Level)
	if err != nil {
		return nil, err
	}
	if extractor != nil {
		opts = append(opts, defconboard.WithLevelExtractor(extractor))
	}

	if len(cfg.Commands) > 0 {
		commands, err := BuildCommands(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, defconboard.WithCommands(commands...))
	}

	return opts, nil
}

// BuildCommands converts the configured commands into SDK commands.
// An empty list yields [defconboard.DefaultCommands].
func BuildCommands(cfg *Config) ([]defconboard.Command, error) {
	if len(cfg.Commands) == 0 {
		return defconboard.DefaultCommands(), nil
	}

	commands := make([]defconboard.Command, 0, len(cfg.Commands))
	for i, cc := range cfg.Commands {
		var opts []defconboard.CommandOption
		if len(cc.Aliases) > 0 {
			opts = append(opts, defconboard.WithAliases(cc.Aliases...))
		}

		cmd, err := defconboard.NewCommand(defconboard.CommandID(cc.ID), cc.URL, opts...)
		if err != nil {
			return nil, fmt.Errorf("commands[%d] (%s): %w", i, cc.ID, err)
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}

// buildLevelExtractor converts LevelConfig to a LevelExtractor.
// Returns nil for default/empty (SDK uses ExtractLevel).
func buildLevelExtractor(lc LevelConfig) (defconboard.LevelExtractor, error) {
	switch lc.Type {
	case "", "default":
		return nil, nil
	case "regex":
		extractor, err := defconboard.RegexLevelExtractor(lc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("level: %w", err)
		}
		if lc.Fallback {
			return defconboard.FirstLevel(extractor, defconboard.ExtractLevel), nil
		}
		return extractor, nil
	default:
		return nil, fmt.Errorf("level: unknown type %q", lc.Type)
	}
}
