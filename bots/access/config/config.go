// Package config loads the access bot configuration: the shared core settings
// plus the questionnaire, target channel and optional journal database.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	coreconfig "github.com/m3rciful/gatekeeper/core/config"
	coredatabase "github.com/m3rciful/gatekeeper/core/database"
)

const (
	DefaultTextMin      = 10
	DefaultTextMax      = 500
	DefaultInviteTTL    = time.Hour
	DefaultPollQuestion = "Which option do you prefer?"
)

// DefaultPollOptions are the stock poll labels, in display order.
var DefaultPollOptions = []string{"Option A", "Option B"}

// AccessConfig tunes the questionnaire and the approval step.
type AccessConfig struct {
	// ChannelID is the channel invites are issued for: a numeric id or @username.
	ChannelID    string        `yaml:"channel_id" envconfig:"CHANNEL_ID"`
	TextMin      int           `yaml:"text_min" envconfig:"ACCESS_TEXT_MIN"`
	TextMax      int           `yaml:"text_max" envconfig:"ACCESS_TEXT_MAX"`
	PollQuestion string        `yaml:"poll_question" envconfig:"ACCESS_POLL_QUESTION"`
	PollOptions  []string      `yaml:"poll_options" envconfig:"ACCESS_POLL_OPTIONS"`
	InviteTTL    time.Duration `yaml:"invite_ttl" envconfig:"ACCESS_INVITE_TTL"`
	// Timezone is used when showing timestamps to the reviewer.
	Timezone string `yaml:"timezone" envconfig:"ACCESS_TIMEZONE"`
}

// Config is the complete access bot configuration.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Access   AccessConfig        `yaml:"access"`
	Database coredatabase.Config `yaml:"database"`

	location *time.Location
}

// CoreConfig exposes the shared settings to the command runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// Location returns the reviewer timezone resolved during Load.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Load reads the YAML file at path (optional) and overlays the environment.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.ReadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required settings and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Core); err != nil {
		return err
	}

	a := &c.Access
	a.ChannelID = strings.TrimSpace(a.ChannelID)
	if a.ChannelID == "" {
		return fmt.Errorf("access channel is required (CHANNEL_ID)")
	}
	if !strings.HasPrefix(a.ChannelID, "@") {
		if _, err := strconv.ParseInt(a.ChannelID, 10, 64); err != nil {
			return fmt.Errorf("invalid CHANNEL_ID %q: want a numeric id or @username", a.ChannelID)
		}
	}

	if a.TextMin <= 0 {
		a.TextMin = DefaultTextMin
	}
	if a.TextMax <= 0 {
		a.TextMax = DefaultTextMax
	}
	if a.TextMin > a.TextMax {
		return fmt.Errorf("access.text_min (%d) exceeds access.text_max (%d)", a.TextMin, a.TextMax)
	}

	if strings.TrimSpace(a.PollQuestion) == "" {
		a.PollQuestion = DefaultPollQuestion
	}
	options := make([]string, 0, len(a.PollOptions))
	for _, o := range a.PollOptions {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, o)
		}
	}
	if len(options) == 0 {
		options = append(options, DefaultPollOptions...)
	}
	if len(options) < 2 {
		return fmt.Errorf("access.poll_options needs at least two labels")
	}
	a.PollOptions = options

	if a.InviteTTL <= 0 {
		a.InviteTTL = DefaultInviteTTL
	}

	loc := time.UTC
	if tz := strings.TrimSpace(a.Timezone); tz != "" {
		var err error
		if loc, err = time.LoadLocation(tz); err != nil {
			return fmt.Errorf("invalid access.timezone %q: %w", tz, err)
		}
	}
	c.location = loc

	if c.Database.Enabled() {
		c.Database.Normalize()
	}
	return nil
}
