package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateDashboard(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.Capacity < 1 {
		return errors.New("queue.capacity must be at least 1")
	}
	if _, err := time.Parse("15:04", c.Queue.ResetTime); err != nil {
		return fmt.Errorf("queue.reset_time must be HH:MM, got %q", c.Queue.ResetTime)
	}
	if c.Queue.SLAHours < 1 {
		return errors.New("queue.sla_hours must be at least 1")
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if c.Telegram.BotToken == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/darkroom/config.toml"
		}
		return fmt.Errorf("telegram.bot_token is required. Set DARKROOM_BOT_TOKEN env var or edit %s (create with 'darkroom config init')", defaultPath)
	}
	if c.Telegram.AdminID == 0 {
		return errors.New("telegram.admin_id is required. Set DARKROOM_ADMIN_ID env var or edit the config file")
	}
	return nil
}

func (c *Config) validateDashboard() error {
	if c.Dashboard.Bind == "" {
		return errors.New("dashboard.bind must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
