package config

const (
	defaultDataDir        = "~/.local/share/darkroom"
	defaultLogDir         = "~/.local/share/darkroom/logs"
	defaultCapacity       = 50
	defaultResetTime      = "00:00"
	defaultSLAHours       = 48
	defaultPollTimeout    = 50
	defaultTempMessageTTL = 60
	defaultAPIBaseURL     = "https://api.telegram.org"
	defaultDashboardBind  = "127.0.0.1:8080"
	defaultNotifyTimeout  = 10
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Queue: Queue{
			Capacity:  defaultCapacity,
			ResetTime: defaultResetTime,
			SLAHours:  defaultSLAHours,
		},
		Telegram: Telegram{
			PollTimeout:       defaultPollTimeout,
			TempMessageTTL:    defaultTempMessageTTL,
			ModerateGroups:    true,
			WelcomeNewMembers: true,
			APIBaseURL:        defaultAPIBaseURL,
		},
		Dashboard: Dashboard{
			Bind: defaultDashboardBind,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Submissions:    true,
			Completions:    true,
			Resets:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
