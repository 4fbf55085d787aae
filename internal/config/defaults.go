package config

const (
	defaultInputDir           = "~/Downloads"
	defaultOutputDir          = "~/library/jav"
	defaultTemplateDir        = "~/.config/javtidy/templates"
	defaultLogDir             = "~/.local/share/javtidy/logs"
	defaultJournalPath        = "~/.local/share/javtidy/journal.db"
	defaultThreadLimit        = 4
	defaultMaximumFetchCount  = 3
	defaultLockTimeoutSeconds = 900
	defaultBackupGraceSeconds = 3600
	defaultMinimumSizeMiB     = 64
	defaultNamingTemplate     = "$id$/$id$ $title$"
	defaultMultiActorStrategy = "first_only"
	defaultSubtitleLanguage   = "zh-CN"
	defaultUserAgent          = "javtidy/dev"
	defaultRequestTimeout     = 30
	defaultRetryAttempts      = 3
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:    defaultInputDir,
			OutputDir:   defaultOutputDir,
			TemplateDir: defaultTemplateDir,
			LogDir:      defaultLogDir,
			JournalPath: defaultJournalPath,
		},
		Process: Process{
			MigrateFiles:       []string{"mp4", "mkv", "avi", "wmv", "mov", "flv", "ts", "m4v"},
			ThreadLimit:        defaultThreadLimit,
			MaximumFetchCount:  defaultMaximumFetchCount,
			LockTimeoutSeconds: defaultLockTimeoutSeconds,
			BackupGraceSeconds: defaultBackupGraceSeconds,
			MinimumSizeMiB:     defaultMinimumSizeMiB,
		},
		Naming: Naming{
			Template:           defaultNamingTemplate,
			MultiActorStrategy: defaultMultiActorStrategy,
		},
		Subtitles: Subtitles{
			Migrate:    true,
			Extensions: []string{"srt", "ass", "ssa", "sub", "vtt"},
			Language:   defaultSubtitleLanguage,
		},
		Network: Network{
			UserAgent:             defaultUserAgent,
			RequestTimeoutSeconds: defaultRequestTimeout,
			RetryAttempts:         defaultRetryAttempts,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
