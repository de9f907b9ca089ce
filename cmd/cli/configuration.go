package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/standup/internal/utils"
)

const (
	commonConfigurationKeyConstant          = "common"
	reportConfigurationKeyConstant          = "report"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	reportDaysConfigKeyConstant             = reportConfigurationKeyConstant + ".days"
	reportFolderConfigKeyConstant           = reportConfigurationKeyConstant + ".folder"
	reportDepthConfigKeyConstant            = reportConfigurationKeyConstant + ".depth"
	reportIgnoreConfigKeyConstant           = reportConfigurationKeyConstant + ".ignore"
	reportAuthorConfigKeyConstant           = reportConfigurationKeyConstant + ".author"
	reportBackendConfigKeyConstant          = reportConfigurationKeyConstant + ".backend"
	reportConcurrencyConfigKeyConstant      = reportConfigurationKeyConstant + ".concurrency"
	defaultReportDaysConstant               = 7
	defaultReportDepthConstant              = 3
	defaultReportConcurrencyConstant        = 0
	historyBackendGitConstant               = "git"
	historyBackendLibraryConstant           = "library"
	invalidConfigurationMessageConstant     = "invalid configuration"
	negativeDaysTemplateConstant            = "%w: report.days must not be negative, got %d"
	negativeConcurrencyTemplateConstant     = "%w: report.concurrency must not be negative, got %d"
	unsupportedBackendTemplateConstant      = "%w: report.backend must be %q or %q, got %q"
	defaultIgnorePatternNodeModulesConstant = "node_modules/**"
	defaultIgnorePatternDistConstant        = "dist/**"
)

// ErrInvalidConfiguration marks configuration values the command cannot run with.
var ErrInvalidConfiguration = errors.New(invalidConfigurationMessageConstant)

// ApplicationConfiguration describes the persisted configuration for the standup command.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Report ReportConfiguration            `mapstructure:"report"`
}

// ApplicationCommonConfiguration stores logging configuration.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ReportConfiguration controls discovery and the history window.
type ReportConfiguration struct {
	Days        int      `mapstructure:"days"`
	Folder      string   `mapstructure:"folder"`
	Depth       int      `mapstructure:"depth"`
	Ignore      []string `mapstructure:"ignore"`
	Author      string   `mapstructure:"author"`
	Backend     string   `mapstructure:"backend"`
	Concurrency int      `mapstructure:"concurrency"`
}

// DefaultConfigurationValues returns the fallback values applied beneath the embedded configuration.
func DefaultConfigurationValues() map[string]any {
	return map[string]any{
		commonLogLevelConfigKeyConstant:    string(utils.LogLevelWarn),
		commonLogFormatConfigKeyConstant:   string(utils.LogFormatConsole),
		reportDaysConfigKeyConstant:        defaultReportDaysConstant,
		reportFolderConfigKeyConstant:      "",
		reportDepthConfigKeyConstant:       defaultReportDepthConstant,
		reportIgnoreConfigKeyConstant:      []string{defaultIgnorePatternNodeModulesConstant, defaultIgnorePatternDistConstant},
		reportAuthorConfigKeyConstant:      "",
		reportBackendConfigKeyConstant:     historyBackendGitConstant,
		reportConcurrencyConfigKeyConstant: defaultReportConcurrencyConstant,
	}
}

func (configuration ReportConfiguration) validate() error {
	if configuration.Days < 0 {
		return fmt.Errorf(negativeDaysTemplateConstant, ErrInvalidConfiguration, configuration.Days)
	}
	if configuration.Concurrency < 0 {
		return fmt.Errorf(negativeConcurrencyTemplateConstant, ErrInvalidConfiguration, configuration.Concurrency)
	}
	switch strings.ToLower(strings.TrimSpace(configuration.Backend)) {
	case historyBackendGitConstant, historyBackendLibraryConstant:
		return nil
	default:
		return fmt.Errorf(unsupportedBackendTemplateConstant, ErrInvalidConfiguration, historyBackendGitConstant, historyBackendLibraryConstant, configuration.Backend)
	}
}
