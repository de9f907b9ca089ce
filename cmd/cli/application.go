package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/standup/internal/execshell"
	"github.com/temirov/standup/internal/history"
	"github.com/temirov/standup/internal/identity"
	"github.com/temirov/standup/internal/report"
	"github.com/temirov/standup/internal/repos/discovery"
	"github.com/temirov/standup/internal/standup"
	"github.com/temirov/standup/internal/utils"
	pathutils "github.com/temirov/standup/internal/utils/path"
)

const (
	applicationNameConstant                 = "standup"
	applicationShortDescriptionConstant     = "Summarize your recent commits across local repositories"
	applicationLongDescriptionConstant      = "standup finds git repositories beneath a folder and prints, for today and each of the previous days, the summary lines of commits you authored in each repository."
	versionTemplateConstant                 = "{{.Name}} version: {{.Version}}\n"
	developmentVersionConstant              = "dev"
	buildInfoDevelopmentVersionConstant     = "(devel)"
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level (debug, info, warn, error)."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	daysFlagNameConstant                    = "days"
	daysFlagShorthandConstant               = "d"
	daysFlagUsageConstant                   = "Number of days before today to include."
	folderFlagNameConstant                  = "folder"
	folderFlagShorthandConstant             = "f"
	folderFlagUsageConstant                 = "Folder to search for repositories (defaults to the current directory)."
	depthFlagNameConstant                   = "depth"
	depthFlagShorthandConstant              = "p"
	depthFlagUsageConstant                  = "Maximum directory depth at which a repository's .git directory is found."
	ignoreFlagNameConstant                  = "ignore"
	ignoreFlagShorthandConstant             = "i"
	ignoreFlagUsageConstant                 = "Glob pattern of directories to skip (repeatable)."
	authorFlagNameConstant                  = "author"
	authorFlagUsageConstant                 = "Author name to report on instead of git config user.name."
	backendFlagNameConstant                 = "backend"
	backendFlagUsageConstant                = "History backend: git (run the git executable) or library (read repositories in-process)."
	concurrencyFlagNameConstant             = "concurrency"
	concurrencyFlagUsageConstant            = "Maximum simultaneous repository queries (0 means unlimited)."
	environmentPrefixConstant               = "STANDUP"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	defaultConfigurationSearchPathConstant  = "."
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	rootDirectoryErrorTemplateConstant      = "unable to resolve folder: %w"
	wiringErrorTemplateConstant             = "unable to assemble standup: %w"
)

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand              *cobra.Command
	configurationLoader      *utils.ConfigurationLoader
	loggerFactory            *utils.LoggerFactory
	logger                   *zap.Logger
	configuration            ApplicationConfiguration
	configurationMetadata    utils.LoadedConfiguration
	configurationFilePath    string
	logLevelFlagValue        string
	logFormatFlagValue       string
	reportFlagValues         ReportConfiguration
	versionResolver          func(context.Context) string
	commandRunner            execshell.CommandRunner
	clock                    standup.Clock
	homeExpander             *pathutils.HomeExpander
	workingDirectoryProvider func() (string, error)
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:      configurationLoader,
		loggerFactory:            utils.NewLoggerFactory(),
		logger:                   zap.NewNop(),
		versionResolver:          resolveBuildVersion,
		commandRunner:            execshell.NewOSCommandRunner(),
		clock:                    standup.SystemClock{},
		homeExpander:             pathutils.NewHomeExpander(),
		workingDirectoryProvider: os.Getwd,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runStandup(command)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.SetVersionTemplate(versionTemplateConstant)

	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)

	reportFlags := cobraCommand.Flags()
	reportFlags.IntVarP(&application.reportFlagValues.Days, daysFlagNameConstant, daysFlagShorthandConstant, defaultReportDaysConstant, daysFlagUsageConstant)
	reportFlags.StringVarP(&application.reportFlagValues.Folder, folderFlagNameConstant, folderFlagShorthandConstant, "", folderFlagUsageConstant)
	reportFlags.IntVarP(&application.reportFlagValues.Depth, depthFlagNameConstant, depthFlagShorthandConstant, defaultReportDepthConstant, depthFlagUsageConstant)
	reportFlags.StringArrayVarP(&application.reportFlagValues.Ignore, ignoreFlagNameConstant, ignoreFlagShorthandConstant, []string{defaultIgnorePatternNodeModulesConstant, defaultIgnorePatternDistConstant}, ignoreFlagUsageConstant)
	reportFlags.StringVar(&application.reportFlagValues.Author, authorFlagNameConstant, "", authorFlagUsageConstant)
	reportFlags.StringVar(&application.reportFlagValues.Backend, backendFlagNameConstant, historyBackendGitConstant, backendFlagUsageConstant)
	reportFlags.IntVar(&application.reportFlagValues.Concurrency, concurrencyFlagNameConstant, defaultReportConcurrencyConstant, concurrencyFlagUsageConstant)

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the root command and flushes the logger.
func (application *Application) Execute() error {
	application.rootCommand.Version = application.versionResolver(application.rootCommand.Context())
	executionError := application.rootCommand.Execute()
	if syncError := utils.SyncLogger(application.logger); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and runs the standup command.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, DefaultConfigurationValues(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	application.applyFlagOverrides(command)

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogLevel))),
		utils.LogFormat(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogFormat))),
		command.ErrOrStderr(),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return application.configuration.Report.validate()
}

func (application *Application) applyFlagOverrides(command *cobra.Command) {
	if flagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if flagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	reportConfiguration := &application.configuration.Report
	if flagChanged(command, daysFlagNameConstant) {
		reportConfiguration.Days = application.reportFlagValues.Days
	}
	if flagChanged(command, folderFlagNameConstant) {
		reportConfiguration.Folder = application.reportFlagValues.Folder
	}
	if flagChanged(command, depthFlagNameConstant) {
		reportConfiguration.Depth = application.reportFlagValues.Depth
	}
	if flagChanged(command, ignoreFlagNameConstant) {
		reportConfiguration.Ignore = append([]string{}, application.reportFlagValues.Ignore...)
	}
	if flagChanged(command, authorFlagNameConstant) {
		reportConfiguration.Author = application.reportFlagValues.Author
	}
	if flagChanged(command, backendFlagNameConstant) {
		reportConfiguration.Backend = application.reportFlagValues.Backend
	}
	if flagChanged(command, concurrencyFlagNameConstant) {
		reportConfiguration.Concurrency = application.reportFlagValues.Concurrency
	}
}

func (application *Application) runStandup(command *cobra.Command) error {
	reportConfiguration := application.configuration.Report

	rootDirectory, rootError := application.resolveRootDirectory(reportConfiguration.Folder)
	if rootError != nil {
		return fmt.Errorf(rootDirectoryErrorTemplateConstant, rootError)
	}

	service, wiringError := application.buildService(command, reportConfiguration)
	if wiringError != nil {
		return fmt.Errorf(wiringErrorTemplateConstant, wiringError)
	}

	return service.Run(command.Context(), standup.Options{
		Days:            reportConfiguration.Days,
		RootDirectory:   rootDirectory,
		Depth:           reportConfiguration.Depth,
		ExcludePatterns: reportConfiguration.Ignore,
	})
}

func (application *Application) buildService(command *cobra.Command, reportConfiguration ReportConfiguration) (*standup.Service, error) {
	shellExecutor, executorError := execshell.NewShellExecutor(application.logger, application.commandRunner)
	if executorError != nil {
		return nil, executorError
	}

	identityResolver, resolverError := identity.NewResolver(shellExecutor, strings.TrimSpace(reportConfiguration.Author))
	if resolverError != nil {
		return nil, resolverError
	}

	historyQuerier, querierError := newHistoryQuerier(reportConfiguration.Backend, shellExecutor)
	if querierError != nil {
		return nil, querierError
	}

	dayReportBuilder, builderError := report.NewBuilder(application.logger, historyQuerier, reportConfiguration.Concurrency)
	if builderError != nil {
		return nil, builderError
	}

	return standup.NewService(standup.Dependencies{
		Logger:               application.logger,
		IdentityResolver:     identityResolver,
		RepositoryDiscoverer: discovery.NewFilesystemRepositoryDiscoverer(application.logger),
		DayReportBuilder:     dayReportBuilder,
		DayRenderer:          report.NewRenderer(command.OutOrStdout()),
		Clock:                application.clock,
	})
}

func newHistoryQuerier(backend string, gitExecutor history.GitExecutor) (history.Querier, error) {
	if strings.EqualFold(strings.TrimSpace(backend), historyBackendLibraryConstant) {
		return history.NewLibraryQuerier(), nil
	}
	return history.NewCLIQuerier(gitExecutor)
}

func (application *Application) resolveRootDirectory(configuredFolder string) (string, error) {
	trimmedFolder := strings.TrimSpace(configuredFolder)
	if len(trimmedFolder) == 0 {
		return application.workingDirectoryProvider()
	}
	return application.homeExpander.Expand(trimmedFolder)
}

func flagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{command.Flags(), command.PersistentFlags()}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}

func resolveBuildVersion(context.Context) string {
	buildInformation, available := debug.ReadBuildInfo()
	if !available {
		return developmentVersionConstant
	}
	mainVersion := strings.TrimSpace(buildInformation.Main.Version)
	if len(mainVersion) == 0 || mainVersion == buildInfoDevelopmentVersionConstant {
		return developmentVersionConstant
	}
	return mainVersion
}
