package standup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/standup/internal/history"
	"github.com/temirov/standup/internal/report"
)

const (
	identityResolverMissingMessageConstant     = "identity resolver not configured"
	repositoryDiscovererMissingMessageConstant = "repository discoverer not configured"
	dayReportBuilderMissingMessageConstant     = "day report builder not configured"
	dayRendererMissingMessageConstant          = "day renderer not configured"
	negativeDaysMessageConstant                = "days must not be negative"
	negativeDaysTemplateConstant               = "%w: %d"
	renderFailureTemplateConstant              = "render report for %s: %w"
	identityResolvedLogMessageConstant         = "Resolved commit author"
	repositoriesDiscoveredLogMessageConstant   = "Discovered repositories"
	dayBuiltLogMessageConstant                 = "Built day report"
	logFieldAuthorConstant                     = "author"
	logFieldRootConstant                       = "root"
	logFieldRepositoryCountConstant            = "repository_count"
	logFieldDayOffsetConstant                  = "day_offset"
	logFieldEmptyConstant                      = "empty"
)

var (
	// ErrIdentityResolverNotConfigured indicates a missing identity resolver.
	ErrIdentityResolverNotConfigured = errors.New(identityResolverMissingMessageConstant)
	// ErrRepositoryDiscovererNotConfigured indicates a missing repository discoverer.
	ErrRepositoryDiscovererNotConfigured = errors.New(repositoryDiscovererMissingMessageConstant)
	// ErrDayReportBuilderNotConfigured indicates a missing day report builder.
	ErrDayReportBuilderNotConfigured = errors.New(dayReportBuilderMissingMessageConstant)
	// ErrDayRendererNotConfigured indicates a missing renderer.
	ErrDayRendererNotConfigured = errors.New(dayRendererMissingMessageConstant)
	// ErrNegativeDays indicates Options.Days was below zero.
	ErrNegativeDays = errors.New(negativeDaysMessageConstant)
)

// IdentityResolver provides the commit author.
type IdentityResolver interface {
	ResolveIdentity(executionContext context.Context) (string, error)
}

// RepositoryDiscoverer finds repository roots beneath a directory.
type RepositoryDiscoverer interface {
	DiscoverRepositories(root string, maxDepth int, excludePatterns []string) ([]string, error)
}

// DayReportBuilder builds one day's report.
type DayReportBuilder interface {
	BuildDay(executionContext context.Context, window history.DayWindow, repositories []string, author string) report.DayReport
}

// DayRenderer writes report blocks.
type DayRenderer interface {
	RenderHeader(window history.DayWindow) error
	RenderDay(dayReport report.DayReport) error
	RenderSeparator() error
}

// Clock supplies the reference instant for day windows.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Dependencies wires the collaborators a Service needs.
type Dependencies struct {
	Logger               *zap.Logger
	IdentityResolver     IdentityResolver
	RepositoryDiscoverer RepositoryDiscoverer
	DayReportBuilder     DayReportBuilder
	DayRenderer          DayRenderer
	Clock                Clock
}

// Options configures a single run.
type Options struct {
	Days            int
	RootDirectory   string
	Depth           int
	ExcludePatterns []string
}

// Service produces the standup report.
type Service struct {
	logger               *zap.Logger
	identityResolver     IdentityResolver
	repositoryDiscoverer RepositoryDiscoverer
	dayReportBuilder     DayReportBuilder
	dayRenderer          DayRenderer
	clock                Clock
}

// NewService validates dependencies and constructs a Service. A nil logger
// discards logs and a nil clock reads the system clock.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.IdentityResolver == nil {
		return nil, ErrIdentityResolverNotConfigured
	}
	if dependencies.RepositoryDiscoverer == nil {
		return nil, ErrRepositoryDiscovererNotConfigured
	}
	if dependencies.DayReportBuilder == nil {
		return nil, ErrDayReportBuilderNotConfigured
	}
	if dependencies.DayRenderer == nil {
		return nil, ErrDayRendererNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	return &Service{
		logger:               logger,
		identityResolver:     dependencies.IdentityResolver,
		repositoryDiscoverer: dependencies.RepositoryDiscoverer,
		dayReportBuilder:     dependencies.DayReportBuilder,
		dayRenderer:          dependencies.DayRenderer,
		clock:                clock,
	}, nil
}

// Run resolves the author, discovers repositories once and renders the days
// from today back to options.Days, all anchored to one reference instant.
func (service *Service) Run(executionContext context.Context, options Options) error {
	if options.Days < 0 {
		return fmt.Errorf(negativeDaysTemplateConstant, ErrNegativeDays, options.Days)
	}

	author, identityError := service.identityResolver.ResolveIdentity(executionContext)
	if identityError != nil {
		return identityError
	}
	service.logger.Debug(identityResolvedLogMessageConstant, zap.String(logFieldAuthorConstant, author))

	repositories, discoveryError := service.repositoryDiscoverer.DiscoverRepositories(options.RootDirectory, options.Depth, options.ExcludePatterns)
	if discoveryError != nil {
		return discoveryError
	}
	service.logger.Info(repositoriesDiscoveredLogMessageConstant,
		zap.String(logFieldRootConstant, options.RootDirectory),
		zap.Int(logFieldRepositoryCountConstant, len(repositories)),
	)

	referenceInstant := service.clock.Now()
	for dayOffset := 0; dayOffset <= options.Days; dayOffset++ {
		window := history.NewDayWindow(referenceInstant, dayOffset)
		if renderError := service.renderDay(executionContext, window, repositories, author); renderError != nil {
			return fmt.Errorf(renderFailureTemplateConstant, window.Label(), renderError)
		}
	}

	return nil
}

func (service *Service) renderDay(executionContext context.Context, window history.DayWindow, repositories []string, author string) error {
	if headerError := service.dayRenderer.RenderHeader(window); headerError != nil {
		return headerError
	}

	dayReport := service.dayReportBuilder.BuildDay(executionContext, window, repositories, author)
	service.logger.Debug(dayBuiltLogMessageConstant,
		zap.Int(logFieldDayOffsetConstant, window.Offset),
		zap.Bool(logFieldEmptyConstant, dayReport.Empty()),
	)

	if dayError := service.dayRenderer.RenderDay(dayReport); dayError != nil {
		return dayError
	}
	return service.dayRenderer.RenderSeparator()
}
