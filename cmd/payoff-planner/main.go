package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/iwvelando/payoff-planner/internal/config"
	"github.com/iwvelando/payoff-planner/internal/logging"
	"github.com/iwvelando/payoff-planner/internal/planner"
	"github.com/iwvelando/payoff-planner/internal/store"
	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/iwvelando/payoff-planner/pkg/output"
	"github.com/iwvelando/payoff-planner/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	strategyFlag := flag.String("strategy", "", "allocation strategy override: snowball, avalanche, custom")
	compare := flag.Bool("compare", false, "simulate every strategy and compare total interest")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if *strategyFlag != "" {
		conf.Plan.Strategy = *strategyFlag
	}

	// Validate configuration and display any warnings
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	balances, err := conf.Balances()
	if err != nil {
		logger.Fatal("failed to read debts",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	opts, err := conf.EngineOptions(time.Now())
	if err != nil {
		logger.Fatal("invalid plan settings",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	ctx := context.Background()
	backend, err := store.Open(ctx, conf.Store.Options())
	if err != nil {
		logger.Fatal("failed to open balance store",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer func() {
		_ = backend.Close()
	}()

	svc, err := planner.NewService(logger, backend.Repository, backend.Cache, opts, conf.Store.TTL)
	if err != nil {
		logger.Fatal("failed to initialize planner",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Record the configured balances so later runs and the server see them.
	ids := make([]string, 0, len(balances))
	for _, balance := range balances {
		if err := svc.SaveBalance(ctx, balance); err != nil {
			logger.Fatal("failed to store balance",
				zap.String("op", "main"),
				zap.String("debt", balance.ID),
				zap.Error(err),
			)
		}
		ids = append(ids, balance.ID)
	}

	req := planner.Request{
		DebtIDs:         ids,
		Strategy:        conf.Plan.Strategy,
		ExtraPayment:    conf.Plan.ExtraPayment,
		MaxSearchBudget: conf.Plan.MaxSearchBudget,
	}

	if *compare {
		comparison, err := svc.Compare(ctx, req)
		if err != nil {
			logger.Fatal("failed to compare strategies",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		writeComparison(logger, outputFormat, comparison)
		return
	}

	if conf.HasTarget() {
		req.TargetPayoffDate = conf.Plan.TargetPayoffDate.Format(constants.DateTimeLayout)
	}
	result, err := svc.Plan(ctx, req)
	if err != nil {
		if !errors.Is(err, debt.ErrTargetUnreachable) {
			logger.Fatal("failed to compute payoff plan",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		logger.Warn("target payoff date unreachable, showing the maximum budget plan",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	for _, warning := range result.Warnings {
		logger.Warn("Plan warning: "+warning,
			zap.String("op", "main"),
		)
	}
	writeResult(logger, outputFormat, conf.Output.ShowSchedule, result)
}

func writeResult(logger *zap.Logger, outputFormat string, showSchedule bool, result planner.Result) {
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyScenario(os.Stdout, result.Scenario, showSchedule)
		if result.Search != nil {
			output.PrettySummary(os.Stdout, *result.Search)
		}
	case constants.OutputFormatCSV:
		if err := output.CsvScenario(os.Stdout, result.Scenario); err != nil {
			logger.Error("failed to write CSV output",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}

func writeComparison(logger *zap.Logger, outputFormat string, comparison planner.Comparison) {
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyComparison(os.Stdout, comparison.Scenarios)
	case constants.OutputFormatCSV:
		for _, scenario := range comparison.Scenarios {
			fmt.Printf("# %s\n", scenario.StrategyUsed)
			if err := output.CsvScenario(os.Stdout, scenario); err != nil {
				logger.Error("failed to write CSV output",
					zap.String("op", "main"),
					zap.String("strategy", scenario.StrategyUsed),
					zap.Error(err),
				)
			}
		}
	}
}
