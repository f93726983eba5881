package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/payoff-planner/internal/config"
	"github.com/iwvelando/payoff-planner/internal/planner"
	"github.com/iwvelando/payoff-planner/internal/store"
	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/datetime"
	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/iwvelando/payoff-planner/pkg/optimization"
	"github.com/iwvelando/payoff-planner/pkg/output"
	"github.com/iwvelando/payoff-planner/pkg/strategy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const debtsPath = "/api/debts/"

type handler struct {
	logger      *zap.Logger
	planner     *planner.Service
	maxBodySize int64
	version     string
	now         func() time.Time
}

// NewHandler constructs the HTTP handler that serves the payoff planning API.
func NewHandler(logger *zap.Logger, svc *planner.Service, maxBodySize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, planner: svc, maxBodySize: maxBodySize, version: trimmedVersion, now: time.Now}

	mux := http.NewServeMux()

	// Multi-debt simulation and target payoff search
	mux.HandleFunc("/api/scenario", h.handleScenario)

	// Strategy comparison
	mux.HandleFunc("/api/compare", h.handleCompare)

	// Single-debt calculations
	mux.HandleFunc("/api/projection", h.handleProjection)
	mux.HandleFunc("/api/savings", h.handleSavings)
	mux.HandleFunc("/api/minimum-payment", h.handleMinimumPayment)

	// Stored balances
	mux.HandleFunc("/api/debts", h.handleDebtList)
	mux.HandleFunc(debtsPath, h.handleDebt)

	// Plan from an uploaded configuration file
	mux.HandleFunc("/api/config/plan", h.handleConfigPlan)

	// Version endpoint for client metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

type scenarioResponse struct {
	Result   planner.Result `json:"result"`
	CSV      string         `json:"csv,omitempty"`
	Duration string         `json:"duration"`
}

type projectionRequest struct {
	planner.DebtRequest
	Payment decimal.Decimal `json:"payment"`
}

type savingsRequest struct {
	planner.DebtRequest
	BaselinePayment decimal.Decimal `json:"baselinePayment"`
	ExtraPayment    decimal.Decimal `json:"extraPayment"`
}

type minimumPaymentResponse struct {
	DebtID         string          `json:"debtId,omitempty"`
	MinimumPayment decimal.Decimal `json:"minimumPayment"`
}

type errorResponse struct {
	Error          string                `json:"error"`
	DebtIDs        []string              `json:"debtIds,omitempty"`
	BestPayoffDate string                `json:"bestPayoffDate,omitempty"`
	Search         *optimization.Summary `json:"search,omitempty"`
}

func (h *handler) handleScenario(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleScenario"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := h.now()
	var req planner.Request
	if !h.decode(w, r, &req, op) {
		return
	}

	result, err := h.planner.Plan(r.Context(), req)
	if err != nil {
		h.respondPlanError(w, err, result, op)
		return
	}
	h.respondScenario(w, result, start, op)
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req planner.Request
	if !h.decode(w, r, &req, op) {
		return
	}

	comparison, err := h.planner.Compare(r.Context(), req)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, comparison)
}

func (h *handler) handleProjection(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProjection"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req projectionRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	projection, err := h.planner.Project(r.Context(), req.DebtRequest, req.Payment)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, projection)
}

func (h *handler) handleSavings(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSavings"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req savingsRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	comparison, err := h.planner.Savings(r.Context(), req.DebtRequest, req.BaselinePayment, req.ExtraPayment)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, comparison)
}

func (h *handler) handleMinimumPayment(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleMinimumPayment"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req planner.DebtRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	minimum, err := h.planner.MinimumPayment(r.Context(), req)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}

	id := req.DebtID
	if req.Balance != nil {
		id = req.Balance.ID
	}
	h.writeJSON(w, http.StatusOK, minimumPaymentResponse{DebtID: id, MinimumPayment: minimum})
}

func (h *handler) handleDebtList(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDebtList"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	balances, err := h.planner.ListBalances(r.Context())
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}
	if balances == nil {
		balances = []debt.Balance{}
	}
	h.writeJSON(w, http.StatusOK, map[string][]debt.Balance{"debts": balances})
}

// handleDebt serves PUT /api/debts/{id} and GET /api/debts/export.
func (h *handler) handleDebt(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDebt"
	id := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, debtsPath))

	if id == "export" && r.Method == http.MethodGet {
		h.handleDebtExport(w, r)
		return
	}
	if r.Method != http.MethodPut {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if id == "" || strings.Contains(id, "/") {
		h.respondErrorWithOp(w, http.StatusBadRequest, "a single debt id is required in the path", op)
		return
	}

	var balance debt.Balance
	if !h.decode(w, r, &balance, op) {
		return
	}
	if balance.ID != "" && balance.ID != id {
		h.respondErrorWithOp(w, http.StatusBadRequest,
			fmt.Sprintf("debt id %q does not match path id %q", balance.ID, id), op)
		return
	}
	balance.ID = id
	if err := balance.Validate(); err != nil {
		h.respondCalculationError(w, err, op)
		return
	}

	if err := h.planner.SaveBalance(r.Context(), balance); err != nil {
		h.respondCalculationError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, balance)
}

// handleDebtExport renders the stored balances as the debts section of a
// configuration file.
func (h *handler) handleDebtExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDebtExport"
	balances, err := h.planner.ListBalances(r.Context())
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}

	document := struct {
		Debts []config.DebtConfig `yaml:"debts"`
	}{Debts: make([]config.DebtConfig, 0, len(balances))}
	for _, balance := range balances {
		document.Debts = append(document.Debts, config.FromBalance(balance))
	}

	yamlBytes, err := yaml.Marshal(document)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode debts: %v", err), op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

// handleConfigPlan runs the plan described by an uploaded configuration file
// using that file's own engine settings.
func (h *handler) handleConfigPlan(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigPlan"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := h.now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := r.ParseMultipartForm(h.maxBodySize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxBodySize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(&buf)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	balances, err := cfg.Balances()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	opts, err := cfg.EngineOptions(h.now())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	svc, err := planner.NewService(h.logger, store.NewMemoryRepository(), nil, opts, 0)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	req := planner.Request{
		Balances:        balances,
		Strategy:        cfg.Plan.Strategy,
		ExtraPayment:    cfg.Plan.ExtraPayment,
		MaxSearchBudget: cfg.Plan.MaxSearchBudget,
	}
	if cfg.HasTarget() {
		req.TargetPayoffDate = cfg.Plan.TargetPayoffDate.Format(constants.DateTimeLayout)
	}

	result, err := svc.Plan(r.Context(), req)
	if err != nil {
		h.respondPlanError(w, err, result, op)
		return
	}
	result.Warnings = mergeWarnings(cfg.ValidateConfiguration(), result.Warnings)
	h.respondScenario(w, result, start, op)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) respondScenario(w http.ResponseWriter, result planner.Result, start time.Time, op string) {
	csv, err := output.ScenarioCSV(result.Scenario)
	if err != nil {
		h.logger.Warn("failed to render scenario CSV",
			zap.String("op", op),
			zap.Error(err),
		)
	}

	elapsed := h.now().Sub(start)
	h.logger.Info("payoff scenario computed",
		zap.String("op", op),
		zap.String("scenario", result.Scenario.ID),
		zap.String("strategy", result.Scenario.StrategyUsed),
		zap.Bool("cached", result.Cached),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, scenarioResponse{
		Result:   result,
		CSV:      csv,
		Duration: elapsed.String(),
	})
}

// decode reads a JSON request body. It reports false after responding when
// the body cannot be decoded.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, out interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

// respondPlanError adds the best achievable payoff date and the search
// summary when a target date could not be met.
func (h *handler) respondPlanError(w http.ResponseWriter, err error, result planner.Result, op string) {
	var unreachable *debt.TargetUnreachableError
	if !errors.As(err, &unreachable) {
		h.respondCalculationError(w, err, op)
		return
	}

	h.logger.Info("target payoff date unreachable",
		zap.String("op", op),
		zap.String("target", unreachable.Target.Format(constants.DateTimeLayout)),
		zap.String("bestPayoffDate", datetime.FormatMonth(unreachable.BestPayoffDate)),
	)
	resp := errorResponse{Error: err.Error(), Search: result.Search}
	if unreachable.BestPayoffDate != nil {
		resp.BestPayoffDate = unreachable.BestPayoffDate.Format(constants.DateTimeLayout)
	}
	h.writeJSON(w, http.StatusUnprocessableEntity, resp)
}

func (h *handler) respondCalculationError(w http.ResponseWriter, err error, op string) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error(), DebtIDs: debtIDs(err)}

	if status >= http.StatusInternalServerError {
		h.logger.Error("payoff request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.Error(err),
		)
	} else {
		h.logger.Info("payoff request rejected",
			zap.String("op", op),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	h.writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, debt.ErrInvalidPayment), errors.Is(err, strategy.ErrUnknownStrategy):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, debt.ErrNonAmortizingPayment), errors.Is(err, debt.ErrUnaffordableDebt),
		errors.Is(err, debt.ErrTargetUnreachable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func debtIDs(err error) []string {
	var invalid *debt.InvalidPaymentError
	var nonAmortizing *debt.NonAmortizingPaymentError
	var unaffordable *debt.UnaffordableDebtError
	var notFound *store.NotFoundError
	switch {
	case errors.As(err, &invalid):
		return invalid.DebtIDs
	case errors.As(err, &nonAmortizing):
		return nonAmortizing.DebtIDs
	case errors.As(err, &unaffordable):
		return []string{unaffordable.DebtID}
	case errors.As(err, &notFound):
		return notFound.IDs
	default:
		return nil
	}
}

func mergeWarnings(sets ...[]string) []string {
	seen := make(map[string]struct{})
	var merged []string
	for _, set := range sets {
		for _, warning := range set {
			trimmed := strings.TrimSpace(warning)
			if trimmed == "" {
				continue
			}
			if _, ok := seen[trimmed]; ok {
				continue
			}
			seen[trimmed] = struct{}{}
			merged = append(merged, trimmed)
		}
	}
	return merged
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("payoff request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
