// In file: internal/tools/executor.go
package tools

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/dileep-u-k/agent-gateway/internal/audit"
	"github.com/dileep-u-k/agent-gateway/internal/metrics"
	"github.com/dileep-u-k/agent-gateway/internal/store"
)

// Opener connects to an external database for the duration of one call.
type Opener func(ctx context.Context, conn store.Connection) (store.RowStore, error)

// Scope is the caller context a tool call runs under.
type Scope struct {
	RequestID string
	UserID    string
	// Collections is the permitted set. Every collection a tool reads must
	// be in it.
	Collections []string
	// Tools restricts which tools may run. Nil allows any registered tool.
	Tools []string
}

// Permits reports whether collection is in the permitted set.
func (s Scope) Permits(collection string) bool {
	return slices.Contains(s.Collections, collection)
}

// Executor runs tool calls against the default store or an external
// database. Execute never returns an error: failures come back as an
// error-shaped Result.
type Executor struct {
	registry   *Registry
	store      store.RowStore
	open       Opener
	audit      audit.Recorder
	metrics    *metrics.Metrics
	logger     hclog.Logger
	now        func() time.Time
	ownerField string
}

// Option configures an Executor.
type Option func(*Executor)

// WithOpener replaces the external database opener.
func WithOpener(open Opener) Option { return func(e *Executor) { e.open = open } }

// WithAudit sets the audit sink.
func WithAudit(r audit.Recorder) Option { return func(e *Executor) { e.audit = r } }

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Metrics) Option { return func(e *Executor) { e.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option { return func(e *Executor) { e.logger = l } }

// WithClock sets the time source used to resolve relative periods.
func WithClock(now func() time.Time) Option { return func(e *Executor) { e.now = now } }

// WithOwnerField scopes every default-store read to rows whose field equals
// the caller's user id.
func WithOwnerField(field string) Option { return func(e *Executor) { e.ownerField = field } }

// NewExecutor creates an executor over the default store.
func NewExecutor(registry *Registry, defaultStore store.RowStore, opts ...Option) *Executor {
	e := &Executor{
		registry: registry,
		store:    defaultStore,
		open:     store.OpenExternal,
		audit:    audit.Nop{},
		logger:   hclog.NewNullLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one tool call. conn selects an external database; nil or a
// default-store connection uses the default store.
func (e *Executor) Execute(ctx context.Context, scope Scope, name string, args map[string]any, conn *store.Connection) Result {
	start := time.Now()
	res := e.execute(ctx, scope, name, args, conn)
	elapsed := time.Since(start)

	label := name
	if _, ok := e.registry.Lookup(Name(name)); !ok {
		label = "unsupported"
	}
	e.metrics.ObserveTool(label, res.OK(), elapsed)

	entry := audit.Entry{
		RequestID:    scope.RequestID,
		UserID:       scope.UserID,
		Tool:         name,
		InputSummary: summarizeInput(args),
		Success:      res.OK(),
		DurationMs:   elapsed.Milliseconds(),
		Timestamp:    e.now(),
	}
	if !res.OK() {
		entry.Error = res.Err.Error
		e.logger.Warn("tool failed", "tool", name, "request_id", scope.RequestID, "error", res.Err.Error)
	} else {
		e.logger.Debug("tool executed", "tool", name, "request_id", scope.RequestID, "duration", elapsed)
	}
	e.audit.Record(ctx, entry)
	return res
}

func (e *Executor) execute(ctx context.Context, scope Scope, name string, args map[string]any, conn *store.Connection) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("tool panicked", "tool", name, "panic", p)
			res = failure(name, args, fmt.Errorf("internal error: %v", p))
		}
	}()

	inv, err := Decode(name, args)
	if err != nil {
		return failure(name, args, err)
	}
	if scope.Tools != nil && !slices.Contains(scope.Tools, name) {
		return failure(name, args, fmt.Errorf("tool %q is not enabled for this agent", name))
	}

	s, err := e.session(ctx, scope, conn)
	if err != nil {
		return failure(name, args, err)
	}
	defer s.release()

	value, err := s.dispatch(inv)
	if err != nil {
		return failure(name, args, err)
	}
	if rows, ok := value.([]Row); ok {
		return Result{Rows: rows}
	}
	return Result{Value: value}
}

// session binds one call to its store.
type session struct {
	ctx      context.Context
	registry *Registry
	scope    Scope
	store    store.RowStore
	external bool
	owner    string
	now      time.Time
	release  func()
}

func (e *Executor) session(ctx context.Context, scope Scope, conn *store.Connection) (*session, error) {
	s := &session{ctx: ctx, registry: e.registry, scope: scope, store: e.store, now: e.now(), release: func() {}}
	if conn.IsDefault() {
		if e.store == nil {
			return nil, fmt.Errorf("no default data store configured")
		}
		s.owner = e.ownerField
		return s, nil
	}
	rs, err := e.open(ctx, *conn)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	s.store = rs
	s.external = true
	s.release = func() {
		if err := rs.Close(); err != nil {
			e.logger.Warn("failed to close external store", "type", conn.Type, "error", err)
		}
	}
	return s, nil
}

func (s *session) dispatch(inv Invocation) (any, error) {
	switch a := inv.(type) {
	case *QueryCollectionArgs:
		return s.queryCollection(a)
	case *AnalyzeDataArgs:
		return s.analyzeData(a)
	case *GetCollectionSchemaArgs:
		return s.collectionSchema(a)
	case *BudgetVsActualArgs:
		return s.budgetVsActual(a)
	case *CashFlowForecastArgs:
		return s.cashFlowForecast(a)
	case *RevenueTrendArgs:
		return s.revenueTrend(a)
	case *ExpenseCategorizationArgs:
		return s.expenseCategorization(a)
	case *PipelineHealthArgs:
		return s.pipelineHealth(a)
	case *WinRateArgs:
		return s.winRate(a)
	case *TeamCapacityArgs:
		return s.teamCapacity(a)
	case *DepartmentComparisonArgs:
		return s.departmentComparison(a)
	case *TrendForecastArgs:
		return s.trendForecast(a)
	case *IntegrationArgs:
		t, _ := s.registry.Lookup(a.Name)
		return nil, &NotConnectedError{Integration: t.Integration}
	}
	return nil, &UnsupportedToolError{Name: string(inv.Tool())}
}

// fetch reads a permitted collection, adding the owner predicate for the
// default store.
func (s *session) fetch(collection string, f store.Filters) ([]Row, error) {
	if !s.scope.Permits(collection) {
		return nil, &AccessDeniedError{Collection: collection}
	}
	if !s.external && s.owner != "" {
		f.Predicates = append(slices.Clone(f.Predicates), store.Predicate{Field: s.owner, Op: store.OpEqual, Value: s.scope.UserID})
	}
	rows, err := s.store.Query(s.ctx, collection, f)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

func (s *session) queryCollection(a *QueryCollectionArgs) ([]Row, error) {
	return s.fetch(a.Collection, buildFilters(a.Collection, a.Filters, !s.external))
}

// buildFilters normalizes query_collection filters into store predicates.
// withDefaultOrder sorts by the collection's date field, newest first, when
// no order is requested.
func buildFilters(collection string, qf QueryFilters, withDefaultOrder bool) store.Filters {
	var f store.Filters
	eq := func(field, v string) {
		if v != "" {
			f.Predicates = append(f.Predicates, store.Predicate{Field: field, Op: store.OpEqual, Value: v})
		}
	}

	if dr := qf.DateRange; dr != nil {
		field := dateField(collection)
		if dr.Start != "" {
			f.Predicates = append(f.Predicates, store.Predicate{Field: field, Op: store.OpGTE, Value: dr.Start})
		}
		if dr.End != "" {
			end := dr.End
			if len(end) == len("2006-01-02") {
				end += "T23:59:59Z"
			}
			f.Predicates = append(f.Predicates, store.Predicate{Field: field, Op: store.OpLTE, Value: end})
		}
	}
	eq("type", qf.Type)
	eq("category", qf.Category)
	eq("status", qf.Status)
	eq("department", qf.Department)
	if qf.MinAmount != nil {
		f.Predicates = append(f.Predicates, store.Predicate{Field: amountField(collection), Op: store.OpGTE, Value: *qf.MinAmount})
	}
	if qf.MaxAmount != nil {
		f.Predicates = append(f.Predicates, store.Predicate{Field: amountField(collection), Op: store.OpLTE, Value: *qf.MaxAmount})
	}

	switch qf.OrderBy {
	case "":
		if withDefaultOrder {
			f.OrderBy = &store.Order{Field: dateField(collection), Desc: true}
		}
	case "date":
		f.OrderBy = &store.Order{Field: dateField(collection), Desc: qf.OrderDirection != "asc"}
	case "amount", "value":
		f.OrderBy = &store.Order{Field: amountField(collection), Desc: qf.OrderDirection != "asc"}
	default:
		f.OrderBy = &store.Order{Field: qf.OrderBy, Desc: qf.OrderDirection != "asc"}
	}

	f.Limit = qf.Limit
	if f.Limit == 0 {
		f.Limit = defaultQueryLimit
	}
	f.Limit = min(f.Limit, maxQueryLimit)
	return f
}

func (s *session) analyzeData(a *AnalyzeDataArgs) (any, error) {
	rows := make([]Row, 0, len(a.Data))
	for _, d := range a.Data {
		rows = append(rows, Row(d))
	}
	if len(rows) == 0 {
		var err error
		rows, err = s.fetch(a.Collection, store.Filters{Limit: analysisFetchLimit})
		if err != nil {
			return nil, err
		}
	}
	metric := a.Metric
	if metric == "" && a.Collection != "" {
		metric = amountField(a.Collection)
	}
	return analyze(rows, a.AnalysisType, a.GroupBy, metric)
}

func (s *session) collectionSchema(a *GetCollectionSchemaArgs) (store.Schema, error) {
	if !s.scope.Permits(a.Collection) {
		return store.Schema{}, &AccessDeniedError{Collection: a.Collection}
	}
	if schema, ok := builtinSchemas[a.Collection]; ok && !s.external {
		return schema, nil
	}
	return s.store.Schema(s.ctx, a.Collection)
}

// summaryKeys are argument names whose values are safe to record.
var summaryKeys = map[string]bool{
	"collection": true, "analysisType": true, "groupBy": true, "metric": true,
	"period": true, "months": true, "periods": true, "method": true, "topN": true,
}

// summarizeInput describes a call's arguments for the audit log. Filter and
// free-form values are reduced to their names.
func summarizeInput(args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := args[k].(type) {
		case map[string]any:
			sub := make([]string, 0, len(v))
			for sk := range v {
				sub = append(sub, sk)
			}
			sort.Strings(sub)
			parts = append(parts, fmt.Sprintf("%s=[%s]", k, strings.Join(sub, ",")))
		case []any:
			parts = append(parts, fmt.Sprintf("%s=<%d items>", k, len(v)))
		default:
			if summaryKeys[k] {
				parts = append(parts, fmt.Sprintf("%s=%v", k, v))
			} else {
				parts = append(parts, k)
			}
		}
	}
	return strings.Join(parts, " ")
}
