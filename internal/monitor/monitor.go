package monitor

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rohmanhakim/event-scraper/internal/browser"
	"github.com/rohmanhakim/event-scraper/internal/errclass"
	"github.com/rohmanhakim/event-scraper/internal/metadata"
	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

/*
Responsibilities
- Probe each source's listing page for selector drift
- Score page health from 0 to 100
- Escalate alerts while a source keeps failing and resolve them on recovery

The monitor opens its own pages and never shares them with scrape runs.
Probes across sources are paced by one token bucket.
*/

type Monitor struct {
	browser      browser.Browser
	targets      map[string]Target
	order        []string
	param        Param
	limiter      *rate.Limiter
	classifier   *errclass.Classifier
	metadataSink metadata.MetadataSink
	now          func() time.Time

	mu       sync.RWMutex
	state    map[string]*sourceState
	alerts   []Alert
	alertSeq int

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewMonitor(
	b browser.Browser,
	targets []Target,
	param Param,
	metadataSink metadata.MetadataSink,
) *Monitor {
	limit := rate.Inf
	if param.ProbesPerSecond > 0 {
		limit = rate.Limit(param.ProbesPerSecond)
	}
	m := &Monitor{
		browser:      b,
		targets:      make(map[string]Target, len(targets)),
		param:        param,
		limiter:      rate.NewLimiter(limit, 1),
		classifier:   errclass.NewClassifier(),
		metadataSink: metadataSink,
		now:          time.Now,
		state:        make(map[string]*sourceState, len(targets)),
	}
	for _, t := range targets {
		if _, dup := m.targets[t.Source]; !dup {
			m.order = append(m.order, t.Source)
		}
		m.targets[t.Source] = t
		m.state[t.Source] = &sourceState{health: 100}
	}
	return m
}

func (m *Monitor) SetClock(now func() time.Time) {
	m.now = now
	m.classifier.SetClock(now)
}

// CheckScraperStructure probes one source and folds the result into its
// failure streak. Probe failures lower health; only cancellation and
// unknown sources are returned as errors.
func (m *Monitor) CheckScraperStructure(ctx context.Context, source string) (CheckResult, error) {
	target, ok := m.targets[source]
	if !ok {
		return CheckResult{}, &MonitorError{Message: source, Cause: ErrCauseUnknownSource}
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return CheckResult{}, &MonitorError{Message: source, Cause: ErrCauseCancelled, Err: err}
	}

	start := m.now()
	result := CheckResult{Source: source, URL: target.URL, CheckedAt: start}

	probeErr := m.probe(ctx, target, &result)
	if ctx.Err() != nil {
		return CheckResult{}, &MonitorError{Message: source, Cause: ErrCauseCancelled, Err: ctx.Err()}
	}
	if probeErr != nil {
		result.Error = probeErr.Error()
		classified := m.classifier.Categorize(probeErr)
		m.metadataSink.RecordError(
			m.now(),
			"monitor",
			"Monitor.CheckScraperStructure",
			classified.ErrorType(),
			probeErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, target.URL),
				metadata.NewAttr(metadata.AttrHTTPStatus, fmt.Sprintf("%d", result.Status)),
			},
		)
	}

	result.Health = CalculateOverallHealth(result.Selectors, result.Structure)
	result.Duration = m.now().Sub(start)
	result.AlertRaised = m.recordCheck(target, result)
	m.metadataSink.RecordHealth(source, result.Health)
	return result, nil
}

func (m *Monitor) probe(ctx context.Context, target Target, result *CheckResult) error {
	page, err := m.browser.NewPage(ctx)
	if err != nil {
		return err
	}
	defer page.Close()

	resp, err := page.Navigate(ctx, target.URL)
	if err != nil {
		return err
	}
	result.Status = resp.Status
	if resp.Status >= 400 {
		return &failure.HTTPError{URL: target.URL, Status: resp.Status, Retry: resp.RetryAfter}
	}

	if target.Container != "" {
		if _, err := page.WaitFor(ctx, target.Container, m.param.WaitTimeout); err != nil {
			return err
		}
		result.Selectors = append(result.Selectors, m.checkSelector(ctx, page, "container", []string{target.Container}))
	}

	fields := make([]string, 0, len(target.Fields))
	for f := range target.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		result.Selectors = append(result.Selectors, m.checkSelector(ctx, page, f, target.Fields[f]))
	}

	title, _ := page.Title(ctx)
	state, _ := page.ReadyState(ctx)
	result.Structure = StructureResult{
		HasTitle:           title != "",
		HasEventContainers: target.Container != "" && result.Selectors[0].Found,
		HasNavigation:      m.anyMatch(ctx, page, navigationSelectors),
		HasFooter:          m.anyMatch(ctx, page, footerSelectors),
		ReadyStateComplete: state == "complete",
	}
	return nil
}

func (m *Monitor) checkSelector(ctx context.Context, page browser.Page, field string, alternatives []string) SelectorResult {
	res := SelectorResult{Field: field}
	for _, sel := range alternatives {
		els, err := page.Query(ctx, sel)
		if err != nil || len(els) == 0 {
			continue
		}
		res.Found = true
		res.ElementCount = len(els)
		res.WorkingSelector = sel
		res.Health = 100
		break
	}
	return res
}

func (m *Monitor) anyMatch(ctx context.Context, page browser.Page, selectors []string) bool {
	for _, sel := range selectors {
		if els, err := page.Query(ctx, sel); err == nil && len(els) > 0 {
			return true
		}
	}
	return false
}

// CalculateOverallHealth weights the mean selector health at 70% and adds a
// bonus per structural signal present. The result is clamped to [0,100].
func CalculateOverallHealth(selectors []SelectorResult, structure StructureResult) float64 {
	avg := 0.0
	if len(selectors) > 0 {
		sum := 0.0
		for _, s := range selectors {
			sum += s.Health
		}
		avg = sum / float64(len(selectors))
	}

	score := avg * selectorWeight
	if structure.HasTitle {
		score += bonusTitle
	}
	if structure.HasEventContainers {
		score += bonusContainers
	}
	if structure.HasNavigation {
		score += bonusNavigation
	}
	if structure.HasFooter {
		score += bonusFooter
	}
	if structure.ReadyStateComplete {
		score += bonusReady
	}
	return math.Max(0, math.Min(100, score))
}

// AlertSeverityFor bands consecutive failed checks: one or two are medium,
// three or four high, five and more critical.
func AlertSeverityFor(consecutive int) AlertSeverity {
	switch {
	case consecutive >= 5:
		return SeverityCritical
	case consecutive >= 3:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

func (m *Monitor) recordCheck(target Target, result CheckResult) bool {
	m.mu.Lock()
	st := m.state[target.Source]
	st.health = result.Health
	st.lastCheck = result.CheckedAt
	if result.Health < m.param.DisableFloor {
		st.belowFloorStreak++
	} else {
		st.belowFloorStreak = 0
	}

	if result.Health >= m.param.FailThreshold {
		recovered := st.consecutive > 0
		st.consecutive = 0
		m.mu.Unlock()
		if recovered {
			m.ResolveAlerts(target.Source)
		}
		return false
	}

	st.consecutive++
	alert := m.generateAlert(target, result, st.consecutive)
	m.mu.Unlock()

	m.metadataSink.RecordEvent(metadata.EventAlertRaised, target.Source, []metadata.Attribute{
		metadata.NewAttr(metadata.AttrSeverity, string(alert.Severity)),
		metadata.NewAttr(metadata.AttrReason, alert.Message),
	})
	return true
}

// generateAlert raises or escalates the open alert for target. Callers hold mu.
func (m *Monitor) generateAlert(target Target, result CheckResult, consecutive int) Alert {
	var failed []string
	suggestions := make(map[string][]string)
	for _, s := range result.Selectors {
		if s.Found {
			continue
		}
		failed = append(failed, s.Field)
		configured := target.Fields[s.Field]
		if s.Field == "container" {
			configured = []string{target.Container}
		}
		if alts := SuggestAlternatives(target.Source, s.Field, configured); len(alts) > 0 {
			suggestions[s.Field] = alts
		}
	}

	msg := fmt.Sprintf("structure check for %s below threshold %d time(s) in a row: health %.0f", target.Source, consecutive, result.Health)
	if result.Error != "" {
		msg += ": " + result.Error
	}

	for i := range m.alerts {
		a := &m.alerts[i]
		if a.Source != target.Source || a.Resolved {
			continue
		}
		a.Severity = AlertSeverityFor(consecutive)
		a.Message = msg
		a.FailedFields = failed
		a.Suggestions = suggestions
		a.ConsecutiveFailures = consecutive
		a.Health = result.Health
		return *a
	}

	m.alertSeq++
	alert := Alert{
		ID:                  fmt.Sprintf("%s-%d", target.Source, m.alertSeq),
		Source:              target.Source,
		Severity:            AlertSeverityFor(consecutive),
		Message:             msg,
		FailedFields:        failed,
		Suggestions:         suggestions,
		ConsecutiveFailures: consecutive,
		Health:              result.Health,
		RaisedAt:            m.now(),
	}
	m.alerts = append(m.alerts, alert)
	return alert
}

// ResolveAlerts closes every open alert for source and returns how many.
func (m *Monitor) ResolveAlerts(source string) int {
	m.mu.Lock()
	now := m.now()
	n := 0
	for i := range m.alerts {
		a := &m.alerts[i]
		if a.Source != source || a.Resolved {
			continue
		}
		a.Resolved = true
		a.ResolvedAt = &now
		n++
	}
	m.mu.Unlock()

	if n > 0 {
		m.metadataSink.RecordEvent(metadata.EventAlertResolved, source, nil)
	}
	return n
}

// ShouldDisable reports whether source has stayed below the disable floor
// for DisableAfter consecutive checks.
func (m *Monitor) ShouldDisable(source string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.state[source]
	if !ok || m.param.DisableAfter <= 0 {
		return false
	}
	return st.belowFloorStreak >= m.param.DisableAfter
}

func (m *Monitor) GetHealthReport() HealthReport {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report := HealthReport{GeneratedAt: m.now(), Sources: []SourceHealth{}, Alerts: []Alert{}}
	for _, src := range m.order {
		st := m.state[src]
		report.Sources = append(report.Sources, SourceHealth{
			Source:              src,
			Health:              st.health,
			LastCheck:           st.lastCheck,
			ConsecutiveFailures: st.consecutive,
			BelowFloorStreak:    st.belowFloorStreak,
			Disabled:            m.param.DisableAfter > 0 && st.belowFloorStreak >= m.param.DisableAfter,
		})
	}
	for _, a := range m.alerts {
		if !a.Resolved {
			report.Alerts = append(report.Alerts, a)
		}
	}
	return report
}

// RunOnce checks every target in registration order.
func (m *Monitor) RunOnce(ctx context.Context) ([]CheckResult, error) {
	results := make([]CheckResult, 0, len(m.order))
	for _, src := range m.order {
		res, err := m.CheckScraperStructure(ctx, src)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Run checks all targets immediately and then every interval until ctx ends.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := m.RunOnce(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Start runs the monitor in the background until Stop or ctx ends.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		_ = m.Run(runCtx, interval)
	}(m.done)
}

// Stop cancels a running monitor and waits for its loop to exit.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
