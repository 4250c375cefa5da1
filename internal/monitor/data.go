package monitor

import "time"

// Target is what the monitor probes for one source.
type Target struct {
	Source    string
	URL       string
	Container string
	// Fields maps a field name to alternative selectors, tried in order.
	Fields map[string][]string
}

type SelectorResult struct {
	Field           string  `json:"field"`
	Found           bool    `json:"found"`
	ElementCount    int     `json:"elementCount"`
	WorkingSelector string  `json:"workingSelector,omitempty"`
	Health          float64 `json:"health"`
}

type StructureResult struct {
	HasTitle           bool `json:"hasTitle"`
	HasEventContainers bool `json:"hasEventContainers"`
	HasNavigation      bool `json:"hasNavigation"`
	HasFooter          bool `json:"hasFooter"`
	ReadyStateComplete bool `json:"readyStateComplete"`
}

type CheckResult struct {
	Source      string           `json:"source"`
	URL         string           `json:"url"`
	CheckedAt   time.Time        `json:"checkedAt"`
	Status      int              `json:"status"`
	Selectors   []SelectorResult `json:"selectors"`
	Structure   StructureResult  `json:"structure"`
	Health      float64          `json:"health"`
	Error       string           `json:"error,omitempty"`
	Duration    time.Duration    `json:"duration"`
	AlertRaised bool             `json:"alertRaised"`
}

type AlertSeverity string

const (
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

type Alert struct {
	ID                  string              `json:"id"`
	Source              string              `json:"source"`
	Severity            AlertSeverity       `json:"severity"`
	Message             string              `json:"message"`
	FailedFields        []string            `json:"failedFields"`
	Suggestions         map[string][]string `json:"suggestions,omitempty"`
	ConsecutiveFailures int                 `json:"consecutiveFailures"`
	Health              float64             `json:"health"`
	RaisedAt            time.Time           `json:"raisedAt"`
	Resolved            bool                `json:"resolved"`
	ResolvedAt          *time.Time          `json:"resolvedAt,omitempty"`
}

type SourceHealth struct {
	Source              string    `json:"source"`
	Health              float64   `json:"health"`
	LastCheck           time.Time `json:"lastCheck"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	BelowFloorStreak    int       `json:"belowFloorStreak"`
	Disabled            bool      `json:"disabled"`
}

type HealthReport struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Sources     []SourceHealth `json:"sources"`
	Alerts      []Alert        `json:"alerts"`
}

// Param tunes alerting and pacing. A check whose health is below
// FailThreshold counts as a consecutive failure.
type Param struct {
	FailThreshold   float64
	DisableFloor    float64
	DisableAfter    int
	WaitTimeout     time.Duration
	ProbesPerSecond float64
}

func DefaultParam() Param {
	return Param{
		FailThreshold:   70,
		DisableFloor:    30,
		DisableAfter:    3,
		WaitTimeout:     10 * time.Second,
		ProbesPerSecond: 0.2,
	}
}

type sourceState struct {
	health           float64
	lastCheck        time.Time
	consecutive      int
	belowFloorStreak int
}

const (
	selectorWeight = 0.7

	bonusTitle      = 5.0
	bonusContainers = 10.0
	bonusNavigation = 5.0
	bonusFooter     = 5.0
	bonusReady      = 5.0
)

var (
	navigationSelectors = []string{"nav", "[role=navigation]", "header"}
	footerSelectors     = []string{"footer", "[role=contentinfo]"}
)
