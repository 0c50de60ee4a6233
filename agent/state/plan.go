package state

import (
	"strconv"
	"strings"
)

type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// Plan is a titled collection of ordered day entries. It persists across
// turns as "previous plan" context and is replaced wholesale when a new
// planning call succeeds.
type Plan struct {
	Title          string    `json:"title"`
	Days           []PlanDay `json:"days"`
	BudgetEstimate string    `json:"budget_estimate,omitempty"`
	Tips           []string  `json:"tips,omitempty"`
}

type PlanDay struct {
	Date       string         `json:"date"`
	City       string         `json:"city"`
	Activities []Activity     `json:"activities"`
	Weather    *WeatherReport `json:"weather,omitempty"`
	Risk       RiskTier       `json:"risk"`
	BackupPlan string         `json:"backup_plan,omitempty"`
}

type Activity struct {
	Time        string   `json:"time,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Cost        string   `json:"cost,omitempty"`
	Risk        RiskTier `json:"risk,omitempty"`
}

// WeatherReport is the uniform weather record: one day for one city.
// Degraded lookups fill Condition/Suggestion with placeholder text instead
// of failing.
type WeatherReport struct {
	City        string         `json:"city"`
	Temperature float64        `json:"temperature"`
	Condition   string         `json:"condition"`
	Humidity    string         `json:"humidity,omitempty"`
	WindPower   string         `json:"wind_power,omitempty"`
	Suggestion  string         `json:"suggestion,omitempty"`
	Raw         map[string]any `json:"raw,omitempty"`
}

// Keyword classes for weather-driven risk. High is checked first so that a
// downpour ("暴雨") never lands in the medium tier.
var (
	highRiskKeywords   = []string{"暴", "雪", "台风", "冰雹", "storm", "snow", "blizzard", "typhoon", "hail"}
	mediumRiskKeywords = []string{"雨", "rain", "shower", "drizzle"}
)

// DeriveRisk maps a weather condition text onto a risk tier. Deterministic
// and keyword-driven, never model-driven.
func DeriveRisk(condition string) RiskTier {
	text := strings.ToLower(condition)
	for _, kw := range highRiskKeywords {
		if strings.Contains(text, kw) {
			return RiskHigh
		}
	}
	for _, kw := range mediumRiskKeywords {
		if strings.Contains(text, kw) {
			return RiskMedium
		}
	}
	return RiskLow
}

// RemovePlaces drops every activity whose name matches one of the given
// places. Days left without activities are kept so the day count stays
// stable for weather alignment.
func (p *Plan) RemovePlaces(places []string) {
	if p == nil || len(places) == 0 {
		return
	}
	for i := range p.Days {
		kept := p.Days[i].Activities[:0]
		for _, act := range p.Days[i].Activities {
			matched := false
			for _, place := range places {
				if placesMatch(act.Name, place) {
					matched = true
					break
				}
			}
			if !matched {
				kept = append(kept, act)
			}
		}
		p.Days[i].Activities = kept
	}
}

// Brief is the compact render of a report, e.g. "小雨 16℃".
func (r WeatherReport) Brief() string {
	return strings.TrimSpace(r.Condition + " " + strconv.FormatFloat(r.Temperature, 'f', -1, 64) + "℃")
}

// ActivityNames returns the day's activity names, deduplicated in order.
func (d PlanDay) ActivityNames() []string {
	names := make([]string, 0, len(d.Activities))
	seen := make(map[string]struct{}, len(d.Activities))
	for _, a := range d.Activities {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
