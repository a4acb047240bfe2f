package testkit

import (
	"time"

	"eventcast/domain/core"
	"eventcast/domain/forecast"
)

// Indicator codes used by the Ethiopia fixture
const (
	MobileMoneyAccounts core.IndicatorCode = "MOBILE_MONEY_ACCTS_MN"
	BankAccounts        core.IndicatorCode = "BANK_ACCTS_MN"
	MobileMoneyActive   core.IndicatorCode = "MOBILE_MONEY_ACTIVATION_PCT"
)

// Event ids used by the Ethiopia fixture
const (
	EventDigitalPaymentsStrategy core.EventID = "106"
	EventMobileMoneyLicensing    core.EventID = "107"
	EventBridge2030              core.EventID = "108"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := core.Date(y, m, d)
	return &t
}

// EthiopiaTables returns the financial inclusion enrichment: account counts
// from the NBE annual report, three policy events and the links tying them
// to the account indicators. Links carry no magnitude or lag, so they
// exercise the defaults.
func EthiopiaTables() *forecast.Tables {
	return &forecast.Tables{
		Observations: []forecast.Observation{
			{IndicatorCode: MobileMoneyAccounts, Date: core.Date(2020, time.December, 31), Value: 12.2},
			{IndicatorCode: MobileMoneyAccounts, Date: core.Date(2025, time.December, 31), Value: 139.5},
			{IndicatorCode: BankAccounts, Date: core.Date(2020, time.December, 31), Value: 9.1},
			{IndicatorCode: BankAccounts, Date: core.Date(2025, time.December, 31), Value: 54.0},
			{IndicatorCode: MobileMoneyActive, Date: core.Date(2024, time.December, 31), Value: 15.0},
		},
		Events: []forecast.Event{
			{ID: EventDigitalPaymentsStrategy, Category: "policy_launch", PeriodStart: datePtr(2021, time.January, 1), Confidence: forecast.ConfidenceHigh},
			{ID: EventMobileMoneyLicensing, Category: "policy_launch", PeriodStart: datePtr(2020, time.June, 1), Confidence: forecast.ConfidenceHigh},
			{ID: EventBridge2030, Category: "policy_launch", PeriodStart: datePtr(2026, time.January, 1), Confidence: forecast.ConfidenceHigh},
		},
		ImpactLinks: []forecast.ImpactLink{
			{ID: "109", ParentEventID: EventMobileMoneyLicensing, RelatedIndicator: MobileMoneyAccounts, Direction: forecast.DirectionPositive, Magnitude: forecast.MissingMagnitude()},
			{ID: "110", ParentEventID: EventDigitalPaymentsStrategy, RelatedIndicator: MobileMoneyAccounts, Direction: forecast.DirectionPositive, Magnitude: forecast.MissingMagnitude()},
			{ID: "111", ParentEventID: EventDigitalPaymentsStrategy, RelatedIndicator: BankAccounts, Direction: forecast.DirectionPositive, Magnitude: forecast.MissingMagnitude()},
		},
	}
}
