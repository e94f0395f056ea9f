package service

import "errors"

// Domain errors. Handlers map these onto HTTP statuses with errors.Is; the
// unacknowledged-metrics and onboarding-incomplete messages are deliberately
// distinct so callers can tell them apart.
var (
	ErrSettingsNotFound      = errors.New("no profile settings found for user")
	ErrSnapshotNotFound      = errors.New("metrics snapshot not found for the given version and timestamp")
	ErrOnboardingIncomplete  = errors.New("onboarding must be completed before a plan can be generated")
	ErrMetricsUnacknowledged = errors.New("current metrics must be acknowledged before a plan can be generated")
	ErrMissingProfileFields  = errors.New("profile is missing fields required to compute metrics")
	ErrMetricsUnavailable    = errors.New("no metrics available: complete your profile to compute them")
	ErrInvalidProfileValue   = errors.New("invalid profile value")
)
