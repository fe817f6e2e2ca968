// Package logging implements the severity/destination/audit-retention
// log router described in spec.md component C: messages and audit
// events are routed to one or more named destinations by a LOGSET.SEVSET
// key, grounded throughout on original_source/src/log.c.
package logging

import (
	"strings"

	"github.com/pkg/errors"
)

// Severity is one of the nine log severities, ordered exactly as
// log_severity_names in log.c.
type Severity int

const (
	SeverityReplay Severity = iota
	SeverityDebug
	SeverityCommand
	SeverityInfo
	SeverityOverride
	SeverityStaff
	SeverityWarning
	SeverityError
	SeverityFatal
	numSeverities
)

var severityNames = [...]string{
	"replay",
	"debug",
	"command",
	"info",
	"override",
	"staff",
	"warning",
	"error",
	"fatal",
}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// IsAuditSeverity reports whether sev is one log_audit accepts; the
// others are log_module-only.
func (s Severity) IsAuditSeverity() bool {
	return s == SeverityCommand || s == SeverityOverride || s == SeverityStaff
}

// ParseSeverity matches text against a severity name by prefix, the way
// find_severity does: text must begin with the full name (so "inf" does
// not match "info", but "information" would).
func ParseSeverity(text string) (Severity, bool) {
	for i, name := range severityNames {
		if len(text) >= len(name) && strings.EqualFold(text[:len(name)], name) {
			return Severity(i), true
		}
	}
	return 0, false
}

// SeverityMask records which severities a LOGSET.SEVSET key selects.
type SeverityMask [int(numSeverities)]bool

// ParseSeverityMask parses a comma-separated SEVSET token list
// ("*", "<warning", ">=override", "info,error", ...), matching
// log_parse_sevset. Replay is never included by a range or "*" form,
// only by an exact literal or a ">=" form whose bound is replay itself
// (">replay" starts past replay and leaves it out), mirroring "make
// people explicitly specify replay targets".
func ParseSeverityMask(spec string) (SeverityMask, error) {
	var mask SeverityMask
	for _, tok := range strings.Split(spec, ",") {
		if tok == "" {
			continue
		}
		switch {
		case tok == "*":
			for s := Severity(0); s < numSeverities; s++ {
				if s != SeverityReplay {
					mask[s] = true
				}
			}
		case strings.HasPrefix(tok, "<="):
			sev, ok := ParseSeverity(tok[2:])
			if !ok {
				return mask, errors.Errorf("logging: invalid severity %q", tok[2:])
			}
			applyDownward(&mask, sev+1)
		case strings.HasPrefix(tok, "<"):
			sev, ok := ParseSeverity(tok[1:])
			if !ok {
				return mask, errors.Errorf("logging: invalid severity %q", tok[1:])
			}
			applyDownward(&mask, sev)
		case strings.HasPrefix(tok, ">="):
			sev, ok := ParseSeverity(tok[2:])
			if !ok {
				return mask, errors.Errorf("logging: invalid severity %q", tok[2:])
			}
			applyUpward(&mask, sev)
		case strings.HasPrefix(tok, ">"):
			sev, ok := ParseSeverity(tok[1:])
			if !ok {
				return mask, errors.Errorf("logging: invalid severity %q", tok[1:])
			}
			applyUpward(&mask, sev+1)
		default:
			lit := strings.TrimPrefix(tok, "=")
			sev, ok := ParseSeverity(lit)
			if !ok {
				return mask, errors.Errorf("logging: invalid severity %q", lit)
			}
			mask[sev] = true
		}
	}
	return mask, nil
}

func applyDownward(mask *SeverityMask, bound Severity) {
	first := true
	for b := bound; b > 0; b-- {
		if b != SeverityReplay || first {
			mask[b] = true
		}
		first = false
	}
}

func applyUpward(mask *SeverityMask, bound Severity) {
	first := true
	for b := bound; b < numSeverities; b++ {
		if b != SeverityReplay || first {
			mask[b] = true
		}
		first = false
	}
}
