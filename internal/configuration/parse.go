package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/markusressel/fancontrol/internal/util"
)

// LoadFile reads a board configuration document, applies the built-in
// defaults for absent keys and validates the result. Any malformed line,
// unknown key or invariant violation is a hard error, the previous
// configuration is never silently repaired.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open board config: %s: %w", path, err)
	}
	return Parse(string(data))
}

// Parse parses and validates a board configuration document.
func Parse(text string) (*Config, error) {
	spec := Spec()

	plain := map[string]string{}
	type sourceLine struct {
		id  string
		rhs string
	}
	var sources []sourceLine

	for lineNo, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(stripInlineComment(rawLine))
		if len(line) <= 0 {
			continue
		}

		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return nil, fmt.Errorf("invalid config line %d: missing '='", lineNo+1)
		}

		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])

		if strings.HasPrefix(key, "SOURCE_") && len(key) > len("SOURCE_") {
			sources = append(sources, sourceLine{id: key[len("SOURCE_"):], rhs: value})
			continue
		}

		if !isKnownTopLevelKey(key) {
			return nil, fmt.Errorf("unknown top-level key at line %d: %s", lineNo+1, key)
		}
		if _, seen := plain[key]; seen {
			return nil, fmt.Errorf("duplicate top-level key at line %d: %s", lineNo+1, key)
		}
		plain[key] = value
	}

	cfg := Default()
	cfg.Sources = nil

	intKeys := []struct {
		field IntField
		dst   *int
	}{
		{spec.Interval, &cfg.IntervalSec},
		{spec.PwmMin, &cfg.PwmMin},
		{spec.PwmMax, &cfg.PwmMax},
		{spec.PwmStartup, &cfg.PwmStartup},
		{spec.RampUp, &cfg.RampUp},
		{spec.RampDown, &cfg.RampDown},
		{spec.Hysteresis, &cfg.HysteresisMilliC},
		{spec.FailsafePwm, &cfg.FailsafePwm},
	}
	for _, entry := range intKeys {
		if value, ok := plain[entry.field.Key]; ok {
			parsed, err := parseInt(value, entry.field.Key)
			if err != nil {
				return nil, err
			}
			*entry.dst = parsed
		}
	}

	if value, ok := plain[spec.ControlMode.Key]; ok {
		cfg.ControlMode = ControlMode(value)
	}
	if value, ok := plain[spec.PwmInverted.Key]; ok {
		parsed, err := parseBool(value, spec.PwmInverted.Key)
		if err != nil {
			return nil, err
		}
		cfg.PwmInverted = parsed
	}
	if value, ok := plain[spec.PwmPath.Key]; ok {
		cfg.PwmPath = value
	}
	if value, ok := plain[spec.PwmEnablePath.Key]; ok {
		cfg.PwmEnablePath = value
	}
	if value, ok := plain[spec.ControlModePath.Key]; ok {
		cfg.ControlModePath = value
	}

	for _, src := range sources {
		parsed, err := parseSourceLine(src.id, src.rhs, cfg.IntervalSec)
		if err != nil {
			return nil, err
		}
		cfg.Sources = append(cfg.Sources, parsed)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isKnownTopLevelKey(key string) bool {
	spec := Spec()
	switch key {
	case spec.Interval.Key,
		spec.ControlMode.Key,
		spec.PwmPath.Key,
		spec.PwmEnablePath.Key,
		spec.ControlModePath.Key,
		spec.PwmMin.Key,
		spec.PwmMax.Key,
		spec.PwmInverted.Key,
		spec.PwmStartup.Key,
		spec.RampUp.Key,
		spec.RampDown.Key,
		spec.Hysteresis.Key,
		spec.FailsafePwm.Key:
		return true
	}
	return false
}

func parseInt(in string, name string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(in))
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %s", name, in)
	}
	return value, nil
}

func parseBool(in string, name string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(in)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean for %s: %s", name, in)
}

// stripInlineComment removes a trailing '#' comment. A '#' inside a quoted
// string or inside balanced {} / [] (JSON args values) is not a comment.
func stripInlineComment(line string) string {
	var out strings.Builder
	out.Grow(len(line))

	braceDepth := 0
	bracketDepth := 0
	inQuote := false
	escape := false
	var quote byte

	for i := 0; i < len(line); i++ {
		ch := line[i]

		if inQuote {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == quote {
				inQuote = false
			}
			continue
		}

		switch ch {
		case '"', '\'':
			inQuote = true
			quote = ch
			out.WriteByte(ch)
			continue
		case '{':
			braceDepth++
		case '}':
			if braceDepth > 0 {
				braceDepth--
			}
		case '[':
			bracketDepth++
		case ']':
			if bracketDepth > 0 {
				bracketDepth--
			}
		}

		if ch == '#' && braceDepth == 0 && bracketDepth == 0 {
			break
		}

		out.WriteByte(ch)
	}

	return out.String()
}

// splitFieldList splits a "key=value,key=value" list on commas, keeping
// commas inside quoted strings and balanced {} / [] intact so embedded JSON
// like args={"a":1,"b":2} survives.
func splitFieldList(value string) (map[string]string, error) {
	var tokens []string
	var current strings.Builder

	braceDepth := 0
	bracketDepth := 0
	inQuote := false
	escape := false
	var quote byte

	for i := 0; i < len(value); i++ {
		ch := value[i]

		if inQuote {
			current.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == quote {
				inQuote = false
			}
			continue
		}

		switch ch {
		case '"', '\'':
			inQuote = true
			quote = ch
			current.WriteByte(ch)
			continue
		case '{':
			braceDepth++
		case '}':
			if braceDepth > 0 {
				braceDepth--
			}
		case '[':
			bracketDepth++
		case ']':
			if bracketDepth > 0 {
				bracketDepth--
			}
		}

		if ch == ',' && braceDepth == 0 && bracketDepth == 0 {
			tokens = append(tokens, current.String())
			current.Reset()
			continue
		}

		current.WriteByte(ch)
	}
	tokens = append(tokens, current.String())

	fields := map[string]string{}
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if len(token) <= 0 {
			continue
		}

		eq := strings.IndexByte(token, '=')
		if eq <= 0 || eq+1 >= len(token) {
			return nil, fmt.Errorf("bad source token: %s", token)
		}
		key := strings.TrimSpace(token[:eq])
		val := strings.TrimSpace(token[eq+1:])
		if len(key) <= 0 {
			return nil, fmt.Errorf("bad source token: %s", token)
		}

		if _, seen := fields[key]; seen {
			return nil, fmt.Errorf("duplicate source field: %s", key)
		}
		fields[key] = val
	}

	return fields, nil
}

func isAllowedSourceField(sourceType SourceType, field string) bool {
	switch field {
	case "type", "t_start", "t_full", "t_crit", "ttl", "poll", "weight":
		return true
	}
	switch sourceType {
	case SourceTypeSysfs:
		return field == "path"
	case SourceTypeUbus:
		return field == "object" || field == "method" || field == "key" || field == "args"
	}
	return false
}

func parseSourceLine(id string, rhs string, fallbackPollSec int) (SourceConfig, error) {
	spec := Spec()
	src := SourceConfig{ID: strings.TrimSpace(id)}

	fields, err := splitFieldList(rhs)
	if err != nil {
		return src, err
	}

	typeValue, ok := fields["type"]
	if !ok {
		return src, fmt.Errorf("SOURCE_%s missing required field: type", id)
	}
	src.Type = SourceType(strings.ToLower(strings.TrimSpace(typeValue)))

	for field := range fields {
		if !isAllowedSourceField(src.Type, field) {
			return src, fmt.Errorf("unknown field for SOURCE_%s: %s", id, field)
		}
	}

	src.PollSec = fallbackPollSec
	if value, ok := fields["poll"]; ok {
		if src.PollSec, err = parseInt(value, "poll"); err != nil {
			return src, err
		}
	}

	if value, ok := fields["ttl"]; ok {
		if src.TTLSec, err = parseInt(value, "ttl"); err != nil {
			return src, err
		}
	} else {
		src.TTLSec = util.Max(2*src.PollSec, 2*fallbackPollSec)
	}

	src.Weight = spec.SourceWeight.Default
	if value, ok := fields["weight"]; ok {
		if src.Weight, err = parseInt(value, "weight"); err != nil {
			return src, err
		}
	}

	src.TStartMilliC = spec.SourceTStart.Default
	if value, ok := fields["t_start"]; ok {
		if src.TStartMilliC, err = parseInt(value, "t_start"); err != nil {
			return src, err
		}
	}
	src.TFullMilliC = spec.SourceTFull.Default
	if value, ok := fields["t_full"]; ok {
		if src.TFullMilliC, err = parseInt(value, "t_full"); err != nil {
			return src, err
		}
	}
	src.TCritMilliC = spec.SourceTCrit.Default
	if value, ok := fields["t_crit"]; ok {
		if src.TCritMilliC, err = parseInt(value, "t_crit"); err != nil {
			return src, err
		}
	}

	switch src.Type {
	case SourceTypeSysfs:
		src.Path = strings.TrimSpace(fields["path"])
	case SourceTypeUbus:
		src.Object = strings.TrimSpace(fields["object"])
		src.Method = strings.TrimSpace(fields["method"])
		src.Key = strings.TrimSpace(fields["key"])
		src.ArgsJSON = strings.TrimSpace(fields["args"])
		if len(src.ArgsJSON) <= 0 {
			src.ArgsJSON = "{}"
		}
	default:
		return src, fmt.Errorf("unsupported source type for SOURCE_%s: %s", id, src.Type)
	}

	return src, nil
}
