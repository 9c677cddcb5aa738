package diagram

import (
	"regexp"
	"strings"
	"unicode"
)

const commentPrefix = "%%"

var (
	annotationPattern = regexp.MustCompile(`^<<\s*([^<>]+?)\s*>>$`)
	optionPattern     = regexp.MustCompile(`^([A-Za-z_][\w.\-]*)(?:\s*=\s*(.*))?$`)
	methodPattern     = regexp.MustCompile(`^([+\-#~])?\s*([A-Za-z_]\w*)\s*\(([^()]*)\)\s*([$*]*)\s*:?\s*(.*?)\s*([$*]*)$`)
	attributePattern  = regexp.MustCompile(`^([+\-#~])?\s*(\S+)\s+([A-Za-z_]\w*)\s*[$*]*\s*(?:=\s*(.*))?$`)
)

// memberLine is a raw member line with the comment lines that preceded it.
type memberLine struct {
	text    string
	comment string
}

// pairComments attaches each run of comment lines to the member line that
// follows it. Blank lines are dropped.
func pairComments(lines []string) []memberLine {
	var (
		out     []memberLine
		pending []string
	)
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, commentPrefix):
			if text := strings.TrimSpace(strings.TrimPrefix(line, commentPrefix)); text != "" {
				pending = append(pending, text)
			}
		default:
			out = append(out, memberLine{text: line, comment: strings.Join(pending, " ")})
			pending = nil
		}
	}
	return out
}

// applyMembers classifies lines in reverse so that the first declaration of a
// member name is the one that survives.
func (b *Builder) applyMembers(record *ClassRecord, lines []string) {
	members := pairComments(lines)

	var options []OptionRecord
	for i := len(members) - 1; i >= 0; i-- {
		m := members[i]

		if match := annotationPattern.FindStringSubmatch(m.text); match != nil {
			record.Type = match[1]
			continue
		}

		if match := optionPattern.FindStringSubmatch(m.text); match != nil {
			options = append([]OptionRecord{{Name: match[1], Value: strings.TrimSpace(match[2])}}, options...)
			continue
		}

		if match := methodPattern.FindStringSubmatch(m.text); match != nil {
			name := match[2]
			record.Methods[name] = MethodRecord{
				Type:        returnType(match[5]),
				Scope:       visibility(match[1]),
				Classifiers: classifiers(match[4] + match[6]),
				Arguments:   parseArguments(match[3]),
				Comment:     m.comment,
			}
			continue
		}

		if match := attributePattern.FindStringSubmatch(m.text); match != nil {
			typeToken := match[2]
			record.Attributes[match[3]] = AttributeRecord{
				Type:         typeToken,
				IsSystemType: b.systemType(typeToken),
				Scope:        visibility(match[1]),
				DefaultValue: strings.TrimSpace(match[4]),
				Comment:      m.comment,
			}
			continue
		}

		b.logger.Debug("Dropped unrecognized member line", "class", record.Name, "line", m.text)
	}

	record.Options = append(record.Options, options...)
}

// visibility maps a visibility symbol to a scope name.
func visibility(symbol string) string {
	switch symbol {
	case "-":
		return ScopePrivate
	case "#":
		return ScopeProtected
	case "~":
		return ScopePackage
	default:
		return ScopePublic
	}
}

func classifiers(symbols string) string {
	var out []string
	if strings.Contains(symbols, "$") {
		out = append(out, "static")
	}
	if strings.Contains(symbols, "*") {
		out = append(out, "abstract")
	}
	return strings.Join(out, " ")
}

func returnType(raw string) string {
	if raw = strings.TrimSpace(raw); raw == "" {
		return "void"
	}
	return raw
}

// parseArguments splits an argument list on commas that sit outside generic
// brackets, then splits each argument into type and name on the first
// whitespace.
func parseArguments(raw string) []ArgumentRecord {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var args []ArgumentRecord
	for _, part := range splitTopLevel(raw) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		arg := ArgumentRecord{Type: part}
		if i := strings.IndexFunc(part, unicode.IsSpace); i >= 0 {
			arg.Type = part[:i]
			arg.Name = strings.TrimSpace(part[i:])
		}
		args = append(args, arg)
	}
	return args
}

func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		tilde bool
		start int
	)
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case '~':
			tilde = !tilde
		case ',':
			if depth == 0 && !tilde {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
