package parser

import (
	"errors"
	"regexp"
	"strings"

	"github.com/c360studio/diagen/diagram"
)

// ErrNotClassDiagram is returned when diagram text does not start with a
// classDiagram declaration.
var ErrNotClassDiagram = errors.New("not a class diagram")

var (
	headerPattern     = regexp.MustCompile(`^classDiagram(?:-v2)?\b`)
	namespacePattern  = regexp.MustCompile(`^namespace\s+([\w.]+)\s*\{(.*)$`)
	classPattern      = regexp.MustCompile(`^class\s+(\w+)(?:~[^~]*~)?\s*(?:\["[^"]*"\])?\s*(?:(\{)(.*?)(\})?)?\s*$`)
	annotationPattern = regexp.MustCompile(`^(<<\s*[^<>]+?\s*>>)\s*(\w+)\s*;?$`)
	memberPattern     = regexp.MustCompile(`^(\w+)\s*:\s*(.+)$`)
	relationPattern   = regexp.MustCompile(
		`^(\w+)\s*(?:"([^"]*)"\s*)?` +
			`(<\|--|--\|>|<\|\.\.|\.\.\|>|\*--|--\*|o--|--o|\(\)--|--\(\)|-->|<--|\.\.>|<\.\.|--|\.\.)` +
			`\s*(?:"([^"]*)"\s*)?(\w+)\s*(?::\s*(.*))?$`)
)

// arrow describes what an arrow token means.
type arrow struct {
	kind diagram.RelationKind
	line diagram.LineKind
}

var arrows = map[string]arrow{
	"<|--": {diagram.KindExtension, diagram.LineSolid},
	"--|>": {diagram.KindExtension, diagram.LineSolid},
	"<|..": {diagram.KindRealization, diagram.LineDotted},
	"..|>": {diagram.KindRealization, diagram.LineDotted},
	"*--":  {diagram.KindComposition, diagram.LineSolid},
	"--*":  {diagram.KindComposition, diagram.LineSolid},
	"o--":  {diagram.KindAggregation, diagram.LineSolid},
	"--o":  {diagram.KindAggregation, diagram.LineSolid},
	"()--": {diagram.KindImplementation, diagram.LineSolid},
	"--()": {diagram.KindImplementation, diagram.LineSolid},
	"-->":  {diagram.KindDependency, diagram.LineSolid},
	"<--":  {diagram.KindDependency, diagram.LineSolid},
	"..>":  {diagram.KindDependency, diagram.LineDotted},
	"<..":  {diagram.KindDependency, diagram.LineDotted},
	"--":   {diagram.KindNone, diagram.LineSolid},
	"..":   {diagram.KindNone, diagram.LineDotted},
}

// classDiagramReader holds the line state of one diagram.
type classDiagramReader struct {
	events []diagram.Event

	inNamespace bool
	body        *classBody
	comments    []string
}

type classBody struct {
	class string
	lines []string
}

// ParseClassDiagram turns class diagram text into construction events.
// Only the header is required; lines that are not understood are skipped.
func ParseClassDiagram(text string) ([]diagram.Event, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	start := -1
	inFrontmatter := false
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "---" {
			inFrontmatter = !inFrontmatter
			continue
		}
		if inFrontmatter || line == "" || strings.HasPrefix(line, "%%") {
			continue
		}
		if headerPattern.MatchString(line) {
			start = i + 1
		}
		break
	}
	if start < 0 {
		return nil, ErrNotClassDiagram
	}

	r := &classDiagramReader{}
	for _, raw := range lines[start:] {
		r.readLine(strings.TrimSpace(raw))
	}
	r.flushBody()
	return r.events, nil
}

func (r *classDiagramReader) readLine(line string) {
	if r.body != nil {
		if line == "}" {
			r.flushBody()
			return
		}
		if strings.HasSuffix(line, "}") && !strings.HasPrefix(line, "%%") {
			r.body.lines = append(r.body.lines, strings.TrimSpace(strings.TrimSuffix(line, "}")))
			r.flushBody()
			return
		}
		r.body.lines = append(r.body.lines, line)
		return
	}

	switch {
	case line == "":
		return

	case strings.HasPrefix(line, "%%{"):
		return

	case strings.HasPrefix(line, "%%"):
		if text := strings.TrimSpace(strings.TrimPrefix(line, "%%")); text != "" {
			r.comments = append(r.comments, text)
		}
		return

	case line == "}":
		if r.inNamespace {
			r.emit(diagram.NamespaceEvent{})
			r.inNamespace = false
		}
		return
	}

	if match := namespacePattern.FindStringSubmatch(line); match != nil {
		r.emit(diagram.NamespaceEvent{Name: match[1]})
		r.inNamespace = true
		r.comments = nil

		// namespace X { class Y } on a single line
		rest := strings.TrimSpace(match[2])
		if closes := strings.HasSuffix(rest, "}"); closes {
			r.readLine(strings.TrimSpace(strings.TrimSuffix(rest, "}")))
			r.readLine("}")
		} else {
			r.readLine(rest)
		}
		return
	}

	if match := classPattern.FindStringSubmatch(line); match != nil {
		r.emit(diagram.ClassEvent{Name: match[1], Comment: r.takeComment()})
		if match[2] == "" {
			return
		}
		r.body = &classBody{class: match[1]}
		for _, member := range strings.Split(match[3], ";") {
			if member = strings.TrimSpace(member); member != "" {
				r.body.lines = append(r.body.lines, member)
			}
		}
		if match[4] != "" {
			r.flushBody()
		}
		return
	}

	if match := annotationPattern.FindStringSubmatch(line); match != nil {
		r.emit(diagram.ClassEvent{Name: match[2], Comment: r.takeComment()})
		r.emit(diagram.MembersEvent{Class: match[2], Lines: []string{match[1]}})
		return
	}

	if match := relationPattern.FindStringSubmatch(line); match != nil {
		a := arrows[match[3]]
		r.emit(diagram.RelationEvent{Relation: diagram.Relation{
			ID1:               match[1],
			ID2:               match[5],
			Kind:              a.kind,
			Line:              a.line,
			MultiplicityLabel: match[4],
			Title:             strings.TrimSpace(match[6]),
		}})
		r.comments = nil
		return
	}

	if match := memberPattern.FindStringSubmatch(line); match != nil {
		lines := append(r.commentLines(), match[2])
		r.emit(diagram.MembersEvent{Class: match[1], Lines: lines})
		return
	}

	// direction, style, classDef, note, click and the like carry nothing
	// the model needs.
	r.comments = nil
}

func (r *classDiagramReader) emit(ev diagram.Event) {
	r.events = append(r.events, ev)
}

func (r *classDiagramReader) flushBody() {
	if r.body == nil {
		return
	}
	r.emit(diagram.MembersEvent{Class: r.body.class, Lines: r.body.lines})
	r.body = nil
}

func (r *classDiagramReader) takeComment() string {
	comment := strings.Join(r.comments, " ")
	r.comments = nil
	return comment
}

// commentLines returns pending comments as member comment lines so the
// builder can attach them to the member that follows.
func (r *classDiagramReader) commentLines() []string {
	lines := make([]string, 0, len(r.comments)+1)
	for _, c := range r.comments {
		lines = append(lines, "%% "+c)
	}
	r.comments = nil
	return lines
}
