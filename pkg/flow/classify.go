package flow

import (
	"regexp"
	"strings"
)

// ClassKind is the result category of classifying one line.
type ClassKind int

const (
	ClassIgnore ClassKind = iota
	ClassBinding
	ClassOperation
	ClassUnrecognized
)

func (k ClassKind) String() string {
	switch k {
	case ClassIgnore:
		return "ignore"
	case ClassBinding:
		return "binding"
	case ClassOperation:
		return "operation"
	case ClassUnrecognized:
		return "unrecognized"
	default:
		return "unknown"
	}
}

// MarshalText encodes k by name.
func (k ClassKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Classification describes a single source line.
type Classification struct {
	Kind  ClassKind `json:"kind"`
	Line  int       `json:"line"`            // Zero-based line index
	Name  string    `json:"name,omitempty"`  // Bound variable (binding) or called operation (operation)
	Value string    `json:"value,omitempty"` // Right-hand side text of a binding, not parsed further
}

var (
	identPattern = `[a-zA-Z_]\w*`
	callPattern  = regexp.MustCompile(`\.(` + identPattern + `)\(.*\)`)
)

// Classifier recognizes bindings and chained calls line by line.
// A Classifier is immutable and safe for concurrent use.
type Classifier struct {
	commentPrefix string
	binding       *regexp.Regexp
	keywords      map[string]struct{}
}

// NewClassifier compiles a classifier for the given options.
func NewClassifier(opts Options) *Classifier {
	prefix := opts.CommentPrefix
	if prefix == "" {
		prefix = DefaultCommentPrefix
	}

	keywords := opts.BindingKeywords
	if keywords == nil {
		keywords = DefaultOptions().BindingKeywords
	}

	quoted := make([]string, 0, len(keywords))
	reserved := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(kw))
		reserved[kw] = struct{}{}
	}

	expr := `^(` + identPattern + `)\s*=(.*)$`
	if len(quoted) > 0 {
		expr = `^(?:(?:` + strings.Join(quoted, "|") + `)\s+)?(` + identPattern + `)\s*=(.*)$`
	}

	return &Classifier{
		commentPrefix: prefix,
		binding:       regexp.MustCompile(expr),
		keywords:      reserved,
	}
}

// Classify inspects one line. It never fails: anything it cannot match
// is reported as ClassUnrecognized.
func (c *Classifier) Classify(line string, index int) Classification {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, c.commentPrefix) {
		return Classification{Kind: ClassIgnore, Line: index}
	}

	// Binding takes precedence over a dotted call on the same line.
	if m := c.binding.FindStringSubmatch(line); m != nil {
		rhs := m[2]
		_, reserved := c.keywords[m[1]]
		// "a == b" and "a => b" are not assignments.
		if !reserved && !strings.HasPrefix(rhs, "=") && !strings.HasPrefix(rhs, ">") {
			return Classification{
				Kind:  ClassBinding,
				Line:  index,
				Name:  m[1],
				Value: strings.TrimSpace(rhs),
			}
		}
	}

	if m := callPattern.FindStringSubmatch(line); m != nil {
		return Classification{Kind: ClassOperation, Line: index, Name: m[1]}
	}

	return Classification{Kind: ClassUnrecognized, Line: index}
}

// Classify classifies a single line with the default options.
func Classify(line string, index int) Classification {
	return defaultClassifier.Classify(line, index)
}

var defaultClassifier = NewClassifier(DefaultOptions())
