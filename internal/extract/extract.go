// Package extract resolves customer mutation requests written in natural
// language without calling a model. Pattern order and stoplists decide which
// of several plausible readings wins, so they must not be reordered.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mtlprog/finagent/internal/domain"
)

// Operation is the kind of mutation a request asks for.
type Operation string

const (
	OpCreate  Operation = "CREATE"
	OpUpdate  Operation = "UPDATE"
	OpDelete  Operation = "DELETE"
	OpUnknown Operation = "UNKNOWN"
)

// Keyword lists are checked as substrings of the lowercased text, update
// first so "change the new email" is not read as a create.
var (
	updateKeywords = []string{"update", "modify", "change", "edit"}
	deleteKeywords = []string{"delete", "remove", "deactivate"}
	createKeywords = []string{"add", "create", "insert", "new", "register"}
	subjectWords   = []string{"customer", "user", "client"}
)

// Classify returns the operation named by text.
func Classify(text string) Operation {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, updateKeywords):
		return OpUpdate
	case containsAny(lower, deleteKeywords):
		return OpDelete
	case containsAny(lower, createKeywords):
		return OpCreate
	default:
		return OpUnknown
	}
}

// MentionsCustomer reports whether text names a customer-like subject.
func MentionsCustomer(text string) bool {
	return containsAny(strings.ToLower(text), subjectWords)
}

// Target identifies one customer by ID or by first and last name.
type Target struct {
	ID        int64
	FirstName string
	LastName  string
}

// HasID reports whether the target was given as a numeric identifier.
func (t Target) HasID() bool {
	return t.ID > 0
}

// String renders the target for messages.
func (t Target) String() string {
	if t.HasID() {
		return "ID " + strconv.FormatInt(t.ID, 10)
	}
	return t.FirstName + " " + t.LastName
}

// Change is one requested field value.
type Change struct {
	Field domain.CustomerField
	Value string
}

// Extraction is the deterministic reading of a request.
// Target is nil when no identifier or name could be found.
type Extraction struct {
	Operation Operation
	Target    *Target
	Changes   []Change
}

// Extract classifies text and, for updates and deletes, resolves the target
// and the requested field changes.
func Extract(text string) Extraction {
	ex := Extraction{Operation: Classify(text)}

	switch ex.Operation {
	case OpUpdate:
		if t, ok := UpdateTarget(text); ok {
			ex.Target = &t
		}
		ex.Changes = FieldChanges(text)
	case OpDelete:
		if t, ok := DeleteTarget(text); ok {
			ex.Target = &t
		}
	}

	return ex
}

// A numeric identifier must be introduced by "customer"; it is tried before
// any name pattern. Other numbers in the text (emails, tickets, addresses)
// never select a row.
var idPattern = regexp.MustCompile(`(?i)\bcustomer\s+(?:id\s*[:#]?\s*|#)?(\d+)`)

type namePattern struct {
	re         *regexp.Regexp
	firstStop  map[string]bool
	secondStop map[string]bool
}

var (
	updateFirstStop  = set("first", "last", "email", "phone", "update", "change", "modify", "delete", "remove")
	updateSecondStop = set("name", "address", "email", "phone", "user")
	deleteFirstStop  = set("delete", "remove", "customer")

	updateNamePatterns = []namePattern{
		{regexp.MustCompile(`(?i)(?:update|change|modify)\s+(?:customer\s+)?([A-Z][a-zA-Z]+)\s+([A-Z][a-zA-Z]+)(?:,|\s|'s|$)`), updateFirstStop, updateSecondStop},
		{regexp.MustCompile(`(?i)named\s+([A-Z][a-zA-Z]+)\s+([A-Z][a-zA-Z]+)`), updateFirstStop, updateSecondStop},
		{regexp.MustCompile(`(?i)customer\s+([A-Z][a-zA-Z]+)\s+([A-Z][a-zA-Z]+)`), updateFirstStop, updateSecondStop},
	}

	deleteNamePatterns = []namePattern{
		{regexp.MustCompile(`(?i)(?:delete|remove)\s+(?:customer\s+)?([A-Z][a-zA-Z]+)\s+([A-Z][a-zA-Z]+)`), deleteFirstStop, nil},
		{regexp.MustCompile(`(?i)named\s+([A-Z][a-zA-Z]+)\s+([A-Z][a-zA-Z]+)`), deleteFirstStop, nil},
		{regexp.MustCompile(`(?i)customer\s+([A-Z][a-zA-Z]+)\s+([A-Z][a-zA-Z]+)`), deleteFirstStop, nil},
	}
)

// UpdateTarget finds the customer an update request refers to.
func UpdateTarget(text string) (Target, bool) {
	return findTarget(text, updateNamePatterns)
}

// DeleteTarget finds the customer a delete request refers to.
func DeleteTarget(text string) (Target, bool) {
	return findTarget(text, deleteNamePatterns)
}

func findTarget(text string, patterns []namePattern) (Target, bool) {
	if m := idPattern.FindStringSubmatch(text); m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil && id > 0 {
			return Target{ID: id}, true
		}
	}

	// Only the first match of each pattern is considered; a rejected match
	// moves on to the next pattern.
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if p.firstStop[strings.ToLower(m[1])] || p.secondStop[strings.ToLower(m[2])] {
			continue
		}
		return Target{FirstName: m[1], LastName: m[2]}, true
	}

	return Target{}, false
}

var (
	emailPattern     = regexp.MustCompile(`([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)
	lastNamePattern  = regexp.MustCompile(`(?i)last\s*name\s+(?:of\s+[^t]+?\s+)?to\s+([A-Z][a-zA-Z]+)`)
	firstNamePattern = regexp.MustCompile(`(?i)first\s*name\s+(?:of\s+[^t]+?\s+)?to\s+([A-Z][a-zA-Z]+)`)
	phonePattern     = regexp.MustCompile(`(?i)phone\s+(?:number\s+)?(?:to\s+)?([\d-]+)`)
	tierPattern      = regexp.MustCompile(`(?i)\btier\s+(?:to\s+)?(basic|premium|vip)\b`)
	branchPattern    = regexp.MustCompile(`(?i)\bbranch\s+(?:to\s+)?(downtown|westside|airport|bellevue)\b`)
)

// FieldChanges extracts requested field values from an update request.
// Changes are returned in a fixed field order.
func FieldChanges(text string) []Change {
	var changes []Change
	lower := strings.ToLower(text)

	if m := emailPattern.FindStringSubmatch(text); m != nil {
		changes = append(changes, Change{Field: domain.FieldEmail, Value: m[1]})
	}

	if strings.Contains(lower, "last") && strings.Contains(lower, "name") {
		if m := lastNamePattern.FindStringSubmatch(text); m != nil {
			changes = append(changes, Change{Field: domain.FieldLastName, Value: m[1]})
		}
	}

	if strings.Contains(lower, "first") && strings.Contains(lower, "name") {
		if m := firstNamePattern.FindStringSubmatch(text); m != nil {
			changes = append(changes, Change{Field: domain.FieldFirstName, Value: m[1]})
		}
	}

	if m := phonePattern.FindStringSubmatch(text); m != nil {
		changes = append(changes, Change{Field: domain.FieldPhone, Value: m[1]})
	}

	if m := tierPattern.FindStringSubmatch(text); m != nil {
		changes = append(changes, Change{Field: domain.FieldTier, Value: strings.ToLower(m[1])})
	}

	if m := branchPattern.FindStringSubmatch(text); m != nil {
		changes = append(changes, Change{Field: domain.FieldBranch, Value: strings.ToLower(m[1])})
	}

	return changes
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
