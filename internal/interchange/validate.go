package interchange

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/timetree/internal/domain"
)

// ValidateModel checks a model document before import. Returns every
// problem found rather than stopping at the first.
func ValidateModel(m *Model) []error {
	var errs []error

	durations := make(map[int64]bool)
	errs = append(errs, validateDurations(m.Durations, durations)...)

	logins := make(map[string]bool)
	errs = append(errs, validateCollaborators(m.Collaborators, logins)...)

	leaves := make(map[string]bool)
	errs = append(errs, validateTasks("tasks", "", m.Tasks, leaves)...)

	errs = append(errs, validateContributions(m.Contributions, durations, logins, leaves)...)

	return errs
}

func validateDurations(list []DurationXML, seen map[int64]bool) []error {
	var errs []error
	for i, d := range list {
		v, err := domain.ParseAmount(d.Value)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("durations[%d]: %w", i, err))
		case v <= 0:
			errs = append(errs, fmt.Errorf("durations[%d]: value must be positive, got %q", i, d.Value))
		case seen[v]:
			errs = append(errs, fmt.Errorf("durations[%d]: duplicate value %q", i, d.Value))
		default:
			seen[v] = true
		}
	}
	return errs
}

func validateCollaborators(list []CollaboratorXML, seen map[string]bool) []error {
	var errs []error
	for i, c := range list {
		login := strings.TrimSpace(c.Login)
		switch {
		case login == "":
			errs = append(errs, fmt.Errorf("collaborators[%d]: login is required", i))
		case seen[login]:
			errs = append(errs, fmt.Errorf("collaborators[%d]: duplicate login %q", i, login))
		default:
			seen[login] = true
		}
	}
	return errs
}

// validateTasks walks one sibling list. leaves collects the code path of
// every task without sub-tasks.
func validateTasks(prefix, parentCodePath string, list []TaskXML, leaves map[string]bool) []error {
	var errs []error
	if len(list) > domain.MaxSiblings {
		errs = append(errs, fmt.Errorf("%s: %d tasks exceed the %d sibling limit", prefix, len(list), domain.MaxSiblings))
	}
	codes := make(map[string]bool, len(list))
	for i, t := range list {
		at := fmt.Sprintf("%s[%d]", prefix, i)
		code := strings.TrimSpace(t.Code)
		if code == "" {
			errs = append(errs, fmt.Errorf("%s.code is required", at))
			continue
		}
		if strings.Contains(code, "/") {
			errs = append(errs, fmt.Errorf("%s.code %q must not contain '/'", at, code))
		}
		if codes[code] {
			errs = append(errs, fmt.Errorf("%s.code %q is used by a sibling", at, code))
		}
		codes[code] = true
		if strings.TrimSpace(t.Name) == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", at))
		}

		hasAmounts := false
		for _, a := range []struct{ field, raw string }{
			{"budget", t.Budget}, {"initiallyConsumed", t.InitiallyConsumed}, {"todo", t.Todo},
		} {
			v, err := domain.ParseAmount(a.raw)
			switch {
			case err != nil:
				errs = append(errs, fmt.Errorf("%s.%s: %w", at, a.field, err))
			case v < 0:
				errs = append(errs, fmt.Errorf("%s.%s must not be negative", at, a.field))
			case v > 0:
				hasAmounts = true
			}
		}

		codePath := parentCodePath + "/" + code
		if len(t.Tasks) == 0 {
			leaves[codePath] = true
			continue
		}
		if hasAmounts {
			errs = append(errs, fmt.Errorf("%s: task %s has sub-tasks and cannot carry amounts", at, codePath))
		}
		errs = append(errs, validateTasks(at+".task", codePath, t.Tasks, leaves)...)
	}
	return errs
}

func validateContributions(list []ContributionXML, durations map[int64]bool, logins, leaves map[string]bool) []error {
	var errs []error
	seen := make(map[string]bool, len(list))
	for i, c := range list {
		at := fmt.Sprintf("contributions[%d]", i)
		if !logins[strings.TrimSpace(c.Login)] {
			errs = append(errs, fmt.Errorf("%s: unknown collaborator %q", at, c.Login))
		}
		if !leaves[c.Task] {
			errs = append(errs, fmt.Errorf("%s: %q is not a leaf task of the model", at, c.Task))
		}
		if _, err := domain.ParseDay(c.Date); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", at, err))
		}
		v, err := domain.ParseAmount(c.Duration)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", at, err))
		} else if !durations[v] {
			errs = append(errs, fmt.Errorf("%s: duration %q is not in the catalog", at, c.Duration))
		}
		key := strings.TrimSpace(c.Login) + "|" + c.Task + "|" + c.Date
		if seen[key] {
			errs = append(errs, fmt.Errorf("%s: %s already logged on %s for %s", at, c.Login, c.Date, c.Task))
		}
		seen[key] = true
	}
	return errs
}
