package storage

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	validObjectKeyRegex        = regexp.MustCompile(`^(\w|/|!|-|\.|\*|'|\(|\)| |&|\$|@|=|;|:|\+|,|\?)*$`)
	inverseValidObjectKeyRegex = regexp.MustCompile(`[^\w/!\-.*'() &$@=;:+,?]`)
)

// ValidateFolderName returns a user-facing message and true when name
// contains a character storage keys do not allow. The empty name is valid.
func ValidateFolderName(name string) (string, bool) {
	if validObjectKeyRegex.MatchString(name) {
		return "", false
	}
	if match := inverseValidObjectKeyRegex.FindString(name); match != "" {
		return fmt.Sprintf(`Folder name cannot contain the "%s" character`, match), true
	}
	return "Folder name contains an invalid special character", true
}

// Notifier surfaces user-facing errors, e.g. as a toast.
type Notifier interface {
	Error(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Error(message string) { f(message) }

// SanitizeOptions selects the name to check and where.
type SanitizeOptions struct {
	Name string
	// ColumnIndex defaults to the last column when nil.
	ColumnIndex *int
	// Autofix renames on conflict instead of rejecting.
	Autofix bool
}

// A name without a dot splits into an empty base and the whole name as the
// extension, so "myfile" autofixes to " (1).myfile". Existing callers rely on
// this; set to false to get "myfile (1)".
const treatDotlessNameAsExtension = true

// DuplicateNameMessage is the notification sent when a name is taken.
func DuplicateNameMessage(name string) string {
	return fmt.Sprintf("The name %s already exists in the current directory. Please use a different name.", name)
}

// SanitizeNameForDuplicateInColumn checks name against the items of one column,
// ignoring case and items being edited.
//
// Without a conflict name is returned unchanged. On conflict with Autofix the
// next free "<base> (<n>).<ext>" name is returned; without Autofix the notifier
// receives an error and the result is ("", false).
func SanitizeNameForDuplicateInColumn(columns []Column, opts SanitizeOptions, notifier Notifier) (string, bool) {
	index := len(columns) - 1
	if opts.ColumnIndex != nil {
		index = *opts.ColumnIndex
	}

	var candidates []Item
	if index >= 0 && index < len(columns) {
		for _, item := range columns[index].Items {
			if item.Status != StatusEditing {
				candidates = append(candidates, item)
			}
		}
	}

	lowered := strings.ToLower(opts.Name)
	conflict := false
	for _, item := range candidates {
		if strings.ToLower(item.Name) == lowered {
			conflict = true
			break
		}
	}
	if !conflict {
		return opts.Name, true
	}

	if !opts.Autofix {
		if notifier != nil {
			notifier.Error(DuplicateNameMessage(opts.Name))
		}
		return "", false
	}

	base, ext := splitExtension(opts.Name)
	dupePattern := regexp.QuoteMeta(base) + ` \([-0-9]+\)`
	if ext != "" {
		dupePattern += regexp.QuoteMeta("." + ext)
	}
	dupeRegex := regexp.MustCompile(dupePattern + "$")

	count := 0
	for _, item := range candidates {
		if dupeRegex.MatchString(item.Name) {
			count++
		}
	}

	fixed := fmt.Sprintf("%s (%d)", base, count+1)
	if ext != "" {
		fixed += "." + ext
	}
	return fixed, true
}

// splitExtension splits on the last dot.
func splitExtension(name string) (base, ext string) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		if treatDotlessNameAsExtension {
			return "", name
		}
		return name, ""
	}
	return name[:i], name[i+1:]
}
