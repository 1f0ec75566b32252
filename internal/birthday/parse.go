package birthday

import (
	"strings"
	"unicode/utf8"

	"github.com/mattjoyce/cakeday/internal/interaction"
)

// MaxNameLength is the longest accepted name, in characters.
const MaxNameLength = 100

const (
	addUsage    = "/add <name> <birthday>"
	removeUsage = "/remove <name>"
)

// AddArgs are the arguments of the add command. Birthday is the trimmed
// string as entered; it is validated separately by ParseDate.
type AddArgs struct {
	Name     string
	Birthday string
}

// ParseAdd extracts name and birthday from the option list.
func ParseAdd(options []interaction.Option) (AddArgs, error) {
	args := AddArgs{
		Name:     optionValue(options, "name"),
		Birthday: optionValue(options, "birthday"),
	}
	if err := checkName(args.Name, addUsage); err != nil {
		return args, err
	}
	if args.Birthday == "" {
		return args, missing(ReasonMissingBirthday, "birthday", addUsage)
	}
	return args, nil
}

// ParseRemove extracts the name to remove from the option list.
func ParseRemove(options []interaction.Option) (string, error) {
	name := optionValue(options, "name")
	if err := checkName(name, removeUsage); err != nil {
		return name, err
	}
	return name, nil
}

func checkName(name, usage string) error {
	if name == "" {
		return missing(ReasonMissingName, "name", usage)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// optionValue returns the trimmed value of the last option named key.
// Unknown options are ignored.
func optionValue(options []interaction.Option, key string) string {
	value := ""
	for _, opt := range options {
		if opt.Name == key {
			value = strings.TrimSpace(opt.Value)
		}
	}
	return value
}
