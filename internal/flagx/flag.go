// Package flagx lets several components share os.Args without tripping over
// each other's flags: each one filters out the flags it owns and parses only
// those with its own flag.FlagSet.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns a slice of command-line arguments that only contains
// the allowed flags (and their values) specified in allowedFlags.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
func FilterArgs(args []string, allowedFlags []string) []string {
	filtered, _ := split(args, allowedFlags, nil, false)
	return filtered
}

// SplitArgs separates args into the flags a component owns and the free
// positional arguments.
//
// valueFlags take a value (either "-f v" or "-f=v"); boolFlags never consume
// the next argument, so "-initdb 127.0.0.1:80" yields the flag and one
// positional. A bare "--" ends flag processing. Flags in neither list are
// passed through unchanged, so the caller's flag.FlagSet rejects them instead
// of their value being mistaken for a positional.
func SplitArgs(args []string, valueFlags, boolFlags []string) (filtered, positional []string) {
	return split(args, valueFlags, boolFlags, true)
}

func split(args []string, valueFlags, boolFlags []string, keepUnknown bool) (filtered, positional []string) {
	values := toSet(valueFlags)
	bools := toSet(boolFlags)

	filtered = make([]string, 0, len(args))
	positional = make([]string, 0)

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positional = append(positional, arg)
			continue
		}

		// "--flag=value" or "-f=value"
		if strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			_, isValue := values[name]
			_, isBool := bools[name]
			if isValue || isBool || keepUnknown {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := bools[arg]; ok {
			filtered = append(filtered, arg)
			continue
		}

		if _, ok := values[arg]; ok {
			filtered = append(filtered, arg)
			// The next argument is the value unless it looks like a flag.
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
			continue
		}

		if keepUnknown {
			filtered = append(filtered, arg)
		}
	}

	return filtered, positional
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// JsonConfigFlags inspects command-line arguments and extracts the config file
// path provided via the -c or -config flags.
//
// If neither -c nor -config is present, an empty string is returned.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config", "--config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}
