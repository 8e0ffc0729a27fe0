// Package flagx lets each config loader parse only the flags it owns.
// The server registers -a, -d, -s, -e and -t while the JSON overlay wants
// just -c/-config; filtering os.Args first keeps flag.Parse from choking on
// the other loader's flags (or on go test's own).
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only the arguments belonging to the flags in allowed,
// dropping everything else. Both spellings are supported: a flag with its
// value as the next argument ("-d mink.db") and the combined form
// ("-d=mink.db" or "--database=mink.db"). A value is consumed only when it
// does not itself start with a dash.
func FilterArgs(args []string, allowed []string) []string {
	keep := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		keep[name] = true
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, found := strings.Cut(arg, "="); found && strings.HasPrefix(arg, "-") {
			if keep[name] {
				filtered = append(filtered, arg)
			}
			continue
		}

		if !keep[arg] {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}
	return filtered
}

// JsonConfigFlags extracts the config file path given via -c or -config,
// ignoring every other argument. Returns "" when neither flag is present.
func JsonConfigFlags() string {
	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	var path string
	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "Path to config file")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return path
}
