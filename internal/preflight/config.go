package preflight

type Config struct {
	// Interpreter is the command whose "--version" output is checked.
	Interpreter string
	// VersionConstraint is a semver constraint such as ">= 3.8, < 3.13".
	VersionConstraint string
	// Tools must all resolve on PATH.
	Tools []string
	// Docker requires a reachable container daemon.
	Docker bool
}
