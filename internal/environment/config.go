package environment

type Config struct {
	// Steps are command lines run in order, split on whitespace.
	Steps []string
	// WorkDir is the directory the steps run in.
	WorkDir string
}
