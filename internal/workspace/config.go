package workspace

type Config struct {
	// Root is the directory the layout is created under.
	Root string
}
