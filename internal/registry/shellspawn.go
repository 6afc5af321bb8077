package registry

import "github.com/ianremillard/wrangler/internal/shell"

// DefaultSpawner is the Spawner used in production: it spawns a real PTY
// shell via the shell package. Tests inject a fake Spawner instead.
func DefaultSpawner(cwd string) (PTY, error) {
	return shell.Start(cwd)
}
