package sync

// Config is everything the input collaborator supplies for one run.
// Nothing in this package reads process-wide settings, so two runs with
// different Configs never affect each other.
//
// Content is the rcfile exactly as read and must not be empty. An empty
// GameVersion means DefaultGameVersion. Silent stops reports from being
// forwarded to the Syncer's Reporter; Sync still returns them.
type Config struct {
	Credentials Credentials
	Content     []byte
	Sites       Selection
	GameVersion string
	Silent      bool
}

func (c Config) gameVersion() string {
	if c.GameVersion == "" {
		return DefaultGameVersion
	}
	return c.GameVersion
}
