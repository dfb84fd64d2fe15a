package installer

type Installer struct {
	fetcher   Fetcher
	baseDir   string
	keepGoing bool
}

type Outcome string

const (
	// OutcomeInstalled means the package was downloaded
	// and extracted by this run.
	OutcomeInstalled Outcome = "installed"
	// OutcomeExisting means the target was already present
	// so only symlink repair was performed.
	OutcomeExisting Outcome = "existing"
)

type Result struct {
	Name     string
	Target   string
	Outcome  Outcome
	Repaired int
}

type Status struct {
	Name      string
	Platform  string
	Arch      string
	Target    string
	Installed bool
	Digest    string
}
