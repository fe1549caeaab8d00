package flows

// Deps groups all flow dependency sets. The root manager builds this once
// and delegates lifecycle methods to the matching flow runner.
type Deps struct {
	Login     LoginDeps
	Refresh   RefreshDeps
	Bootstrap BootstrapDeps
}
