package directive

// ArchiveSuffix is the file extension of a packaged editor extension.
const ArchiveSuffix = ".vsix"

// MarketplaceEntry is an extension installed by registry ID.
type MarketplaceEntry struct {
	ID      string `json:"id" yaml:"id"`                               // namespace.name
	Version string `json:"version,omitempty" yaml:"version,omitempty"` // empty when no @version suffix
}

// StandaloneArtifact is an install of a local .vsix file. No version is
// tracked, so these are only listed for manual review.
type StandaloneArtifact struct {
	ID string `json:"id" yaml:"id"`
}

// HostedRelease is a .vsix downloaded from a GitHub release asset.
type HostedRelease struct {
	Repo    string `json:"repo" yaml:"repo"`       // owner/name
	Version string `json:"version" yaml:"version"` // release tag without the leading "v"
	File    string `json:"file" yaml:"file"`
}

// Extraction holds the directives found in one build file, in file order.
type Extraction struct {
	Marketplace []MarketplaceEntry   `json:"marketplace" yaml:"marketplace"`
	Standalone  []StandaloneArtifact `json:"standalone" yaml:"standalone"`
	Hosted      []HostedRelease      `json:"hosted" yaml:"hosted"`
}

// Empty reports whether nothing was extracted.
func (x Extraction) Empty() bool {
	return len(x.Marketplace) == 0 && len(x.Standalone) == 0 && len(x.Hosted) == 0
}
