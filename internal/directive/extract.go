package directive

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	installPattern  = regexp.MustCompile(`code-server\s+--install-extension\s+([^\s@\\]+)(?:@([^\s\\]+))?`)
	downloadPattern = regexp.MustCompile(`wget.*github\.com/([^/]+/[^/]+)/releases/download/v?([0-9.]+)/([^\s]+\.vsix)`)
)

// Extract scans text line by line and returns every recognized directive.
// A line may contribute to both the install and the download outputs.
func Extract(text string) Extraction {
	var x Extraction
	for _, line := range strings.Split(text, "\n") {
		x.addLine(strings.TrimSuffix(line, "\r"))
	}
	return x
}

// ExtractReader is Extract over a stream. Lines have no length limit.
func ExtractReader(r io.Reader) (Extraction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Extraction{}, fmt.Errorf("reading build file: %w", err)
	}
	return Extract(string(data)), nil
}

// ExtractFile reads and scans the build file at path.
func ExtractFile(path string) (Extraction, error) {
	f, err := os.Open(path)
	if err != nil {
		return Extraction{}, fmt.Errorf("opening build file: %w", err)
	}
	defer f.Close()
	return ExtractReader(f)
}

// ParseInstall matches a single line against the install directive. The
// returned id is never empty when ok is true.
func ParseInstall(line string) (id, version string, ok bool) {
	m := installPattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ParseDownload matches a single line against the GitHub release download shape.
func ParseDownload(line string) (HostedRelease, bool) {
	m := downloadPattern.FindStringSubmatch(line)
	if m == nil {
		return HostedRelease{}, false
	}
	return HostedRelease{Repo: m[1], Version: m[2], File: m[3]}, true
}

func (x *Extraction) addLine(line string) {
	if id, version, ok := ParseInstall(line); ok {
		if strings.HasSuffix(id, ArchiveSuffix) {
			x.Standalone = append(x.Standalone, StandaloneArtifact{ID: id})
		} else {
			x.Marketplace = append(x.Marketplace, MarketplaceEntry{ID: id, Version: version})
		}
	}
	if rel, ok := ParseDownload(line); ok {
		x.Hosted = append(x.Hosted, rel)
	}
}
