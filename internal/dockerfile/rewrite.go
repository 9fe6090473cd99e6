// Package dockerfile rewrites pinned extension versions in a Dockerfile in
// place. Substitutions are exact text replacements; nothing is parsed.
package dockerfile

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Rewriter edits the build file at Path.
type Rewriter struct {
	Path string
}

// New returns a Rewriter for path.
func New(path string) *Rewriter {
	return &Rewriter{Path: path}
}

// InstallDirective renders the install command for id pinned at version.
func InstallDirective(id, version string) string {
	return fmt.Sprintf("code-server --install-extension %s@%s", id, version)
}

// ReplaceInstall swaps "code-server --install-extension id@old" for the same
// directive pinned at newVersion on every line containing it. It reports
// false, leaving the file untouched, when no line matched.
func (r *Rewriter) ReplaceInstall(id, oldVersion, newVersion string) (bool, error) {
	target := InstallDirective(id, oldVersion)
	replacement := InstallDirective(id, newVersion)
	return r.edit(func(text string) (string, bool) {
		if !strings.Contains(text, target) {
			return text, false
		}
		return strings.ReplaceAll(text, target, replacement), true
	})
}

// ReplaceRelease bumps a GitHub release download of repo from oldVersion to
// newVersion. The tag segment keeps its "v" prefix if it had one, and the
// old version is also replaced inside the asset file name when it stands
// alone there, so "releases/download/v1.2/x-1.2.vsix" becomes
// ".../v1.3/x-1.3.vsix" while digits that are part of the name are kept.
func (r *Rewriter) ReplaceRelease(repo, oldVersion, newVersion string) (bool, error) {
	pattern, err := regexp.Compile(`github\.com/` + regexp.QuoteMeta(repo) +
		`/releases/download/(v?)` + regexp.QuoteMeta(oldVersion) + `/(\S+\.vsix)`)
	if err != nil {
		return false, fmt.Errorf("building release pattern: %w", err)
	}
	// The version in an asset name sits between a separator (or the start)
	// and another separator or the .vsix suffix.
	inName, err := regexp.Compile(`(^|[-_v])` + regexp.QuoteMeta(oldVersion) + `([-_+]|\.vsix$)`)
	if err != nil {
		return false, fmt.Errorf("building asset pattern: %w", err)
	}
	nameReplacement := "${1}" + strings.ReplaceAll(newVersion, "$", "$$") + "${2}"

	return r.edit(func(text string) (string, bool) {
		changed := false
		out := pattern.ReplaceAllStringFunc(text, func(match string) string {
			changed = true
			m := pattern.FindStringSubmatch(match)
			file := inName.ReplaceAllString(m[2], nameReplacement)
			return fmt.Sprintf("github.com/%s/releases/download/%s%s/%s", repo, m[1], newVersion, file)
		})
		return out, changed
	})
}

// edit applies fn to the whole file and writes the result back with the
// original permissions when fn reports a change.
func (r *Rewriter) edit(fn func(string) (string, bool)) (bool, error) {
	info, err := os.Stat(r.Path)
	if err != nil {
		return false, fmt.Errorf("stat build file: %w", err)
	}
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return false, fmt.Errorf("reading build file: %w", err)
	}

	out, changed := fn(string(data))
	if !changed {
		return false, nil
	}

	if err := os.WriteFile(r.Path, []byte(out), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("writing build file: %w", err)
	}
	return true, nil
}
