// Package directive extracts editor-extension install directives from the
// text of a Dockerfile. It recognizes three shapes: marketplace installs
// ("code-server --install-extension ns.name@1.2.3"), installs of a local
// .vsix archive, and wget downloads of a .vsix attached to a GitHub release.
//
// Extraction is a single pass over the lines with no state carried between
// them. Lines that match nothing are ignored.
package directive
