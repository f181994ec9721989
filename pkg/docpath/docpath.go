// Package docpath maps document identifiers to their sharded locations
// on disk.
//
// The mapping is a pure function of the identifier: no I/O, no lookup
// table, no process state. Any caller can recompute a path at any time
// and get the same answer. Changing this mapping orphans every file
// written under the old scheme, so it is covered by tests that pin the
// exact output.
package docpath

import (
	"path"
	"strconv"
	"strings"
)

// ShardDir returns the relative shard directory for an identifier.
// DOI-like identifiers are dot-separated numeric runs; each run becomes
// one directory level, which bounds the fan-out of any single
// directory. "10.1.1.42.7" maps to "10/1/1/42/7".
func ShardDir(doi string) string {
	parts := strings.Split(doi, ".")
	return path.Join(parts...)
}

// XMLPath returns the relative path of the canonical XML body for an
// identifier: "<shard>/<doi>.xml".
func XMLPath(doi string) string {
	return path.Join(ShardDir(doi), doi+".xml")
}

// ArtifactPath returns the relative path of a binary artifact of the
// given type tag: "<shard>/<doi>.<type>". The extension is stored
// lowercase; listings match it case-insensitively.
func ArtifactPath(doi, artifactType string) string {
	return path.Join(ShardDir(doi), doi+"."+strings.ToLower(artifactType))
}

// VersionPath returns the relative path under which a version snapshot
// of the XML body is archived: "<shard>/versions/<doi>.v<n>.xml" with n
// rendered in decimal.
func VersionPath(doi string, version int) string {
	return path.Join(ShardDir(doi), "versions", doi+".v"+strconv.Itoa(version)+".xml")
}
