// Package version reports the build version of the nodegraph binary.
//
// Version and commit are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/nodegraph/version.Version=0.3.0"
//
// When unset, the commit falls back to the VCS stamp embedded by the Go
// toolchain.
package version
