// Package provision turns a project name into a ready-to-use project
// directory: clone the template, strip its history, initialize a fresh
// repository, patch package.json and install dependencies.
//
// The first four steps run in a hidden staging directory next to the target
// and are published with a single rename, so a failed run never leaves a
// half-built project behind. The install step runs afterwards in the
// published directory; its failure is reported in the Result and never undoes
// the earlier steps.
package provision
