// Package pathutil implements the path contract shared by the file manager and
// the upload flow.
//
// Two regimes exist, chosen by the profile type: remote profiles use paths
// relative to the profile home where "/" is the home itself, local profiles use
// OS-absolute paths. In both regimes the root is always produced as "/".
package pathutil
