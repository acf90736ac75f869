// Package google loads the OAuth client configuration and token that
// authorize gmailmcp against the Gmail API.
//
// Both live in plain JSON files. The credentials file is the OAuth client
// downloaded from the Google Cloud console, in either its "installed" or
// "web" shape. The token file is written once by `gmailmcp auth` and only
// read afterwards; refreshed access tokens stay in memory.
//
// A missing file is reported as a *MissingFileError wrapping
// ErrConfigurationMissing, with a hint telling the user how to create it.
package google
