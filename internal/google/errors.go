package google

import (
	"errors"
	"fmt"
)

// ErrConfigurationMissing is wrapped by every error caused by an absent
// credentials or token file.
var ErrConfigurationMissing = errors.New("configuration missing")

// File kinds reported by MissingFileError.
const (
	FileCredentials = "credentials"
	FileToken       = "token"
)

// MissingFileError reports an absent configuration file and how to fix it.
type MissingFileError struct {
	Kind string
	Path string
	Hint string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("%s file not found at %s: %s", e.Kind, e.Path, e.Hint)
}

func (e *MissingFileError) Unwrap() error {
	return ErrConfigurationMissing
}

func missingCredentials(path string) error {
	return &MissingFileError{
		Kind: FileCredentials,
		Path: path,
		Hint: "create an OAuth client of type \"Desktop app\" in the Google Cloud console " +
			"(APIs & Services > Credentials), download its JSON and save it at this path, " +
			"or point GMAIL_CREDENTIALS_PATH at it",
	}
}

func missingToken(path string) error {
	return &MissingFileError{
		Kind: FileToken,
		Path: path,
		Hint: "run `gmailmcp auth` once to authorize access and write the token, " +
			"or point GMAIL_TOKEN_PATH at an existing token file",
	}
}
