package storage

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrInvalidCredential = errors.New("invalid credential")

const credentialSeparator = ":"

// CredentialStore is an append-only file of encrypted "username:password"
// lines. Registering a username twice stores two independent lines.
type CredentialStore struct {
	mu   sync.Mutex
	path string
	opts Options
}

func NewCredentialStore(path string, opts Options) (*CredentialStore, error) {
	if path == "" {
		return nil, errors.New("credential store: empty path")
	}
	if opts.Cipher == nil {
		return nil, errors.New("credential store: nil cipher")
	}
	return &CredentialStore{path: path, opts: opts}, nil
}

// Register appends one encrypted credential line. Neither field may be empty
// or contain the separator or a line break, since such a line could never
// authenticate.
func (s *CredentialStore) Register(ctx context.Context, username, password string) error {
	if err := checkCredentialField("username", username); err != nil {
		return err
	}
	if err := checkCredentialField("password", password); err != nil {
		return err
	}

	line := s.opts.Cipher.Encrypt(username + credentialSeparator + password)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := appendLine(s.path, line); err != nil {
		return fmt.Errorf("register %q: %w", username, err)
	}
	s.opts.logger().InfoContext(ctx, "User registered", "username", username)
	return nil
}

// Authenticate reports whether some line holds exactly this username and
// password. Undecryptable lines and lines without exactly two fields are
// skipped. Only I/O failures produce an error; a missing file means no users.
func (s *CredentialStore) Authenticate(ctx context.Context, username, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	err := readLines(s.path, func() { s.opts.skip(SkipMalformed) }, func(line string) error {
		plain, err := s.opts.Cipher.Decrypt(line)
		if err != nil {
			s.opts.skip(SkipDecrypt)
			return nil
		}
		parts := strings.Split(plain, credentialSeparator)
		if len(parts) != 2 {
			s.opts.skip(SkipMalformed)
			return nil
		}
		userOK := subtle.ConstantTimeCompare([]byte(parts[0]), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(parts[1]), []byte(password)) == 1
		if userOK && passOK {
			found = true
			return errStopLines
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("authenticate: %w", err)
	}
	if !found {
		s.opts.logger().InfoContext(ctx, "Authentication failed", "username", username)
	}
	return found, nil
}

func checkCredentialField(name, value string) error {
	switch {
	case value == "":
		return fmt.Errorf("%w: empty %s", ErrInvalidCredential, name)
	case strings.Contains(value, credentialSeparator):
		return fmt.Errorf("%w: %s contains %q", ErrInvalidCredential, name, credentialSeparator)
	case strings.ContainsAny(value, "\r\n"):
		return fmt.Errorf("%w: %s contains a line break", ErrInvalidCredential, name)
	}
	return nil
}
