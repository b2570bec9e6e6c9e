// Package auth resolves SSH logins to users and checks second factors.
package auth

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"

	"pkt.systems/pslog"
	"pkt.systems/scrollcon/schema"
)

// ErrUnknownUser reports a key or user with no account.
var ErrUnknownUser = errors.New("unknown user")

type authorizedKey struct {
	user schema.UserID
	key  ssh.PublicKey
}

// AuthorizedKeys maps public keys to users using an authorized_keys file
// whose comment field names the user. The file is reloaded when it changes.
type AuthorizedKeys struct {
	path      string
	mu        sync.RWMutex
	keys      []authorizedKey
	fileState fileState
	log       pslog.Logger
}

// NewAuthorizedKeys loads the authorized_keys file at path.
func NewAuthorizedKeys(path string, logger pslog.Logger) (*AuthorizedKeys, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("authorized keys path is required")
	}
	if logger != nil {
		logger = logger.With("authorized_keys", path)
	}
	store := &AuthorizedKeys{path: path, log: logger}
	if err := store.loadFromDisk(); err != nil {
		return nil, err
	}
	return store, nil
}

// Lookup returns the user owning key.
func (a *AuthorizedKeys) Lookup(key ssh.PublicKey) (schema.UserID, error) {
	if key == nil {
		return "", ErrUnknownUser
	}
	if err := a.refreshIfNeeded(); err != nil {
		return "", err
	}
	wire := key.Marshal()
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, entry := range a.keys {
		if bytes.Equal(entry.key.Marshal(), wire) {
			return entry.user, nil
		}
	}
	return "", ErrUnknownUser
}

// Authorized reports whether key belongs to user.
func (a *AuthorizedKeys) Authorized(user schema.UserID, key ssh.PublicKey) bool {
	owner, err := a.Lookup(key)
	return err == nil && owner == user
}

// Len returns the number of keys loaded.
func (a *AuthorizedKeys) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.keys)
}

func (a *AuthorizedKeys) refreshIfNeeded() error {
	info, err := os.Stat(a.path)
	if err != nil {
		if a.log != nil {
			a.log.Warn("authorized keys stat failed", "err", err)
		}
		return err
	}
	a.mu.RLock()
	current := a.fileState
	a.mu.RUnlock()
	if current.equal(fileStateFromInfo(info)) {
		return nil
	}
	return a.loadFromDisk()
}

func (a *AuthorizedKeys) loadFromDisk() error {
	data, err := os.ReadFile(a.path)
	if err != nil {
		if a.log != nil {
			a.log.Warn("authorized keys load failed", "err", err)
		}
		return err
	}
	info, err := os.Stat(a.path)
	if err != nil {
		return err
	}
	keys, err := parseAuthorizedKeys(data)
	if err != nil {
		if a.log != nil {
			a.log.Warn("authorized keys load failed", "err", err)
		}
		return err
	}
	a.mu.Lock()
	a.keys = keys
	a.fileState = fileStateFromInfo(info)
	a.mu.Unlock()
	if a.log != nil {
		a.log.Debug("authorized keys load ok", "keys", len(keys))
	}
	return nil
}

func parseAuthorizedKeys(data []byte) ([]authorizedKey, error) {
	var keys []authorizedKey
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, comment, _, _, err := ssh.ParseAuthorizedKey([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		user := schema.UserID(strings.TrimSpace(comment))
		if err := schema.ValidateUserID(user); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		keys = append(keys, authorizedKey{user: user, key: key})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
