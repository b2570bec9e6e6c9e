package auth

import (
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"gopkg.in/yaml.v3"

	"pkt.systems/pslog"
	"pkt.systems/scrollcon/schema"
)

// DefaultIssuer labels enrolled TOTP secrets in authenticator apps.
const DefaultIssuer = "scrollcon"

// ErrInvalidTOTP reports a rejected one-time code.
var ErrInvalidTOTP = errors.New("invalid totp")

type totpFile struct {
	Users map[string]string `yaml:"users"`
}

// TOTPStore keeps per-user TOTP secrets in a YAML file.
type TOTPStore struct {
	path      string
	mu        sync.RWMutex
	secrets   map[schema.UserID]string
	fileState fileState
	log       pslog.Logger
}

// NewTOTPStore loads the secrets file at path. A missing file is an empty store.
func NewTOTPStore(path string, logger pslog.Logger) (*TOTPStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("totp file path is required")
	}
	if logger != nil {
		logger = logger.With("totp_file", path)
	}
	store := &TOTPStore{
		path:    path,
		secrets: make(map[schema.UserID]string),
		log:     logger,
	}
	if err := store.refreshIfNeeded(); err != nil {
		return nil, err
	}
	return store, nil
}

// Enrolled reports whether user has a secret.
func (s *TOTPStore) Enrolled(user schema.UserID) bool {
	if err := s.refreshIfNeeded(); err != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.secrets[user]
	return ok
}

// Validate checks code against the stored secret for user.
func (s *TOTPStore) Validate(user schema.UserID, code string) error {
	if err := s.refreshIfNeeded(); err != nil {
		return err
	}
	s.mu.RLock()
	secret, ok := s.secrets[user]
	s.mu.RUnlock()
	if !ok {
		return ErrUnknownUser
	}
	if !totp.Validate(strings.TrimSpace(code), secret) {
		return ErrInvalidTOTP
	}
	return nil
}

// Enroll generates a new secret for user, stores it and returns the key for
// display. An existing secret is replaced.
func (s *TOTPStore) Enroll(user schema.UserID, issuer string) (*otp.Key, error) {
	if err := schema.ValidateUserID(user); err != nil {
		return nil, err
	}
	if err := s.refreshIfNeeded(); err != nil {
		return nil, err
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: string(user),
	})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[user] = key.Secret()
	if err := s.saveLocked(); err != nil {
		if s.log != nil {
			s.log.Warn("totp enroll failed", "user", user, "err", err)
		}
		return nil, err
	}
	if s.log != nil {
		s.log.Info("totp enrolled", "user", user)
	}
	return key, nil
}

func (s *TOTPStore) saveLocked() error {
	file := totpFile{Users: make(map[string]string, len(s.secrets))}
	for user, secret := range s.secrets {
		file.Users[string(user)] = secret
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	if info, err := os.Stat(s.path); err == nil {
		s.fileState = fileStateFromInfo(info)
	}
	return nil
}

func (s *TOTPStore) refreshIfNeeded() error {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	latest := fileStateFromInfo(info)
	s.mu.RLock()
	current := s.fileState
	s.mu.RUnlock()
	if current.equal(latest) {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var file totpFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		if s.log != nil {
			s.log.Warn("totp load failed", "err", err)
		}
		return err
	}
	next := make(map[schema.UserID]string, len(file.Users))
	for user, secret := range file.Users {
		id := schema.UserID(user)
		if err := schema.ValidateUserID(id); err != nil {
			return err
		}
		next[id] = secret
	}
	s.mu.Lock()
	s.secrets = next
	s.fileState = latest
	s.mu.Unlock()
	if s.log != nil {
		s.log.Debug("totp load ok", "users", len(next))
	}
	return nil
}
