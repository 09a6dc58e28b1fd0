package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"imagecompare/internal/config"
	"imagecompare/internal/ids"
	"imagecompare/internal/models"
	"imagecompare/internal/repository"
	"imagecompare/internal/security"
)

// AdminService provisions admins and resolves bearer credentials. A
// credential is either a raw capability key or a token from IssueToken.
type AdminService struct {
	admins     AdminStore
	keyCache   *lru.Cache[[sha256.Size]byte, int64]
	jwtSecret  string
	jwtTTL     time.Duration
	hashParams security.Argon2Params
	verify     func(secret string, encoded []byte) (bool, error)
	log        zerolog.Logger
}

func NewAdminService(admins AdminStore, cfg config.SecurityConfig, log zerolog.Logger) (*AdminService, error) {
	size := cfg.KeyCacheSize
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[[sha256.Size]byte, int64](size)
	if err != nil {
		return nil, fmt.Errorf("key cache: %w", err)
	}
	return &AdminService{
		admins:     admins,
		keyCache:   cache,
		jwtSecret:  cfg.JWTSecret,
		jwtTTL:     cfg.JWTTTL,
		hashParams: security.DefaultParams,
		verify:     security.VerifyKey,
		log:        log,
	}, nil
}

// WithHashParams overrides the argon2 cost used for new keys.
func (s *AdminService) WithHashParams(params security.Argon2Params) *AdminService {
	s.hashParams = params
	return s
}

// Provision creates an admin and returns its plaintext key, formatted as
// "<admin id>.<secret>". Only the hash of the secret is stored, so the key
// cannot be recovered later.
func (s *AdminService) Provision(ctx context.Context) (models.Admin, string, error) {
	secret, err := security.GenerateKey()
	if err != nil {
		return models.Admin{}, "", err
	}
	hash, err := security.HashKeyWithParams(secret, s.hashParams)
	if err != nil {
		return models.Admin{}, "", err
	}
	admin, err := s.admins.Create(ctx, hash)
	if err != nil {
		return models.Admin{}, "", err
	}
	s.log.Info().Int64("admin_id", admin.ID).Msg("admin provisioned")
	return admin, formatKey(admin.ID, secret), nil
}

func formatKey(adminID int64, secret string) string {
	return strconv.FormatInt(adminID, 10) + "." + secret
}

// splitKey reads "<admin id>.<secret>". Anything else cannot name an admin.
func splitKey(key string) (int64, string, bool) {
	idPart, secret, ok := strings.Cut(key, ".")
	if !ok || secret == "" || strings.Contains(secret, ".") {
		return 0, "", false
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return id, secret, true
}

func (s *AdminService) Authenticate(ctx context.Context, credential string) (models.Admin, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return models.Admin{}, ErrUnauthorized
	}
	if strings.Count(credential, ".") == 2 {
		return s.authenticateToken(ctx, credential)
	}
	return s.authenticateKey(ctx, credential)
}

func (s *AdminService) authenticateToken(ctx context.Context, token string) (models.Admin, error) {
	if s.jwtSecret == "" {
		return models.Admin{}, ErrUnauthorized
	}
	claims, err := security.ParseAdminToken(token, s.jwtSecret)
	if err != nil {
		return models.Admin{}, ErrUnauthorized
	}
	return s.lookup(ctx, claims.AdminID)
}

// authenticateKey verifies the secret against the one admin the key names,
// so a wrong key costs at most a single argon2 run.
func (s *AdminService) authenticateKey(ctx context.Context, key string) (models.Admin, error) {
	adminID, secret, ok := splitKey(key)
	if !ok {
		return models.Admin{}, ErrUnauthorized
	}

	digest := security.KeyDigest(key)
	if id, ok := s.keyCache.Get(digest); ok && id == adminID {
		admin, err := s.lookup(ctx, id)
		if err == nil {
			return admin, nil
		}
		s.keyCache.Remove(digest)
		return models.Admin{}, err
	}

	admin, err := s.lookup(ctx, adminID)
	if err != nil {
		return models.Admin{}, err
	}
	valid, err := s.verify(secret, admin.CapabilityKey)
	if err != nil {
		s.log.Warn().Err(err).Int64("admin_id", admin.ID).Msg("unreadable capability key hash")
		return models.Admin{}, ErrUnauthorized
	}
	if !valid {
		return models.Admin{}, ErrUnauthorized
	}
	s.keyCache.Add(digest, admin.ID)
	return admin, nil
}

func (s *AdminService) lookup(ctx context.Context, id int64) (models.Admin, error) {
	admin, err := s.admins.GetByID(ctx, id)
	if errors.Is(err, repository.ErrAdminNotFound) {
		return models.Admin{}, ErrUnauthorized
	}
	return admin, err
}

// IssueToken exchanges an authenticated admin for a short-lived JWT.
func (s *AdminService) IssueToken(admin models.Admin) (string, time.Time, error) {
	if s.jwtSecret == "" {
		return "", time.Time{}, errors.New("admin tokens are disabled: security.jwtsecret is empty")
	}
	return security.GenerateAdminToken(s.jwtSecret, admin.ID, ids.New(), s.jwtTTL)
}

func (s *AdminService) List(ctx context.Context) ([]models.Admin, error) {
	return s.admins.List(ctx)
}
