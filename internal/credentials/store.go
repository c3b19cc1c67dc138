package credentials

import (
	"context"
	"errors"
	"time"

	"github.com/bingospaces/gatekeeper/internal/common"
	"github.com/bingospaces/gatekeeper/model"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const mysqlErrDataTooLong = 1406

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrProviderInvalid    = errors.New("invalid provider")
	ErrTokenTooLarge      = errors.New("encrypted token exceeds column size")
)

// Credential is the decrypted view handed to callers; token columns in
// model.Credential stay ciphertext.
type Credential struct {
	UserID       string
	Provider     model.Provider
	AccessToken  string
	RefreshToken *string
	ExpiresAt    *time.Time
}

// UpsertParams replaces access+refresh+expiry as one atomic write. A nil
// RefreshToken clears the stored one; there is no partial update.
type UpsertParams struct {
	UserID       string
	Provider     model.Provider
	AccessToken  string
	RefreshToken *string
	ExpiresAt    *time.Time
}

type CredentialStore interface {
	Get(ctx context.Context, userID string, provider model.Provider) (*Credential, error)
	Upsert(ctx context.Context, params UpsertParams) error
	// ListDue returns every credential whose expiry is unknown or earlier
	// than due, including rows without a refresh token; the sweep decides
	// what to do with those. Rows come back encrypted so that one corrupt
	// row cannot poison the whole sweep; decrypt per item with Decrypt.
	ListDue(ctx context.Context, due time.Time) ([]*model.Credential, error)
	Decrypt(record *model.Credential) (*Credential, error)
}

type credentialStore struct {
	db     *gorm.DB
	cipher *common.TokenCipher
}

func NewCredentialStore(db *gorm.DB, cipher *common.TokenCipher) CredentialStore {
	return &credentialStore{db: db, cipher: cipher}
}

func (s *credentialStore) Get(ctx context.Context, userID string, provider model.Provider) (*Credential, error) {
	if !provider.Valid() {
		return nil, ErrProviderInvalid
	}
	var record model.Credential
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.decrypt(&record)
}

func (s *credentialStore) Upsert(ctx context.Context, params UpsertParams) error {
	if !params.Provider.Valid() {
		return ErrProviderInvalid
	}
	encryptedAccess, err := s.cipher.Encrypt(params.AccessToken)
	if err != nil {
		return err
	}
	record := model.Credential{
		UserID:      params.UserID,
		Provider:    params.Provider,
		AccessToken: encryptedAccess,
		ExpiresAt:   params.ExpiresAt,
	}
	if params.RefreshToken != nil {
		encryptedRefresh, err := s.cipher.Encrypt(*params.RefreshToken)
		if err != nil {
			return err
		}
		record.RefreshToken = &encryptedRefresh
	}
	// The unique index on (user_id, provider) makes concurrent writers
	// last-writer-wins instead of producing duplicate rows.
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
			DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expires_at", "updated_at"}),
		}).
		Create(&record).Error
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDataTooLong {
		return ErrTokenTooLarge
	}
	return err
}

func (s *credentialStore) ListDue(ctx context.Context, due time.Time) ([]*model.Credential, error) {
	var records []model.Credential
	err := s.db.WithContext(ctx).
		Where("expires_at IS NULL OR expires_at < ?", due).
		Order("updated_at asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	out := make([]*model.Credential, 0, len(records))
	for i := range records {
		out = append(out, &records[i])
	}
	return out, nil
}

func (s *credentialStore) Decrypt(record *model.Credential) (*Credential, error) {
	return s.decrypt(record)
}

func (s *credentialStore) decrypt(record *model.Credential) (*Credential, error) {
	accessToken, err := s.cipher.Decrypt(record.AccessToken)
	if err != nil {
		return nil, err
	}
	out := &Credential{
		UserID:      record.UserID,
		Provider:    record.Provider,
		AccessToken: accessToken,
		ExpiresAt:   record.ExpiresAt,
	}
	if record.RefreshToken != nil {
		refreshToken, err := s.cipher.Decrypt(*record.RefreshToken)
		if err != nil {
			return nil, err
		}
		out.RefreshToken = &refreshToken
	}
	return out, nil
}
