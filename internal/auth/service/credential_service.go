package service

import (
	commoncrypto "github.com/AlibekovAA/postgraph/internal/common/crypto"
	userdomain "github.com/AlibekovAA/postgraph/internal/user/domain"
)

// CredentialService bundles password hashing with token issuance. It holds
// no state beyond the signing secret inside the issuer.
type CredentialService struct {
	hasher commoncrypto.PasswordHasher
	issuer *TokenIssuer
}

func NewCredentialService(hasher commoncrypto.PasswordHasher, issuer *TokenIssuer) *CredentialService {
	return &CredentialService{hasher: hasher, issuer: issuer}
}

func (s *CredentialService) Hash(password string) (string, error) {
	return s.hasher.Hash(password)
}

// Verify fails closed, including for users that never had a password.
func (s *CredentialService) Verify(password string, hash *string) bool {
	if hash == nil || *hash == "" {
		return false
	}
	return s.hasher.Compare(*hash, password) == nil
}

func (s *CredentialService) IssueToken(userID userdomain.ID) (string, error) {
	return s.issuer.IssueToken(userID)
}

func (s *CredentialService) VerifyToken(token string) (userdomain.ID, error) {
	return s.issuer.VerifyToken(token)
}
