package user

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"

	"github.com/taskforge/taskforge/internal/store"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStandard Role = "standard"
	RoleGuest    Role = "guest"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStandard, RoleGuest:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

var (
	ErrInvalidUsername   = errors.New("username must be at least 3 characters")
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrPasswordTooShort  = errors.New("password must be at least 6 characters")
	ErrInvalidRole       = errors.New("invalid user role")
	ErrIncorrectPassword = errors.New("current password is incorrect")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const pbkdf2Iterations = 100_000

// Profile holds free-text profile fields.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
}

func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// User is a validated identity. All fields are mutated through command
// methods; the permission set is recomputed on every role change.
type User struct {
	id           string
	username     string
	email        string
	passwordHash string
	role         Role
	profile      Profile
	permissions  []string
	createdAt    time.Time
	updatedAt    time.Time
}

func New(username, email, password string, role Role) (*User, error) {
	username, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}

	email, err = NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &User{
		id:           uuid.NewString(),
		username:     username,
		email:        email,
		passwordHash: hash,
		role:         role,
		permissions:  permissionsFor(role),
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// NormalizeUsername lower-cases and trims, rejecting anything shorter than
// 3 characters.
func NormalizeUsername(username string) (string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if len(username) < 3 {
		return "", ErrInvalidUsername
	}
	return username, nil
}

// NormalizeEmail lower-cases and trims, rejecting malformed addresses.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func (u *User) ID() string            { return u.id }
func (u *User) Username() string      { return u.username }
func (u *User) Email() string         { return u.email }
func (u *User) Role() Role            { return u.role }
func (u *User) Profile() Profile      { return u.profile }
func (u *User) CreatedAt() time.Time  { return u.createdAt }
func (u *User) UpdatedAt() time.Time  { return u.updatedAt }
func (u *User) IsAdmin() bool         { return u.role == RoleAdmin }
func (u *User) Permissions() []string { return append([]string(nil), u.permissions...) }

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *User) UpdateProfile(p Profile) {
	u.profile = p
	u.updatedAt = time.Now().UTC()
}

// ChangeRole swaps the role and recomputes the permission set in one step so
// the two can never disagree.
func (u *User) ChangeRole(role Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	u.role = role
	u.permissions = permissionsFor(role)
	u.updatedAt = time.Now().UTC()
	return nil
}

// VerifyPassword recomputes the digest with the stored salt and compares in
// constant time. A malformed stored hash verifies as false.
func (u *User) VerifyPassword(password string) bool {
	salt, stored, ok := strings.Cut(u.passwordHash, ":")
	if !ok {
		return false
	}
	storedDigest, err := hex.DecodeString(stored)
	if err != nil {
		return false
	}
	digest := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, sha256.Size, sha256.New)
	return subtle.ConstantTimeCompare(digest, storedDigest) == 1
}

func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return ErrIncorrectPassword
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	u.passwordHash = hash
	u.updatedAt = time.Now().UTC()
	return nil
}

func hashPassword(password string) (string, error) {
	if len(password) < 6 {
		return "", ErrPasswordTooShort
	}
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	salt := hex.EncodeToString(raw)
	digest := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, sha256.Size, sha256.New)
	return salt + ":" + hex.EncodeToString(digest), nil
}

// permissionsFor is the fixed role table. It is independent from the team
// role table; the two vocabularies differ.
func permissionsFor(role Role) []string {
	switch role {
	case RoleAdmin:
		return []string{"admin.panel", "user.manage", "system.settings"}
	case RoleStandard:
		return []string{"profile.update", "content.create"}
	case RoleGuest:
		return []string{"content.read"}
	}
	return nil
}

func (u *User) ToRecord() store.Record {
	return store.Record{
		"id":            u.id,
		"username":      u.username,
		"email":         u.email,
		"password_hash": u.passwordHash,
		"role":          string(u.role),
		"profile": store.Record{
			"first_name": u.profile.FirstName,
			"last_name":  u.profile.LastName,
			"bio":        u.profile.Bio,
		},
		"permissions": u.Permissions(),
		"created_at":  store.FormatTime(u.createdAt),
		"updated_at":  store.FormatTime(u.updatedAt),
	}
}

// Public is the record exposed over the API: ToRecord without the credential.
func (u *User) Public() store.Record {
	rec := u.ToRecord()
	delete(rec, "password_hash")
	return rec
}

func FromRecord(rec store.Record) (*User, error) {
	role, err := ParseRole(rec.String("role"))
	if err != nil {
		return nil, err
	}

	createdAt, err := rec.Time("created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	updatedAt, err := rec.Time("updated_at")
	if err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}

	u := &User{
		id:           rec.String("id"),
		username:     rec.String("username"),
		email:        rec.String("email"),
		passwordHash: rec.String("password_hash"),
		role:         role,
		permissions:  permissionsFor(role),
		createdAt:    createdAt.UTC(),
		updatedAt:    updatedAt.UTC(),
	}

	if profile, ok := rec["profile"]; ok {
		var p store.Record
		switch v := profile.(type) {
		case store.Record:
			p = v
		case map[string]any:
			p = store.Record(v)
		}
		u.profile = Profile{
			FirstName: p.String("first_name"),
			LastName:  p.String("last_name"),
			Bio:       p.String("bio"),
		}
	}

	return u, nil
}
