package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/arnavshah/position-helper-go/pkg/database"
)

// CookieName is the session cookie set after a successful login
const CookieName = "ph_auth"

// Subject is the only principal: the shared admin password holder
const Subject = "admin"

var jwtAlgorithm = jwt.SigningMethodHS256

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid token")
)

// Claims represents the JWT claims
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens and checks the admin password
type Manager struct {
	secret []byte
	ttl    time.Duration
	db     *gorm.DB
	now    func() time.Time
}

// NewManager creates a manager. db holds the admin credential table.
func NewManager(secret string, ttl time.Duration, db *gorm.DB) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, db: db, now: time.Now}
}

// TTL is the lifetime of issued tokens
func (m *Manager) TTL() time.Duration { return m.ttl }

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new session token
func (m *Manager) CreateToken() (string, error) {
	now := m.now()
	claims := &Claims{
		Role: Subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(m.secret)
}

// VerifyToken verifies a session token
func (m *Manager) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Role != Subject {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// EnsureAdminExists stores a hash of password if no admin credential exists yet
func (m *Manager) EnsureAdminExists(password string) error {
	var count int64
	if err := m.db.Model(&database.AdminCredential{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count admin credentials: %w", err)
	}
	if count > 0 {
		return nil
	}
	if password == "" {
		return errors.New("admin password is empty")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return m.db.Create(&database.AdminCredential{PasswordHash: hash}).Error
}

// SetPassword replaces the stored admin password
func (m *Manager) SetPassword(password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&database.AdminCredential{}).Error; err != nil {
			return err
		}
		return tx.Create(&database.AdminCredential{PasswordHash: hash}).Error
	})
}

// Login checks password against the stored credential and issues a token
func (m *Manager) Login(password string) (string, error) {
	var cred database.AdminCredential
	if err := m.db.Order("id desc").First(&cred).Error; err != nil {
		return "", fmt.Errorf("load admin credential: %w", err)
	}
	if !CheckPasswordHash(password, cred.PasswordHash) {
		return "", ErrInvalidPassword
	}
	return m.CreateToken()
}
