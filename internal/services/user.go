package services

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"echonews/internal/apperr"
	"echonews/internal/db"
	"echonews/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,50}$`)

var defaultViews = map[string]bool{"trending": true, "newest": true, "most_voted": true}

type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

type ProfileInput struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}

type PreferencesInput struct {
	EmailNotifications *bool
	DarkMode           *bool
	DefaultView        *string
}

// Profile is a user with the badges they hold.
type Profile struct {
	User   models.User       `json:"user"`
	Badges []models.UserBadge `json:"badges"`
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(conn *gorm.DB) *UserService {
	return &UserService{db: conn}
}

// Register creates an account with default preferences and the new member badge.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if !usernamePattern.MatchString(username) {
		return nil, apperr.InvalidArgumentf("username must be 3-50 letters, digits or underscores")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.InvalidArgumentf("invalid email address")
	}
	if len(in.Password) < 8 {
		return nil, apperr.InvalidArgumentf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internalf(err, "hash password")
	}

	user := models.User{
		Username:    username,
		Email:       email,
		Password:    string(hash),
		DisplayName: strings.TrimSpace(in.DisplayName),
		Role:        models.RoleUser,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ? OR email = ?", username, email).Count(&count).Error; err != nil {
			return apperr.Internalf(err, "check user")
		}
		if count > 0 {
			return apperr.Conflictf("username or email already registered")
		}

		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflictf("username or email already registered")
			}
			return apperr.Internalf(err, "create user")
		}
		if err := tx.Create(&models.UserPreference{UserID: user.ID, EmailNotifications: true, DefaultView: "trending"}).Error; err != nil {
			return apperr.Internalf(err, "create preferences")
		}
		if err := awardBadge(tx, user.ID, db.BadgeNewMember); err != nil {
			return err
		}
		return logActivity(tx, user.ID, ActivityRegister, user.ID)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate checks a username or email against the stored hash.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthenticatedf("incorrect username or password")
	}
	if err != nil {
		return nil, apperr.Internalf(err, "load user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperr.Unauthenticatedf("incorrect username or password")
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		return nil, apperr.Internalf(err, "record login")
	}
	user.LastLogin = &now
	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &user, nil
}

func (s *UserService) Profile(ctx context.Context, username string) (*Profile, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return s.profileOf(ctx, &user)
}

func (s *UserService) profileOf(ctx context.Context, user *models.User) (*Profile, error) {
	var badges []models.UserBadge
	err := s.db.WithContext(ctx).Preload("Badge").
		Where("user_id = ?", user.ID).
		Order("awarded_at ASC, id ASC").
		Find(&badges).Error
	if err != nil {
		return nil, apperr.Internalf(err, "load badges")
	}
	return &Profile{User: *user, Badges: badges}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actor *models.User, in ProfileInput) (*Profile, error) {
	if actor == nil {
		return nil, apperr.Unauthenticatedf("authentication required")
	}
	updates := map[string]interface{}{}
	if in.DisplayName != nil {
		updates["display_name"] = truncateRunes(strings.TrimSpace(*in.DisplayName), 100)
	}
	if in.Bio != nil {
		updates["bio"] = truncateRunes(strings.TrimSpace(*in.Bio), 500)
	}
	if in.AvatarURL != nil {
		avatar, err := validateURL(*in.AvatarURL)
		if err != nil {
			return nil, err
		}
		updates["avatar_url"] = avatar
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&user, actor.ID).Error; err != nil {
			return notFoundOr(err, "user")
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return apperr.Internalf(err, "update profile")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.profileOf(ctx, &user)
}

// Preferences returns stored preferences, creating the default row on first use.
func (s *UserService) Preferences(ctx context.Context, userID uint) (*models.UserPreference, error) {
	pref := models.UserPreference{UserID: userID, EmailNotifications: true, DefaultView: "trending"}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&pref).Error
	if err != nil {
		return nil, apperr.Internalf(err, "create preferences")
	}
	if err := s.db.WithContext(ctx).Take(&pref, "user_id = ?", userID).Error; err != nil {
		return nil, notFoundOr(err, "preferences")
	}
	return &pref, nil
}

func (s *UserService) UpdatePreferences(ctx context.Context, userID uint, in PreferencesInput) (*models.UserPreference, error) {
	if in.DefaultView != nil && !defaultViews[*in.DefaultView] {
		return nil, apperr.InvalidArgumentf("default_view must be trending, newest or most_voted")
	}
	pref, err := s.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.EmailNotifications != nil {
		updates["email_notifications"] = *in.EmailNotifications
	}
	if in.DarkMode != nil {
		updates["dark_mode"] = *in.DarkMode
	}
	if in.DefaultView != nil {
		updates["default_view"] = *in.DefaultView
	}
	if len(updates) == 0 {
		return pref, nil
	}
	if err := s.db.WithContext(ctx).Model(pref).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
		return nil, apperr.Internalf(err, "update preferences")
	}
	return s.Preferences(ctx, userID)
}
