package db

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const DefaultLanguage = "en"

// UpsertTelegramUser регистрирует пользователя при первом обращении,
// при последующих обновляет профиль и время последнего взаимодействия.
// Язык здесь не меняется — только через SetLanguage.
func (s *Storage) UpsertTelegramUser(ctx context.Context, u TelegramUser) (TelegramUser, error) {
	now := time.Now()
	existing, err := s.GetTelegramUser(ctx, u.TelegramID)
	if errors.Is(err, ErrNotFound) {
		u.LastInteraction = now
		if u.Language == "" {
			u.Language = DefaultLanguage
		}
		return u, s.DB.WithContext(ctx).Create(&u).Error
	}
	if err != nil {
		return existing, err
	}
	err = s.DB.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"username":         u.Username,
		"first_name":       u.FirstName,
		"last_name":        u.LastName,
		"last_interaction": now,
	}).Error
	if err != nil {
		return existing, err
	}
	return s.GetTelegramUser(ctx, u.TelegramID)
}

func (s *Storage) GetTelegramUser(ctx context.Context, telegramID int64) (TelegramUser, error) {
	var u TelegramUser
	err := s.DB.WithContext(ctx).First(&u, "telegram_id = ?", telegramID).Error
	return u, notFound(err)
}

// GetLanguage возвращает язык пользователя; незнакомым — язык по умолчанию
func (s *Storage) GetLanguage(ctx context.Context, telegramID int64) (string, error) {
	u, err := s.GetTelegramUser(ctx, telegramID)
	if errors.Is(err, ErrNotFound) {
		return DefaultLanguage, nil
	}
	if err != nil {
		return DefaultLanguage, err
	}
	if u.Language == "" {
		return DefaultLanguage, nil
	}
	return u.Language, nil
}

func (s *Storage) SetLanguage(ctx context.Context, telegramID int64, language string) error {
	res := s.DB.WithContext(ctx).Model(&TelegramUser{}).Where("telegram_id = ?", telegramID).Update("language", language)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateUser заводит учётку веб-панели (админа или покупателя); пароль хранится только в виде bcrypt-хэша
func (s *Storage) CreateUser(ctx context.Context, username, password, role string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u := User{Username: username, PasswordHash: string(hash), Role: role}
	err = s.Transaction(ctx, func(tx *Storage) error {
		var taken int64
		if err := tx.DB.WithContext(ctx).Model(&User{}).Where("username = ?", username).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrUsernameTaken
		}
		return tx.DB.WithContext(ctx).Create(&u).Error
	})
	return u, err
}

func (s *Storage) Authenticate(ctx context.Context, username, password string) (User, error) {
	var u User
	if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return u, ErrInvalidCredentials
		}
		return u, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Storage) GetUser(ctx context.Context, id uint) (User, error) {
	var u User
	err := s.DB.WithContext(ctx).First(&u, id).Error
	return u, notFound(err)
}
