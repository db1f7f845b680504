package services

import (
	"echonews/internal/apperr"
	"echonews/internal/models"

	"gorm.io/gorm"
)

// voteWeight is the score contribution of a stored vote state.
func voteWeight(v models.VoteType) int {
	switch v {
	case models.VoteUp:
		return 1
	case models.VoteDown:
		return -1
	}
	return 0
}

// adjustReputation 在调用方事务内修改用户声望
func adjustReputation(tx *gorm.DB, userID uint, delta int) error {
	if delta == 0 {
		return nil
	}
	err := tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("reputation", gorm.Expr("reputation + ?", delta)).
		Error
	if err != nil {
		return apperr.Internalf(err, "adjust reputation")
	}
	return nil
}
