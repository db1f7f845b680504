package services

import (
	"context"
	"errors"
	"fmt"

	"echonews/internal/apperr"
	"echonews/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteResult is the article's tally after a vote, plus the caller's state.
// UserVote is nil when the caller has no vote.
type VoteResult struct {
	ArticleID uint             `json:"article_id"`
	Upvotes   int              `json:"upvotes"`
	Downvotes int              `json:"downvotes"`
	Score     int              `json:"score"`
	UserVote  *models.VoteType `json:"user_vote"`
}

func newVoteResult(a *models.Article, state models.VoteType) *VoteResult {
	r := &VoteResult{
		ArticleID: a.ID,
		Upvotes:   a.Upvotes,
		Downvotes: a.Downvotes,
		Score:     a.Upvotes - a.Downvotes,
	}
	if state != models.VoteNone {
		v := state
		r.UserVote = &v
	}
	return r
}

// VoteService is the vote ledger. It is the only writer of votes rows and of
// the articles.upvotes/downvotes columns.
type VoteService struct {
	db         *gorm.DB
	guard      *Guard
	dispatcher Dispatcher
}

func NewVoteService(conn *gorm.DB, guard *Guard, dispatcher Dispatcher) *VoteService {
	return &VoteService{db: conn, guard: guard, dispatcher: dispatcher}
}

// CastVote moves the caller's vote on an article to voteType (upvote,
// downvote or none). Repeating the current state changes nothing.
func (s *VoteService) CastVote(ctx context.Context, actor *models.User, articleID uint, voteType string) (*VoteResult, error) {
	if actor == nil {
		return nil, apperr.Unauthenticatedf("authentication required")
	}
	next, ok := models.ParseVoteType(voteType)
	if !ok {
		return nil, apperr.InvalidArgumentf("invalid vote type %q: must be upvote, downvote or none", voteType)
	}

	var result *VoteResult
	var event *NotificationEvent

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁住文章行，同一篇文章的投票串行执行
		var article models.Article
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&article, articleID).Error; err != nil {
			return notFoundOr(err, "article")
		}
		if article.Status != models.StatusApproved {
			return apperr.InvalidStatef("cannot vote on an article that is %s", article.Status)
		}

		prev, existing, err := currentVote(tx, articleID, actor.ID)
		if err != nil {
			return err
		}
		if prev == next {
			result = newVoteResult(&article, prev)
			return nil
		}

		switch {
		case next == models.VoteNone:
			if err := tx.Delete(existing).Error; err != nil {
				return apperr.Internalf(err, "delete vote")
			}
		case existing == nil:
			vote := models.Vote{ArticleID: articleID, UserID: actor.ID, VoteType: next}
			if err := tx.Create(&vote).Error; err != nil {
				if isUniqueViolation(err) {
					return apperr.Conflictf("concurrent vote on article %d", articleID)
				}
				return apperr.Internalf(err, "create vote")
			}
		default:
			if err := tx.Model(existing).Update("vote_type", next).Error; err != nil {
				return apperr.Internalf(err, "update vote")
			}
		}

		if err := recountVotes(tx, &article); err != nil {
			return err
		}

		if article.SubmittedBy != actor.ID {
			if err := adjustReputation(tx, article.SubmittedBy, voteWeight(next)-voteWeight(prev)); err != nil {
				return err
			}
		}

		if err := logActivity(tx, actor.ID, voteActivity(next), articleID); err != nil {
			return err
		}

		if next == models.VoteUp && article.SubmittedBy != actor.ID {
			actorID := actor.ID
			event, err = notify(tx, models.Notification{
				UserID:   article.SubmittedBy,
				ActorID:  &actorID,
				Type:     models.NotificationTypeUpvote,
				EntityID: articleID,
				Message:  fmt.Sprintf("Your article received an upvote from %s", actor.Username),
			}, "Your article received an upvote")
			if err != nil {
				return err
			}
		}

		result = newVoteResult(&article, next)
		return nil
	})
	if err != nil {
		return nil, err
	}

	dispatchAll(ctx, s.dispatcher, []*NotificationEvent{event})
	return result, nil
}

// currentVote returns VoteNone and a nil row when the user has not voted.
func currentVote(tx *gorm.DB, articleID, userID uint) (models.VoteType, *models.Vote, error) {
	var vote models.Vote
	err := tx.Where("article_id = ? AND user_id = ?", articleID, userID).Take(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.VoteNone, nil, nil
	}
	if err != nil {
		return "", nil, apperr.Internalf(err, "load vote")
	}
	return vote.VoteType, &vote, nil
}

// recountVotes derives the counters from the votes table in one statement
// and reloads them into article.
func recountVotes(tx *gorm.DB, article *models.Article) error {
	const countSQL = "(SELECT COUNT(*) FROM votes WHERE votes.article_id = ? AND votes.vote_type = ?)"
	err := tx.Model(&models.Article{}).
		Where("id = ?", article.ID).
		UpdateColumns(map[string]interface{}{
			"upvotes":   gorm.Expr(countSQL, article.ID, models.VoteUp),
			"downvotes": gorm.Expr(countSQL, article.ID, models.VoteDown),
		}).Error
	if err != nil {
		return apperr.Internalf(err, "recount votes")
	}
	if err := tx.Select("id", "upvotes", "downvotes").Take(article, article.ID).Error; err != nil {
		return apperr.Internalf(err, "reload counters")
	}
	return nil
}

func voteActivity(v models.VoteType) string {
	switch v {
	case models.VoteUp:
		return ActivityArticleUpvote
	case models.VoteDown:
		return ActivityArticleDown
	}
	return ActivityArticleUnvote
}

// GetVote returns the caller's vote on an article, VoteNone if there is none.
func (s *VoteService) GetVote(ctx context.Context, actor *models.User, articleID uint) (models.VoteType, error) {
	if actor == nil {
		return "", apperr.Unauthenticatedf("authentication required")
	}
	if err := s.db.WithContext(ctx).Select("id").Take(&models.Article{}, articleID).Error; err != nil {
		return "", notFoundOr(err, "article")
	}
	state, _, err := currentVote(s.db.WithContext(ctx), articleID, actor.ID)
	return state, err
}

// Summary returns the tally; the caller state is filled when actor is set.
func (s *VoteService) Summary(ctx context.Context, actor *models.User, articleID uint) (*VoteResult, error) {
	var article models.Article
	if err := s.db.WithContext(ctx).Select("id", "upvotes", "downvotes").Take(&article, articleID).Error; err != nil {
		return nil, notFoundOr(err, "article")
	}
	state := models.VoteNone
	if actor != nil {
		var err error
		state, _, err = currentVote(s.db.WithContext(ctx), articleID, actor.ID)
		if err != nil {
			return nil, err
		}
	}
	return newVoteResult(&article, state), nil
}

// Recount rebuilds the counters of one article from the ledger.
func (s *VoteService) Recount(ctx context.Context, actor *models.User, articleID uint) (*VoteResult, error) {
	if err := s.guard.Require(actor, ObjArticle, ActModerate); err != nil {
		return nil, err
	}
	var result *VoteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article models.Article
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&article, articleID).Error; err != nil {
			return notFoundOr(err, "article")
		}
		if err := recountVotes(tx, &article); err != nil {
			return err
		}
		result = newVoteResult(&article, models.VoteNone)
		return nil
	})
	return result, err
}
