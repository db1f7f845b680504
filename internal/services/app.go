package services

import (
	"fmt"
	"time"

	"echonews/internal/utils"

	"gorm.io/gorm"
)

type Options struct {
	JWTSecret     string
	TokenTTL      time.Duration
	RankingMode   utils.TrendingMode
	ImportTimeout time.Duration
	Dispatcher    Dispatcher
}

// App bundles the services that handlers depend on.
type App struct {
	DB            *gorm.DB
	Guard         *Guard
	Tokens        *TokenService
	Users         *UserService
	Articles      *ArticleService
	Ranking       *RankingService
	Votes         *VoteService
	Moderation    *ModerationService
	Comments      *CommentService
	Taxonomy      *TaxonomyService
	Activity      *ActivityService
	Notifications *NotificationService
	Search        *SearchService
	Importer      *FeedImporter
}

func NewApp(conn *gorm.DB, opts Options) (*App, error) {
	guard, err := NewGuard(conn)
	if err != nil {
		return nil, fmt.Errorf("init guard: %w", err)
	}
	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = NopDispatcher{}
	}
	if opts.ImportTimeout <= 0 {
		opts.ImportTimeout = 30 * time.Second
	}

	articles := NewArticleService(conn, guard)
	return &App{
		DB:            conn,
		Guard:         guard,
		Tokens:        NewTokenService(opts.JWTSecret, opts.TokenTTL),
		Users:         NewUserService(conn),
		Articles:      articles,
		Ranking:       NewRankingService(conn, guard, opts.RankingMode),
		Votes:         NewVoteService(conn, guard, dispatcher),
		Moderation:    NewModerationService(conn, guard, dispatcher),
		Comments:      NewCommentService(conn, guard),
		Taxonomy:      NewTaxonomyService(conn),
		Activity:      NewActivityService(conn),
		Notifications: NewNotificationService(conn),
		Search:        NewSearchService(conn),
		Importer:      NewFeedImporter(conn, guard, articles, opts.ImportTimeout),
	}, nil
}
