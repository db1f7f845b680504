package router

import (
	"echonews/internal/handlers"
	"echonews/internal/middleware"
	"echonews/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "echonews_session"

// New builds the engine with middleware and every route.
func New(app *services.App, sessionSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog())

	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 7 * 24 * 3600, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(middleware.LoadUser(app.Tokens, app.Users))

	RegisterRoutes(r, app)
	return r
}

func RegisterRoutes(r *gin.Engine, app *services.App) {
	// Handlers
	authHandler := handlers.NewAuthHandler(app)
	articleHandler := handlers.NewArticleHandler(app)
	voteHandler := handlers.NewVoteHandler(app)
	commentHandler := handlers.NewCommentHandler(app)
	userHandler := handlers.NewUserHandler(app)
	notificationHandler := handlers.NewNotificationHandler(app)
	taxonomyHandler := handlers.NewTaxonomyHandler(app)
	searchHandler := handlers.NewSearchHandler(app)
	adminHandler := handlers.NewAdminHandler(app)

	// 公共路由 (Public Routes)
	r.POST("/auth/register", authHandler.Register)               // 注册
	r.POST("/auth/login", authHandler.Login)                     // 登录，返回 token
	r.POST("/auth/logout", authHandler.Logout)                   // 退出登录
	r.GET("/articles", articleHandler.List)                      // 文章列表 (排序/筛选/分页)
	r.GET("/articles/:id", articleHandler.Get)                   // 文章详情
	r.GET("/comments/article/:id", commentHandler.ListByArticle) // 文章评论树
	r.GET("/votes/:id", voteHandler.Summary)                     // 票数统计
	r.GET("/categories", taxonomyHandler.Categories)             // 分类列表
	r.GET("/tags", taxonomyHandler.Tags)                         // 标签列表
	r.GET("/search", searchHandler.Search)                       // 搜索
	r.GET("/users/:username", userHandler.Profile)               // 用户主页

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/auth/me", authHandler.Me) // 当前用户

		authorized.POST("/articles", articleHandler.Create)              // 投稿
		authorized.PUT("/articles/:id", articleHandler.Update)           // 编辑文章
		authorized.DELETE("/articles/:id", articleHandler.Delete)        // 删除文章
		authorized.POST("/articles/approve", articleHandler.Approve)     // 审核文章
		authorized.POST("/articles/:id/feature", articleHandler.Feature) // 设为精选

		authorized.POST("/votes/:id/vote", voteHandler.Vote)   // 投票
		authorized.GET("/votes/:id/vote", voteHandler.Current) // 当前用户的投票

		authorized.POST("/comments", commentHandler.Create)       // 发表评论
		authorized.PUT("/comments/:id", commentHandler.Update)    // 编辑评论
		authorized.DELETE("/comments/:id", commentHandler.Delete) // 删除评论

		authorized.GET("/notifications", notificationHandler.List)              // 我的通知
		authorized.POST("/notifications/:id/read", notificationHandler.Read)    // 标记单条通知为已读
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll) // 全部标记为已读
		authorized.DELETE("/notifications/:id", notificationHandler.Delete)     // 删除单条通知
	}

	// 个人中心 (Me Routes)
	me := r.Group("/users/me")
	me.Use(middleware.AuthRequired())
	{
		me.GET("", userHandler.Me)
		me.PUT("", userHandler.UpdateMe)
		me.GET("/preferences", userHandler.Preferences)
		me.PUT("/preferences", userHandler.UpdatePreferences)
		me.GET("/activity", userHandler.Activity)
		me.GET("/articles", userHandler.MyArticles)
		me.GET("/comments", userHandler.MyComments)
	}

	// 管理路由 (Admin Routes)，权限由 Guard 判断
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired())
	{
		admin.POST("/import", adminHandler.Import)                    // 导入订阅源
		admin.POST("/moderators/:id", adminHandler.GrantModerator)    // 授予审核权限
		admin.DELETE("/moderators/:id", adminHandler.RevokeModerator) // 收回审核权限
		admin.POST("/articles/:id/recount", adminHandler.Recount)     // 重建投票计数
	}
}
