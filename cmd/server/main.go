// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"askit-go/internal/config"
	"askit-go/internal/handler"
	"askit-go/internal/middleware"
	"askit-go/internal/model"
	"askit-go/internal/pipeline"
	"askit-go/internal/repository"
	"askit-go/internal/service"
	"askit-go/pkg/database"
	"askit-go/pkg/es"
	"askit-go/pkg/kafka"
	"askit-go/pkg/llm"
	"askit-go/pkg/log"
	"askit-go/pkg/storage"
	"askit-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 与对象存储
	database.InitMySQL(cfg.Database.MySQL.DSN, &model.User{}, &model.Question{}, &model.Answer{})
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	questionRepo := repository.NewQuestionRepository(database.DB)
	answerRepo := repository.NewAnswerRepository(database.DB)
	sessionRepo := repository.NewChatSessionRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	userService := service.NewUserService(userRepo, jwtManager, cfg.MinIO)
	questionService := service.NewQuestionService(questionRepo, kafka.ProduceIndexTask)
	answerService := service.NewAnswerService(answerRepo, questionRepo, kafka.ProduceIndexTask)
	searchService := service.NewSearchService(es.ESClient, cfg.Elasticsearch)

	matcher := service.NewMatcher(questionRepo, answerRepo)
	assembler := service.NewContextAssembler()

	// 应答策略在装配期确定：配置了 API key 则委托外部模型，否则纯本地模板
	var responder service.Responder
	if cfg.AI.APIKey != "" {
		responder = service.NewDelegatedResponder(matcher, assembler, llm.NewClient(cfg.AI))
		log.Infof("AI 应答策略: delegated, model=%s", cfg.AI.Model)
	} else {
		responder = service.NewLocalResponder(matcher, assembler)
		log.Info("AI 应答策略: local")
	}
	chatService := service.NewChatService(responder, matcher, questionRepo, answerRepo, sessionRepo)

	// 6. 初始化内容索引管道并启动后台 Kafka 消费者
	indexer := pipeline.NewIndexer(cfg.Elasticsearch, questionRepo, answerRepo)
	go kafka.StartConsumer(cfg.Kafka, indexer)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	authHandler := handler.NewAuthHandler(userService)
	userHandler := handler.NewUserHandler(userService, questionService, answerService)
	questionHandler := handler.NewQuestionHandler(questionService, answerService)
	answerHandler := handler.NewAnswerHandler(answerService)
	aiHandler := handler.NewAIHandler(chatService)
	searchHandler := handler.NewSearchHandler(searchService)
	chatHandler := handler.NewChatHandler(chatService, userService, jwtManager)

	authRequired := middleware.AuthMiddleware(jwtManager, userService)

	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refreshToken", authHandler.RefreshToken)
			auth.POST("/logout", authRequired, authHandler.Logout)
		}

		// Users 路由组
		users := apiV1.Group("/users")
		{
			users.GET("/me", authRequired, userHandler.GetMe)
			users.PUT("/me", authRequired, userHandler.UpdateMe)
			users.POST("/me/avatar", authRequired, userHandler.UploadAvatar)
			users.GET("/:username", userHandler.GetProfile)
			users.GET("/:username/questions", userHandler.ListUserQuestions)
			users.GET("/:username/answers", userHandler.ListUserAnswers)
		}

		// Questions 路由组，读公开、写需认证
		questions := apiV1.Group("/questions")
		{
			questions.GET("", questionHandler.List)
			questions.GET("/:id", questionHandler.Get)
			questions.POST("", authRequired, questionHandler.Create)
			questions.PUT("/:id", authRequired, questionHandler.Update)
			questions.DELETE("/:id", authRequired, questionHandler.Delete)
			questions.POST("/:id/vote", authRequired, questionHandler.Vote)
			questions.POST("/:id/answers", authRequired, answerHandler.Create)
		}

		// Answers 路由组，列表公开、写需认证
		answers := apiV1.Group("/answers")
		{
			answers.GET("", answerHandler.List)
			answers.PUT("/:id", authRequired, answerHandler.Update)
			answers.DELETE("/:id", authRequired, answerHandler.Delete)
			answers.POST("/:id/vote", authRequired, answerHandler.Vote)
			answers.POST("/:id/accept", authRequired, answerHandler.Accept)
		}

		// Search 路由组
		search := apiV1.Group("/search")
		{
			search.GET("/questions", searchHandler.Search)
		}

		// AI 问答与会话路由组
		ai := apiV1.Group("/ai")
		{
			ai.POST("/generate", aiHandler.Generate)
			ai.GET("/suggestions", aiHandler.Suggestions)

			sessions := ai.Group("/sessions")
			sessions.Use(authRequired)
			{
				sessions.POST("", aiHandler.StartSession)
				sessions.GET("/:sessionId/messages", aiHandler.GetSessionMessages)
				sessions.POST("/:sessionId/messages", aiHandler.SubmitMessage)
				sessions.DELETE("/:sessionId", aiHandler.ResetSession)
			}
		}
	}

	// Chat 路由 (WebSocket)
	r.GET("/chat/:token", chatHandler.Handle)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	// Kafka 消费循环随进程退出自然结束，无需单独关闭
	log.Info("服务已优雅关闭")
}
