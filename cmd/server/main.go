package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/hypergrid-backend/internal/config"
	"github.com/pu-ac-cn/hypergrid-backend/internal/database"
	"github.com/pu-ac-cn/hypergrid-backend/internal/handler"
	"github.com/pu-ac-cn/hypergrid-backend/internal/middleware"
	"github.com/pu-ac-cn/hypergrid-backend/internal/redis"
	"github.com/pu-ac-cn/hypergrid-backend/internal/remote"
	"github.com/pu-ac-cn/hypergrid-backend/internal/repository"
	"github.com/pu-ac-cn/hypergrid-backend/internal/service"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/response"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 校验超网格配置，对外地址必须可解析
	if err := cfg.Grid.Validate(); err != nil {
		log.Fatalf("超网格配置校验失败: %v", err)
	}

	// 初始化数据库连接
	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer database.Close()
	log.Println("数据库连接成功")

	// 初始化 Redis 连接
	if err := redis.Init(&cfg.Redis); err != nil {
		log.Fatalf("初始化 Redis 失败: %v", err)
	}
	defer redis.Close()
	log.Println("Redis 连接成功")

	// 自动迁移数据库表
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库迁移完成")

	// 初始化 Repository
	friendRepo := repository.NewFriendRepository(database.GetDB())
	offlineRepo := repository.NewOfflineMessageRepository(database.GetDB())
	gridUserRepo := repository.NewGridUserRepository(database.GetDB())
	inventoryRepo := repository.NewInventoryRepository(database.GetDB())

	// 加载或生成 RSA 密钥对
	privateKey, err := loadOrGenerateKey(cfg.JWT.PrivateKeyPath)
	if err != nil {
		log.Fatalf("加载 RSA 密钥失败: %v", err)
	}

	// 初始化本格协作服务连接器
	client := remote.NewClient()
	accountService := remote.NewAccountService(client, &cfg.Services)
	presenceService := remote.NewPresenceService(client, &cfg.Services)
	regionRegistry := remote.NewRegionRegistry(client, &cfg.Services)
	avatarService := remote.NewAvatarService(client, &cfg.Services)
	eventSink := remote.NewEventSink(client, cfg.Services.SimulatorURL)
	simulatorGateway := remote.NewSimulatorGateway(client)
	gatekeeperGateway := remote.NewGatekeeperGateway(client)
	userAgentGateway := remote.NewUserAgentGateway(client)
	friendsGateway := remote.NewFriendsGateway(client)
	messageGateway := remote.NewMessageGateway(client)

	// 初始化 Service
	tokenService := service.NewTokenService(&service.TokenServiceConfig{
		PrivateKey:   privateKey,
		PublicKey:    &privateKey.PublicKey,
		KeyID:        "key-1",
		Issuer:       cfg.JWT.Issuer,
		AccessExpiry: cfg.JWT.AccessExpiry,
	})
	sessionStore := service.NewTravelSessionStore(redis.GetClient(), nil)
	if removed, err := sessionStore.Sweep(context.Background()); err != nil {
		log.Printf("清理会话索引失败: %v", err)
	} else if removed > 0 {
		log.Printf("清理会话索引完成，剔除 %d 条残留", removed)
	}
	travelPolicy := service.NewTravelPolicy(&cfg.Grid)
	travelService := service.NewTravelService(
		&cfg.Grid, sessionStore, accountService, regionRegistry,
		gridUserRepo, friendRepo, travelPolicy, simulatorGateway, gatekeeperGateway)
	friendService := service.NewFriendService(
		&cfg.Grid, friendRepo, accountService, presenceService,
		eventSink, userAgentGateway, friendsGateway)
	relayService := service.NewRelayService(
		&cfg.Grid, offlineRepo, presenceService, regionRegistry,
		travelService, messageGateway)
	suitcaseService := service.NewSuitcaseService(inventoryRepo, avatarService)

	// 初始化 Handler
	userAgentHandler := handler.NewUserAgentHandler(travelService, friendService)
	friendsHandler := handler.NewFriendsHandler(friendService)
	messageHandler := handler.NewMessageHandler(relayService)
	inventoryHandler := handler.NewInventoryHandler(suitcaseService)
	keysHandler := handler.NewKeysHandler(tokenService)

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()

	// 全局中间件
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		// 检查数据库连接
		dbStatus := "ok"
		if err := database.Ping(); err != nil {
			dbStatus = "error"
		}

		// 检查 Redis 连接
		redisStatus := "ok"
		redisClient := redis.GetClient()
		if redisClient == nil {
			redisStatus = "error"
		} else if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error"
		}

		response.Success(c, gin.H{
			"status":   "ok",
			"time":     time.Now().Format(time.RFC3339),
			"database": dbStatus,
			"redis":    redisStatus,
		})
	})

	// 用户归属服务：对外查询与校验
	useragent := router.Group("/useragent")
	{
		useragent.POST("/verify_client", userAgentHandler.VerifyClient)
		useragent.POST("/verify_agent", userAgentHandler.VerifyAgent)
		useragent.POST("/agent_is_coming_home", userAgentHandler.AgentIsComingHome)
		useragent.POST("/locate_user", userAgentHandler.LocateUser)
		useragent.POST("/get_uuid", userAgentHandler.GetUUID)
		useragent.POST("/get_uui", userAgentHandler.GetUUI)
		useragent.POST("/get_user_info", userAgentHandler.GetUserInfo)
		useragent.POST("/get_server_urls", userAgentHandler.GetServerURLs)
		useragent.POST("/status_notification", userAgentHandler.StatusNotification)
		useragent.POST("/get_online_friends", userAgentHandler.GetOnlineFriends)
		useragent.POST("/validate_friendship_offered", userAgentHandler.ValidateFriendshipOffered)

		// 本格通道：准入与登出
		internal := useragent.Group("")
		internal.Use(middleware.ServiceAuth(tokenService))
		{
			internal.POST("/login_agent", userAgentHandler.LoginAgent)
			internal.POST("/logout_agent", userAgentHandler.LogoutAgent)
			internal.POST("/get_home_region", userAgentHandler.GetHomeRegion)
		}
	}

	// 跨网格好友
	hgfriends := router.Group("/hgfriends")
	{
		hgfriends.POST("/newfriendship", middleware.OptionalServiceAuth(tokenService), friendsHandler.NewFriendship)
		hgfriends.POST("/deletefriendship", friendsHandler.DeleteFriendship)
		hgfriends.POST("/friendship_offered", friendsHandler.FriendshipOffered)
		hgfriends.POST("/offer", middleware.ServiceAuth(tokenService), friendsHandler.OfferFriendship)
	}

	// 跨网格即时消息
	hgim := router.Group("/hgim")
	{
		hgim.POST("/incoming", messageHandler.Incoming)
		hgim.POST("/outgoing", middleware.ServiceAuth(tokenService), messageHandler.Outgoing)
		hgim.POST("/retrieve_offline", middleware.ServiceAuth(tokenService), messageHandler.RetrieveOffline)
	}

	// 外来会话受限库存
	hginventory := router.Group("/hginventory")
	{
		hginventory.POST("/create_user_inventory", inventoryHandler.CreateUserInventory)
		hginventory.POST("/get_root_folder", inventoryHandler.GetRootFolder)
		hginventory.POST("/get_inventory_skeleton", inventoryHandler.GetInventorySkeleton)
		hginventory.POST("/get_folder_for_type", inventoryHandler.GetFolderForType)
		hginventory.POST("/get_folder_content", inventoryHandler.GetFolderContent)
		hginventory.POST("/get_folder", inventoryHandler.GetFolder)
		hginventory.POST("/get_item", inventoryHandler.GetItem)
		hginventory.POST("/add_folder", inventoryHandler.AddFolder)
		hginventory.POST("/update_folder", inventoryHandler.UpdateFolder)
		hginventory.POST("/move_folder", inventoryHandler.MoveFolder)
		hginventory.POST("/delete_folders", inventoryHandler.DeleteFolders)
		hginventory.POST("/purge_folder", inventoryHandler.PurgeFolder)
		hginventory.POST("/add_item", inventoryHandler.AddItem)
		hginventory.POST("/update_item", inventoryHandler.UpdateItem)
		hginventory.POST("/move_items", inventoryHandler.MoveItems)
		hginventory.POST("/delete_items", inventoryHandler.DeleteItems)
	}

	// 验签公钥发布
	router.GET("/.well-known/jwks.json", keysHandler.JWKS)

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		log.Printf("服务启动，监听地址: %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，等待 5 秒
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务关闭失败: %v", err)
	}

	log.Println("服务已关闭")
}

// loadOrGenerateKey 从文件加载 RSA 私钥，未配置路径时现场生成
func loadOrGenerateKey(path string) (*rsa.PrivateKey, error) {
	if path == "" {
		return rsa.GenerateKey(rand.Reader, 2048)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("私钥文件不是 PEM 格式")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("私钥不是 RSA 类型")
	}
	return key, nil
}
