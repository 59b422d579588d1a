package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/Vianpyro/Penny-Game/auth"                   //ホスト用トークンの発行と検証
	"github.com/Vianpyro/Penny-Game/database"               //設定の読み込み、PostgreSQLとRedisの初期化
	"github.com/Vianpyro/Penny-Game/internal/game"          //ゲームロジック
	"github.com/Vianpyro/Penny-Game/penny"                  //WebSocket接続
	"github.com/Vianpyro/Penny-Game/penny/actions"          //HTTPとWebSocketで共有する操作
	"github.com/Vianpyro/Penny-Game/penny/broadcast"        //ルームへのブロードキャスト
	pennydb "github.com/Vianpyro/Penny-Game/penny/database" //再接続用セッションID
	"github.com/Vianpyro/Penny-Game/screens"                //HTTPリクエストの処理
	"github.com/Vianpyro/Penny-Game/utils"                  //ロガーの初期化とCronジョブ

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const hostTokenTTL = 24 * time.Hour

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	config, err := database.LoadConfig(*configPath)
	if err != nil {
		panic(err) // ロガーより前なので停止
	}

	logger, err := utils.InitLogger(config.Development) // ロガーの初期化
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // ロガーのクリーンアップ

	// 非同期でPostgreSQLとRedisの初期化。どちらも設定が無ければ使わない
	var db *gorm.DB
	var rdb *redis.Client
	done := make(chan bool)

	go func() {
		if config.DBHost != "" {
			var err error
			db, err = database.InitPostgreSQL(config, logger)
			if err != nil {
				logger.Fatal("PostgreSQLの初期化に失敗しました", zap.Error(err))
			}
		}
		done <- true
	}()

	go func() {
		if config.RedisAddr != "" {
			var err error
			rdb, err = database.InitRedis(config, logger)
			if err != nil {
				logger.Fatal("Failed to initialize Redis", zap.Error(err))
			}
		}
		done <- true
	}()

	// 2つの初期化が完了するのを待つ
	<-done
	<-done

	env := &actions.Env{
		Registry: game.NewRegistry(config.Rules(), logger),
		Hub:      broadcast.NewHub(config.MaxConnections, logger),
		Logger:   logger,
	}
	if db != nil {
		env.Archive = database.NewResultArchive(db, logger)
	} else {
		logger.Info("PostgreSQL is not configured, round results are not archived")
	}
	var sessions penny.SessionStore
	if rdb != nil {
		sessions = pennydb.NewRedisSessions(rdb, logger)
	}

	secret := config.JWTSecret
	if secret == "" {
		secret = randomKey()
		logger.Warn("jwt_secret is not set, host tokens will not survive a restart")
	}
	tokens := auth.NewHostTokens(secret, hostTokenTTL)

	// クーロンスケジューラのセットアップと呼び出し
	cleaner, err := utils.CronCleaner(env, config, logger)
	if err != nil {
		logger.Fatal("Cronジョブの登録に失敗しました", zap.Error(err))
	}
	cleaner.Start()
	defer cleaner.Stop()

	if !config.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	//リクエストロガーを起動
	router.Use(gin.Recovery(), utils.RequestLogger(logger))

	//CORS（Cross-Origin Resource Sharing）ポリシーを設定
	corsConfig := cors.Config{
		AllowOrigins:     config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(config.AllowedOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	//各HTTPリクエストのルーティング
	screens.Routes(router, env, tokens, sessions, config, logger)

	logger.Info("Penny Game server starting", zap.String("addr", config.Addr))
	if err := router.Run(config.Addr); err != nil {
		logger.Fatal("Failed to run HTTP server", zap.Error(err))
	}
}

func randomKey() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
