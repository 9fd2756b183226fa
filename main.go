package main

import (
	"context"
	"log"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"memowriter/internal/api"
	"memowriter/internal/config"
	"memowriter/internal/convo"
	"memowriter/internal/docstore"
	"memowriter/internal/gate"
	"memowriter/internal/ocr"
	"memowriter/internal/prompt"
	"memowriter/internal/redis"
	"memowriter/internal/session"
	"memowriter/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("MEMOWRITER_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	store := docstore.NewS3Store(s3.NewFromConfig(awsCfg), cfg.AWS.Bucket)
	tracker := ocr.NewTracker(ocr.NewTextractAPI(textract.NewFromConfig(awsCfg)))

	runs := convo.NewTracker(
		convo.NewOpenAIClient(cfg.OpenAI),
		cfg.OpenAI.ThreadID,
		cfg.OpenAI.AssistantID,
		cfg.OpenAI.Instructions,
	)

	var tokenStore gate.TokenStore
	if cfg.Gate.AccessCode != "" {
		rdb, err := redis.NewClient(cfg)
		if err != nil {
			log.Fatalf("create redis client: %v", err)
		}
		defer rdb.Close()
		tokenStore = rdb
	}
	gateTTL := time.Duration(cfg.Gate.TokenTTLHours) * time.Hour
	gateSvc := gate.NewService(cfg.Gate.AccessCode, tokenStore, gateTTL)

	sessionTTL := time.Duration(cfg.BasicConfig.SessionTTL) * time.Minute
	sessions := session.NewManager(cfg.BasicConfig.Slots, sessionTTL)
	cleanCtx, cleanCancel := context.WithCancel(ctx)
	defer cleanCancel()
	cleanInterval := time.Duration(cfg.BasicConfig.SessionCleanInterval) * time.Minute
	sessions.StartCleaner(cleanCtx, cleanInterval)

	pollInterval := time.Duration(cfg.BasicConfig.PollInterval) * time.Second
	retryDelay := time.Duration(cfg.BasicConfig.TickRetryDelayMS) * time.Millisecond
	reconciler := session.NewReconciler(tracker, cfg.BasicConfig.MaxExtractionPolls, retryDelay)
	extractor := worker.NewExtractor(tracker, pollInterval, cfg.BasicConfig.MaxExtractionPolls)
	runWaiter := worker.NewRunWaiter(runs, pollInterval, cfg.BasicConfig.MaxRunPolls)

	handlers := api.NewHandler(api.HandlerConfig{
		Sessions:    sessions,
		Reconciler:  reconciler,
		Gate:        gateSvc,
		Store:       store,
		Bucket:      cfg.AWS.Bucket,
		Runs:        runs,
		Assembler:   prompt.NewAssembler(cfg.BasicConfig.RoleDescription, cfg.BasicConfig.SlotTextLimit),
		Extractor:   extractor,
		RunWaiter:   runWaiter,
		MaxRunPolls: cfg.BasicConfig.MaxRunPolls,
	})

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}
	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
