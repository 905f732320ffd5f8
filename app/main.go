package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Guyuepp/go-comment-engine/domain"
	"github.com/Guyuepp/go-comment-engine/internal/auth"
	"github.com/Guyuepp/go-comment-engine/internal/repository"
	"github.com/Guyuepp/go-comment-engine/internal/repository/memory"
	mongoRepo "github.com/Guyuepp/go-comment-engine/internal/repository/mongo"
	mysqlRepo "github.com/Guyuepp/go-comment-engine/internal/repository/mysql"
	redisRepo "github.com/Guyuepp/go-comment-engine/internal/repository/redis"
	"github.com/Guyuepp/go-comment-engine/internal/rest"
	"github.com/Guyuepp/go-comment-engine/internal/rest/middleware"
	"github.com/Guyuepp/go-comment-engine/internal/usecase/comment"
	"github.com/Guyuepp/go-comment-engine/internal/workers"
)

const (
	defaultTimeout     = 30
	defaultAddress     = ":9090"
	dbMaxRetry         = 10
	dbRetryIntervalSec = 2
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("no .env file found, relying on environment")
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// prepare storage backend
	var (
		storage domain.CommentStorage
		cleanup func()
	)
	driver := os.Getenv("STORAGE_DRIVER")
	switch driver {
	case "", "mysql":
		storage, cleanup = openMySQL()
	case "mongo":
		storage, cleanup = openMongo(ctx)
	case "memory":
		storage, cleanup = memory.New(), func() {}
	default:
		log.Fatalf("unknown STORAGE_DRIVER %q", driver)
	}
	defer cleanup()

	// prepare cache (optional)
	var invalidator domain.CacheInvalidator
	if cacheHost := os.Getenv("CACHE_HOST"); cacheHost != "" {
		cachePort := os.Getenv("CACHE_PORT")
		cacheDB, err := strconv.Atoi(os.Getenv("CACHE_DB"))
		if err != nil {
			cacheDB = 0
		}
		client := goredis.NewClient(&goredis.Options{
			Addr:     cacheHost + ":" + cachePort,
			Password: os.Getenv("CACHE_PASS"),
			DB:       cacheDB,
		})
		defer func() {
			if err := client.Close(); err != nil {
				log.Println("got error when closing the cache connection", err)
			}
		}()
		if _, err := client.Ping(ctx).Result(); err != nil {
			log.Fatal("failed to open connection to cache", err)
		}

		listCache := redisRepo.NewListCache(client)
		storage = repository.NewCachedCommentStorage(storage, listCache)

		worker := workers.NewInvalidateCacheWorker(listCache)
		go worker.Start(ctx)
		invalidator = worker
	}

	// prepare authorization resolver
	mode := domain.AuthMode(os.Getenv("AUTH_MODE"))
	if mode == "" {
		mode = domain.AuthModeNone
	}
	if mode == domain.AuthModeCustom {
		// the custom strategy only makes sense when the engine is embedded
		// with a host-supplied accessor
		log.Fatalf("AUTH_MODE %q requires embedding the engine with a session-with-role accessor", mode)
	}
	resolver, err := auth.NewResolver(mode, storage, nil)
	if err != nil {
		log.Fatal(err)
	}

	// build service layer
	commentSvc := comment.NewService(storage, resolver, invalidator)
	commentHandler := rest.NewCommentHandler(commentSvc)

	// prepare gin
	route := gin.Default()
	route.Use(middleware.CORS())
	timeout, err := strconv.Atoi(os.Getenv("CONTEXT_TIMEOUT"))
	if err != nil {
		log.Println("failed to parse timeout, using default timeout")
		timeout = defaultTimeout
	}
	route.Use(middleware.SetRequestContextWithTimeout(time.Duration(timeout) * time.Second))
	route.Use(middleware.BearerAuth([]byte(os.Getenv("JWT_SECRET"))))

	commentHandler.Register(route)

	// start server
	address := os.Getenv("SERVER_ADDRESS")
	if address == "" {
		address = defaultAddress
	}
	srv := &http.Server{
		Addr:    address,
		Handler: route,
	}
	go func() {
		log.Printf("Server is running on %s\n", address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err) // nolint
		}
	}()

	// shutdown
	<-ctx.Done()
	log.Println("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Waiting for worker to cleanup...")
	time.Sleep(2 * time.Second)

	log.Println("Server exiting")
}

func openMySQL() (domain.CommentStorage, func()) {
	dbHost := os.Getenv("DATABASE_HOST")
	dbPort := os.Getenv("DATABASE_PORT")
	dbUser := os.Getenv("DATABASE_USER")
	dbPass := os.Getenv("DATABASE_PASS")
	dbName := os.Getenv("DATABASE_NAME")
	connection := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", dbUser, dbPass, dbHost, dbPort, dbName)
	val := url.Values{}
	val.Add("parseTime", "1")
	dsn := fmt.Sprintf("%s?%s", connection, val.Encode())

	var (
		db  *gorm.DB
		err error
	)
	for i := range dbMaxRetry {
		db, err = gorm.Open(gormmysql.Open(dsn), &gorm.Config{})
		if err != nil {
			log.Printf("failed to open connection to database (attempt %d/%d): %v", i+1, dbMaxRetry, err)
		} else {
			sqlDB, err := db.DB()
			if err != nil {
				log.Printf("failed to get sql.DB from gorm.DB (attempt %d/%d): %v", i+1, dbMaxRetry, err)
				continue
			}
			err = sqlDB.Ping()
			if err == nil {
				break
			}
			log.Printf("failed to ping database (attempt %d/%d): %v", i+1, dbMaxRetry, err)
			_ = sqlDB.Close()
		}

		time.Sleep(dbRetryIntervalSec * time.Second)
	}
	if err != nil {
		log.Fatal("could not connect to database after retries:", err)
	}

	storage := mysqlRepo.NewCommentStorage(db)
	if err := storage.Migrate(); err != nil {
		log.Fatal("failed to migrate database schema:", err)
	}

	return storage, func() {
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatal("got error when getting sql.DB from gorm.DB", err)
		}
		if err := sqlDB.Close(); err != nil {
			log.Fatal("got error when closing the DB connection", err)
		}
	}
}

func openMongo(ctx context.Context) (domain.CommentStorage, func()) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DATABASE")
	if dbName == "" {
		dbName = "comments"
	}

	client, err := mongodriver.Connect(ctx, mongooptions.Client().ApplyURI(uri))
	if err != nil {
		log.Fatal("failed to open connection to mongo:", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("failed to ping mongo:", err)
	}

	storage := mongoRepo.NewCommentStorage(client.Database(dbName))
	if err := storage.EnsureIndexes(ctx); err != nil {
		log.Fatal("failed to ensure mongo indexes:", err)
	}

	return storage, func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Println("got error when closing the mongo connection", err)
		}
	}
}
